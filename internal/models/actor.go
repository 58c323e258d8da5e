package models

// Actor is the authenticated principal performing an operation. Mutating
// operations take it explicitly so audit fields never depend on request state.
type Actor struct {
	UserID    string  `json:"user_id"`
	Email     string  `json:"email,omitempty"`
	Role      Role    `json:"role"`
	CompanyID *string `json:"company_id,omitempty"`
}

// SystemActor is used by batch jobs that run without a logged-in user.
var SystemActor = Actor{Role: RoleSystemAdmin}

func (a Actor) IsSystemAdmin() bool { return a.Role == RoleSystemAdmin }

// CanAccessCompany reports whether a may read or modify data owned by
// companyID. System admins see every tenant.
func (a Actor) CanAccessCompany(companyID *string) bool {
	if a.IsSystemAdmin() {
		return true
	}
	if a.CompanyID == nil || companyID == nil {
		return false
	}
	return *a.CompanyID == *companyID
}

// UserRef returns the actor's user id for created_by style columns, or nil
// for the system actor.
func (a Actor) UserRef() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}
