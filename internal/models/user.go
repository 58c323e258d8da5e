package models

// Role names an account's portal.
type Role string

const (
	RoleSystemAdmin  Role = "system_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleCollector    Role = "collector"
	RoleCustomer     Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleCompanyAdmin, RoleCollector, RoleCustomer:
		return true
	}
	return false
}

type User struct {
	ID                  string  `json:"id" db:"id"`
	Email               string  `json:"email" db:"email"`
	Password            string  `json:"-" db:"password"` // Never return password in JSON
	FirstName           string  `json:"first_name" db:"first_name"`
	LastName            string  `json:"last_name" db:"last_name"`
	Phone               *string `json:"phone,omitempty" db:"phone"`
	Role                Role    `json:"role" db:"role"`
	CompanyID           *string `json:"company_id,omitempty" db:"company_id"`
	IsActive            bool    `json:"is_active" db:"is_active"`
	IsVerified          bool    `json:"is_verified" db:"is_verified"`
	LastLoginAt         *int64  `json:"last_login_at,omitempty" db:"last_login_at"`
	LastLoginIP         *string `json:"-" db:"last_login_ip"`
	FailedLoginAttempts int     `json:"-" db:"failed_login_attempts"`
	CreatedAt           int64   `json:"created_at" db:"created_at"`
	UpdatedAt           int64   `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	Role        Role    `json:"role"`
	CompanyID   *string `json:"company_id,omitempty"`
	IsVerified  bool    `json:"is_verified"`
	LastLoginAt *int64  `json:"last_login_at,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

func (u *User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName(),
		Role:        u.Role,
		CompanyID:   u.CompanyID,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Actor returns the principal this account acts as.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role, CompanyID: u.CompanyID}
}

// FCMToken represents a Firebase Cloud Messaging token for a user
type FCMToken struct {
	ID         int    `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	Token      string `json:"token" db:"token"`
	DeviceType string `json:"device_type" db:"device_type"` // "ios" or "android"
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
