package models

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusArchived  CustomerStatus = "archived"
)

// Customer is a household or business served by a company. CardNumber is the
// 8-digit card code customers can log in with.
type Customer struct {
	ID              string         `json:"id" db:"id"`
	CompanyID       *string        `json:"company_id,omitempty" db:"company_id"`
	CardNumber      *string        `json:"card_number,omitempty" db:"card_number"`
	UserID          *string        `json:"user_id,omitempty" db:"user_id"`
	RouteID         *string        `json:"route_id,omitempty" db:"route_id"`
	CompanyName     string         `json:"company_name" db:"company_name"`
	FirstName       string         `json:"first_name" db:"first_name"`
	LastName        string         `json:"last_name" db:"last_name"`
	Email           string         `json:"email" db:"email"`
	Phone           string         `json:"phone" db:"phone"`
	District        string         `json:"district" db:"district"`
	Sector          string         `json:"sector" db:"sector"`
	Cell            string         `json:"cell" db:"cell"`
	Village         string         `json:"village" db:"village"`
	Street          string         `json:"street" db:"street"`
	PrepaidBalance  int            `json:"prepaid_balance" db:"prepaid_balance"`
	Status          CustomerStatus `json:"status" db:"status"`
	Notes           string         `json:"notes" db:"notes"`
	ArchivedAt      *int64         `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByUserID *string        `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt       int64          `json:"created_at" db:"created_at"`
	UpdatedAt       int64          `json:"updated_at" db:"updated_at"`
}

func (c *Customer) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// DisplayName prefers the business name when one is set.
func (c *Customer) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName + " - " + c.FullName()
	}
	return c.FullName()
}

type CustomerListItem struct {
	ID             string         `json:"id"`
	CardNumber     *string        `json:"card_number,omitempty"`
	DisplayName    string         `json:"display_name"`
	Phone          string         `json:"phone"`
	District       string         `json:"district"`
	Sector         string         `json:"sector"`
	PrepaidBalance int            `json:"prepaid_balance"`
	Status         CustomerStatus `json:"status"`
}

type CustomerDetail struct {
	Customer
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
}

func (c *Customer) Present(shape Shape) interface{} {
	if shape == ShapeList {
		return CustomerListItem{
			ID:             c.ID,
			CardNumber:     c.CardNumber,
			DisplayName:    c.DisplayName(),
			Phone:          c.Phone,
			District:       c.District,
			Sector:         c.Sector,
			PrepaidBalance: c.PrepaidBalance,
			Status:         c.Status,
		}
	}
	return CustomerDetail{Customer: *c, FullName: c.FullName(), DisplayName: c.DisplayName()}
}

type CreateCustomerRequest struct {
	CardNumber     *string `json:"card_number,omitempty" validate:"omitempty,len=8,numeric"`
	RouteID        *string `json:"route_id,omitempty" validate:"omitempty,uuid"`
	CompanyName    string  `json:"company_name" validate:"max=255"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone" validate:"omitempty,phone"`
	District       string  `json:"district"`
	Sector         string  `json:"sector"`
	Cell           string  `json:"cell"`
	Village        string  `json:"village"`
	Street         string  `json:"street"`
	PrepaidBalance int     `json:"prepaid_balance" validate:"min=0"`
	Notes          string  `json:"notes"`
	// Password creates a portal login for the customer when set.
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}
