package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
	CompanyStatusInactive  CompanyStatus = "inactive"
)

// Company is a waste collection company (tenant).
type Company struct {
	ID                     string          `json:"id" db:"id"`
	Name                   string          `json:"name" db:"name"`
	RegistrationNumber     *string         `json:"registration_number,omitempty" db:"registration_number"`
	Email                  string          `json:"email" db:"email"`
	Phone                  *string         `json:"phone,omitempty" db:"phone"`
	Status                 CompanyStatus   `json:"status" db:"status"`
	IsVerified             bool            `json:"is_verified" db:"is_verified"`
	LicenseStartDate       *time.Time      `json:"license_start_date,omitempty" db:"license_start_date"`
	LicenseEndDate         *time.Time      `json:"license_end_date,omitempty" db:"license_end_date"`
	MaxCustomers           int             `json:"max_customers" db:"max_customers"`
	MaxCollectors          int             `json:"max_collectors" db:"max_collectors"`
	PrepaidCollectionPrice decimal.Decimal `json:"prepaid_collection_price" db:"prepaid_collection_price"`
	CreatedByUserID        *string         `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt              int64           `json:"created_at" db:"created_at"`
	UpdatedAt              int64           `json:"updated_at" db:"updated_at"`

	// Populated by queries that join counts.
	CustomerCount  int `json:"customer_count" db:"customer_count"`
	CollectorCount int `json:"collector_count" db:"collector_count"`
}

// IsLicenseValid is true when no end date is set or it has not passed yet.
func (c *Company) IsLicenseValid(now time.Time) bool {
	if c.LicenseEndDate == nil {
		return true
	}
	return !c.LicenseEndDate.Before(dateOf(now))
}

func (c *Company) IsActive(now time.Time) bool {
	return c.Status == CompanyStatusActive && c.IsLicenseValid(now)
}

func (c *Company) CanAddCustomer() bool {
	return c.CustomerCount < c.MaxCustomers
}

func (c *Company) CanAddCollector() bool {
	return c.CollectorCount < c.MaxCollectors
}

type CreateCompanyRequest struct {
	Name                   string           `json:"name" validate:"required,max=255"`
	RegistrationNumber     *string          `json:"registration_number,omitempty" validate:"omitempty,max=100"`
	Email                  string           `json:"email" validate:"required,email"`
	Phone                  *string          `json:"phone,omitempty" validate:"omitempty,e164"`
	LicenseStartDate       *string          `json:"license_start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LicenseEndDate         *string          `json:"license_end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxCustomers           *int             `json:"max_customers,omitempty" validate:"omitempty,min=1"`
	MaxCollectors          *int             `json:"max_collectors,omitempty" validate:"omitempty,min=1"`
	PrepaidCollectionPrice *decimal.Decimal `json:"prepaid_collection_price,omitempty"`

	// Optional first company administrator.
	Admin *CompanyAdminRequest `json:"admin,omitempty"`
}

type CompanyAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// dateOf truncates t to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf is the exported form of dateOf for other packages.
func DateOf(t time.Time) time.Time { return dateOf(t) }
