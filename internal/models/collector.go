package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CollectorStatus string

const (
	CollectorStatusActive    CollectorStatus = "active"
	CollectorStatusOnLeave   CollectorStatus = "on_leave"
	CollectorStatusInactive  CollectorStatus = "inactive"
	CollectorStatusSuspended CollectorStatus = "suspended"
)

// Collector is a field worker who performs collections.
type Collector struct {
	ID               string          `json:"id" db:"id"`
	CompanyID        *string         `json:"company_id,omitempty" db:"company_id"`
	UserID           *string         `json:"user_id,omitempty" db:"user_id"`
	EmployeeID       string          `json:"employee_id" db:"employee_id"`
	FirstName        string          `json:"first_name" db:"first_name"`
	LastName         string          `json:"last_name" db:"last_name"`
	Email            string          `json:"email" db:"email"`
	Phone            string          `json:"phone" db:"phone"`
	NationalID       string          `json:"national_id" db:"national_id"`
	EmploymentType   string          `json:"employment_type" db:"employment_type"`
	HireDate         *time.Time      `json:"hire_date,omitempty" db:"hire_date"`
	TerminationDate  *time.Time      `json:"termination_date,omitempty" db:"termination_date"`
	DeviceID         string          `json:"device_id" db:"device_id"`
	NFCReaderID      string          `json:"nfc_reader_id" db:"nfc_reader_id"`
	Status           CollectorStatus `json:"status" db:"status"`
	Rating           decimal.Decimal `json:"rating" db:"rating"`
	TotalCollections int             `json:"total_collections" db:"total_collections"`
	Notes            string          `json:"notes" db:"notes"`
	CreatedByUserID  *string         `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt        int64           `json:"created_at" db:"created_at"`
	UpdatedAt        int64           `json:"updated_at" db:"updated_at"`

	AssignedRoutesCount int `json:"-" db:"assigned_routes_count"`
}

func (c *Collector) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// IsAvailable reports whether the collector can take assignments.
func (c *Collector) IsAvailable() bool {
	return c.Status == CollectorStatusActive
}

type CollectorListItem struct {
	ID                  string          `json:"id"`
	EmployeeID          string          `json:"employee_id"`
	FullName            string          `json:"full_name"`
	Phone               string          `json:"phone"`
	Status              CollectorStatus `json:"status"`
	Rating              decimal.Decimal `json:"rating"`
	TotalCollections    int             `json:"total_collections"`
	AssignedRoutesCount int             `json:"assigned_routes_count"`
}

type CollectorDetail struct {
	Collector
	FullName            string   `json:"full_name"`
	IsAvailable         bool     `json:"is_available"`
	AssignedRoutesCount int      `json:"assigned_routes_count"`
	ServiceAreaIDs      []string `json:"service_area_ids"`
}

func (c *Collector) Present(shape Shape) interface{} {
	if shape == ShapeList {
		return CollectorListItem{
			ID:                  c.ID,
			EmployeeID:          c.EmployeeID,
			FullName:            c.FullName(),
			Phone:               c.Phone,
			Status:              c.Status,
			Rating:              c.Rating,
			TotalCollections:    c.TotalCollections,
			AssignedRoutesCount: c.AssignedRoutesCount,
		}
	}
	return CollectorDetail{
		Collector:           *c,
		FullName:            c.FullName(),
		IsAvailable:         c.IsAvailable(),
		AssignedRoutesCount: c.AssignedRoutesCount,
	}
}

// CollectorPerformance summarises a collector's schedule history.
type CollectorPerformance struct {
	TotalCollections     int             `json:"total_collections"`
	TotalSchedules       int             `json:"total_schedules" db:"total_schedules"`
	CompletedSchedules   int             `json:"completed_schedules" db:"completed_schedules"`
	MissedSchedules      int             `json:"missed_schedules" db:"missed_schedules"`
	CompletionRate       float64         `json:"completion_rate"`
	Rating               decimal.Decimal `json:"rating"`
	CollectionsThisMonth int             `json:"collections_this_month" db:"collections_this_month"`
}

// ComputeCompletionRate sets CompletionRate as a percentage rounded to two places.
func (p *CollectorPerformance) ComputeCompletionRate() {
	if p.TotalSchedules == 0 {
		p.CompletionRate = 0
		return
	}
	rate := decimal.NewFromInt(int64(p.CompletedSchedules)).
		Div(decimal.NewFromInt(int64(p.TotalSchedules))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	p.CompletionRate = rate.InexactFloat64()
}

type CreateCollectorRequest struct {
	UserID         *string  `json:"user_id,omitempty" validate:"omitempty,uuid"`
	EmployeeID     string   `json:"employee_id" validate:"required,max=50"`
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone" validate:"required,phone"`
	NationalID     string   `json:"national_id" validate:"max=50"`
	EmploymentType string   `json:"employment_type" validate:"omitempty,oneof=full_time part_time contractor temporary"`
	HireDate       *string  `json:"hire_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ServiceAreaIDs []string `json:"service_area_ids" validate:"dive,uuid"`
	DeviceID       string   `json:"device_id"`
	NFCReaderID    string   `json:"nfc_reader_id"`
	Notes          string   `json:"notes"`
	// Password creates a collector app login for Email when set.
	Password string `json:"password,omitempty" validate:"omitempty,min=6,required_with=Email"`
}
