package models

import "strings"

type ServiceAreaStatus string

const (
	ServiceAreaStatusActive   ServiceAreaStatus = "active"
	ServiceAreaStatusInactive ServiceAreaStatus = "inactive"
	ServiceAreaStatusPlanned  ServiceAreaStatus = "planned"
)

// ServiceArea is a geographic zone (cell, village, sector) that routes run in.
type ServiceArea struct {
	ID                  string            `json:"id" db:"id"`
	CompanyID           *string           `json:"company_id,omitempty" db:"company_id"`
	Name                string            `json:"name" db:"name"`
	Code                string            `json:"code" db:"code"`
	Description         string            `json:"description" db:"description"`
	Province            string            `json:"province" db:"province"`
	District            string            `json:"district" db:"district"`
	Sector              string            `json:"sector" db:"sector"`
	Cell                string            `json:"cell" db:"cell"`
	Village             string            `json:"village" db:"village"`
	Latitude            *float64          `json:"latitude,omitempty" db:"latitude"`
	Longitude           *float64          `json:"longitude,omitempty" db:"longitude"`
	Status              ServiceAreaStatus `json:"status" db:"status"`
	EstimatedHouseholds int               `json:"estimated_households" db:"estimated_households"`
	EstimatedCustomers  int               `json:"estimated_customers" db:"estimated_customers"`
	CreatedByUserID     *string           `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt           int64             `json:"created_at" db:"created_at"`
	UpdatedAt           int64             `json:"updated_at" db:"updated_at"`

	ActiveRoutesCount       int `json:"-" db:"active_routes_count"`
	AssignedCollectorsCount int `json:"-" db:"assigned_collectors_count"`
}

// FullAddress joins the non-empty parts of the hierarchy from village up.
func (a *ServiceArea) FullAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Village, a.Cell, a.Sector, a.District, a.Province} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type ServiceAreaListItem struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Code               string            `json:"code"`
	District           string            `json:"district"`
	Sector             string            `json:"sector"`
	Status             ServiceAreaStatus `json:"status"`
	EstimatedCustomers int               `json:"estimated_customers"`
	ActiveRoutesCount  int               `json:"active_routes_count"`
}

type ServiceAreaDetail struct {
	ServiceArea
	FullAddress             string `json:"full_address"`
	ActiveRoutesCount       int    `json:"active_routes_count"`
	AssignedCollectorsCount int    `json:"assigned_collectors_count"`
}

func (a *ServiceArea) Present(shape Shape) interface{} {
	if shape == ShapeList {
		return ServiceAreaListItem{
			ID:                 a.ID,
			Name:               a.Name,
			Code:               a.Code,
			District:           a.District,
			Sector:             a.Sector,
			Status:             a.Status,
			EstimatedCustomers: a.EstimatedCustomers,
			ActiveRoutesCount:  a.ActiveRoutesCount,
		}
	}
	return ServiceAreaDetail{
		ServiceArea:             *a,
		FullAddress:             a.FullAddress(),
		ActiveRoutesCount:       a.ActiveRoutesCount,
		AssignedCollectorsCount: a.AssignedCollectorsCount,
	}
}

// ServiceAreaStats aggregates a tenant's service areas.
type ServiceAreaStats struct {
	TotalAreas      int `json:"total_areas" db:"total_areas"`
	ActiveAreas     int `json:"active_areas" db:"active_areas"`
	InactiveAreas   int `json:"inactive_areas" db:"inactive_areas"`
	PlannedAreas    int `json:"planned_areas" db:"planned_areas"`
	TotalHouseholds int `json:"total_households" db:"total_households"`
	TotalCustomers  int `json:"total_customers" db:"total_customers"`
	TotalRoutes     int `json:"total_routes" db:"total_routes"`
	TotalCollectors int `json:"total_collectors" db:"total_collectors"`
}

type CreateServiceAreaRequest struct {
	Name                string   `json:"name" validate:"required,max=255"`
	Code                string   `json:"code" validate:"required,max=50"`
	Description         string   `json:"description"`
	Province            string   `json:"province" validate:"max=100"`
	District            string   `json:"district" validate:"max=100"`
	Sector              string   `json:"sector" validate:"max=100"`
	Cell                string   `json:"cell" validate:"max=100"`
	Village             string   `json:"village" validate:"max=100"`
	Latitude            *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude           *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Status              string   `json:"status" validate:"omitempty,oneof=active inactive planned"`
	EstimatedHouseholds int      `json:"estimated_households" validate:"min=0"`
	EstimatedCustomers  int      `json:"estimated_customers" validate:"min=0"`
}
