package models

import (
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Frequency is a route's collection cadence.
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyTwiceWeekly Frequency = "twice_weekly"
	FrequencyBiweekly    Frequency = "biweekly"
	FrequencyMonthly     Frequency = "monthly"
)

var frequencyLabels = map[Frequency]string{
	FrequencyDaily:       "Daily",
	FrequencyWeekly:      "Weekly",
	FrequencyTwiceWeekly: "Twice Weekly",
	FrequencyBiweekly:    "Biweekly",
	FrequencyMonthly:     "Monthly",
}

func (f Frequency) Valid() bool {
	_, ok := frequencyLabels[f]
	return ok
}

func (f Frequency) Label() string {
	return frequencyLabels[f]
}

type RouteStatus string

const (
	RouteStatusActive   RouteStatus = "active"
	RouteStatusInactive RouteStatus = "inactive"
	RouteStatusArchived RouteStatus = "archived"
)

// TimeWindow is a daily collection window in "HH:MM" form.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DefaultTimeWindow applies when a route has no window configured.
var DefaultTimeWindow = TimeWindow{Start: "06:00", End: "12:00"}

// Route is a recurring collection path inside a service area.
type Route struct {
	ID                       string          `json:"id" db:"id"`
	ServiceAreaID            string          `json:"service_area_id" db:"service_area_id"`
	Name                     string          `json:"name" db:"name"`
	Code                     string          `json:"code" db:"code"`
	Description              string          `json:"description" db:"description"`
	SequenceNumber           int             `json:"sequence_number" db:"sequence_number"`
	EstimatedDistanceKm      decimal.Decimal `json:"estimated_distance_km" db:"estimated_distance_km"`
	EstimatedDurationMinutes int             `json:"estimated_duration_minutes" db:"estimated_duration_minutes"`
	Frequency                Frequency       `json:"frequency" db:"frequency"`
	CollectionDays           pq.StringArray  `json:"collection_days" db:"collection_days"`
	CollectionTimeStart      *string         `json:"collection_time_start,omitempty" db:"collection_time_start"`
	CollectionTimeEnd        *string         `json:"collection_time_end,omitempty" db:"collection_time_end"`
	DefaultCollectorID       *string         `json:"default_collector_id,omitempty" db:"default_collector_id"`
	Status                   RouteStatus     `json:"status" db:"status"`
	Notes                    string          `json:"notes" db:"notes"`
	ArchivedAt               *int64          `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByUserID          *string         `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt                int64           `json:"created_at" db:"created_at"`
	UpdatedAt                int64           `json:"updated_at" db:"updated_at"`

	// Joined columns
	CompanyID       *string `json:"-" db:"company_id"`
	ServiceAreaName string  `json:"-" db:"service_area_name"`
	CustomersCount  int     `json:"-" db:"customers_count"`
}

// TimeWindow returns the route's collection window, falling back field by
// field to DefaultTimeWindow.
func (r *Route) TimeWindow() TimeWindow {
	w := DefaultTimeWindow
	if r.CollectionTimeStart != nil && *r.CollectionTimeStart != "" {
		w.Start = *r.CollectionTimeStart
	}
	if r.CollectionTimeEnd != nil && *r.CollectionTimeEnd != "" {
		w.End = *r.CollectionTimeEnd
	}
	return w
}

// ScheduleDisplay renders the cadence for humans, e.g. "Weekly on Monday, Thursday".
func (r *Route) ScheduleDisplay() string {
	label := r.Frequency.Label()
	if len(r.CollectionDays) == 0 {
		return label
	}
	days := strings.Join(r.CollectionDays, ", ")
	if label == "" {
		return days
	}
	return label + " on " + days
}

type RouteListItem struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Code               string      `json:"code"`
	ServiceAreaID      string      `json:"service_area_id"`
	ServiceAreaName    string      `json:"service_area_name"`
	SequenceNumber     int         `json:"sequence_number"`
	Frequency          Frequency   `json:"frequency"`
	ScheduleDisplay    string      `json:"collection_schedule_display"`
	DefaultCollectorID *string     `json:"default_collector_id,omitempty"`
	Status             RouteStatus `json:"status"`
}

type RouteDetail struct {
	Route
	ServiceAreaName string     `json:"service_area_name"`
	ScheduleDisplay string     `json:"collection_schedule_display"`
	TimeWindow      TimeWindow `json:"time_window"`
	CustomersCount  int        `json:"customers_count"`
}

func (r *Route) Present(shape Shape) interface{} {
	if shape == ShapeList {
		return RouteListItem{
			ID:                 r.ID,
			Name:               r.Name,
			Code:               r.Code,
			ServiceAreaID:      r.ServiceAreaID,
			ServiceAreaName:    r.ServiceAreaName,
			SequenceNumber:     r.SequenceNumber,
			Frequency:          r.Frequency,
			ScheduleDisplay:    r.ScheduleDisplay(),
			DefaultCollectorID: r.DefaultCollectorID,
			Status:             r.Status,
		}
	}
	return RouteDetail{
		Route:           *r,
		ServiceAreaName: r.ServiceAreaName,
		ScheduleDisplay: r.ScheduleDisplay(),
		TimeWindow:      r.TimeWindow(),
		CustomersCount:  r.CustomersCount,
	}
}

// CreateRouteRequest is the request body for POST /api/routes
type CreateRouteRequest struct {
	ServiceAreaID            string           `json:"service_area_id" validate:"required,uuid"`
	Name                     string           `json:"name" validate:"required,max=255"`
	Code                     string           `json:"code" validate:"required,max=50"`
	Description              string           `json:"description"`
	SequenceNumber           int              `json:"sequence_number" validate:"min=1"`
	EstimatedDistanceKm      *decimal.Decimal `json:"estimated_distance_km,omitempty"`
	EstimatedDurationMinutes int              `json:"estimated_duration_minutes" validate:"min=0"`
	Frequency                string           `json:"frequency" validate:"omitempty,oneof=daily weekly twice_weekly biweekly monthly"`
	CollectionDays           []string         `json:"collection_days"`
	CollectionTimeStart      *string          `json:"collection_time_start,omitempty" validate:"omitempty,clock"`
	CollectionTimeEnd        *string          `json:"collection_time_end,omitempty" validate:"omitempty,clock"`
	DefaultCollectorID       *string          `json:"default_collector_id,omitempty" validate:"omitempty,uuid"`
	Notes                    string           `json:"notes"`
}

// UpdateRouteRequest is the request body for PATCH /api/routes/{id}
type UpdateRouteRequest struct {
	Name                     *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description              *string          `json:"description,omitempty"`
	SequenceNumber           *int             `json:"sequence_number,omitempty" validate:"omitempty,min=1"`
	EstimatedDistanceKm      *decimal.Decimal `json:"estimated_distance_km,omitempty"`
	EstimatedDurationMinutes *int             `json:"estimated_duration_minutes,omitempty" validate:"omitempty,min=0"`
	Frequency                *string          `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly twice_weekly biweekly monthly"`
	CollectionDays           []string         `json:"collection_days,omitempty"`
	CollectionTimeStart      *string          `json:"collection_time_start,omitempty" validate:"omitempty,clock"`
	CollectionTimeEnd        *string          `json:"collection_time_end,omitempty" validate:"omitempty,clock"`
	Status                   *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Notes                    *string          `json:"notes,omitempty"`
}

// GenerateScheduleRequest is the request body for POST /api/routes/{id}/generate-schedule
type GenerateScheduleRequest struct {
	StartDate          string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate            string `json:"end_date" validate:"required,datetime=2006-01-02"`
	CustomersScheduled *int   `json:"customers_scheduled,omitempty" validate:"omitempty,min=0"`
}

type AssignCollectorRequest struct {
	CollectorID string `json:"collector_id" validate:"required,uuid"`
}
