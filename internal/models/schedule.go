package models

import (
	"fmt"
	"time"

	"isuku-backend/internal/apperr"
)

// ScheduleStatus is the lifecycle state of a dated collection.
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
	ScheduleStatusMissed     ScheduleStatus = "missed"
)

// scheduleTransitions lists the states reachable from each non-terminal state.
var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleStatusScheduled:  {ScheduleStatusInProgress, ScheduleStatusCancelled, ScheduleStatusMissed},
	ScheduleStatusInProgress: {ScheduleStatusCompleted, ScheduleStatusCancelled, ScheduleStatusMissed},
}

// IsTerminal reports whether no further transitions are allowed.
func (s ScheduleStatus) IsTerminal() bool {
	_, ok := scheduleTransitions[s]
	return !ok
}

// CanTransitionTo reports whether s -> next is a legal lifecycle step.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	for _, allowed := range scheduleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type WasteType string

const (
	WasteTypeBiodegradable    WasteType = "biodegradable"
	WasteTypeNonBiodegradable WasteType = "non_biodegradable"
	WasteTypeMixed            WasteType = "mixed"
)

// Schedule is one concrete dated collection for a route. At most one exists
// per (route, scheduled_date).
type Schedule struct {
	ID                 string         `json:"id" db:"id"`
	RouteID            string         `json:"route_id" db:"route_id"`
	CollectorID        *string        `json:"collector_id,omitempty" db:"collector_id"`
	ScheduledDate      time.Time      `json:"-" db:"scheduled_date"`
	ScheduledTimeStart *string        `json:"scheduled_time_start,omitempty" db:"scheduled_time_start"`
	ScheduledTimeEnd   *string        `json:"scheduled_time_end,omitempty" db:"scheduled_time_end"`
	WasteType          WasteType      `json:"waste_type" db:"waste_type"`
	Status             ScheduleStatus `json:"status" db:"status"`
	CustomersScheduled int            `json:"customers_scheduled" db:"customers_scheduled"`
	CustomersCollected int            `json:"customers_collected" db:"customers_collected"`
	CustomersMissed    int            `json:"customers_missed" db:"customers_missed"`
	ActualStartTime    *int64         `json:"actual_start_time,omitempty" db:"actual_start_time"`
	ActualEndTime      *int64         `json:"actual_end_time,omitempty" db:"actual_end_time"`
	Notes              string         `json:"notes" db:"notes"`
	CancellationReason string         `json:"cancellation_reason" db:"cancellation_reason"`
	CreatedByUserID    *string        `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedAt          int64          `json:"created_at" db:"created_at"`
	UpdatedAt          int64          `json:"updated_at" db:"updated_at"`

	// Joined columns
	CompanyID     *string `json:"-" db:"company_id"`
	RouteName     string  `json:"-" db:"route_name"`
	CollectorName *string `json:"-" db:"collector_name"`
}

// Date returns ScheduledDate in the wire format.
func (s *Schedule) Date() string {
	return s.ScheduledDate.Format(DateLayout)
}

// CollectionRate is the percentage of scheduled customers actually collected.
func (s *Schedule) CollectionRate() float64 {
	if s.CustomersScheduled <= 0 {
		return 0
	}
	return float64(s.CustomersCollected) / float64(s.CustomersScheduled) * 100
}

// DurationMinutes is nil until both actual timestamps are recorded.
func (s *Schedule) DurationMinutes() *float64 {
	if s.ActualStartTime == nil || s.ActualEndTime == nil {
		return nil
	}
	d := float64(*s.ActualEndTime-*s.ActualStartTime) / 60
	return &d
}

func (s *Schedule) IsToday(now time.Time) bool {
	return DateOf(s.ScheduledDate).Equal(DateOf(now))
}

// IsOverdue is true for schedules still waiting after their date has passed.
func (s *Schedule) IsOverdue(now time.Time) bool {
	return s.Status == ScheduleStatusScheduled && DateOf(s.ScheduledDate).Before(DateOf(now))
}

type ScheduleListItem struct {
	ID                 string         `json:"id"`
	RouteID            string         `json:"route_id"`
	RouteName          string         `json:"route_name"`
	CollectorID        *string        `json:"collector_id,omitempty"`
	CollectorName      *string        `json:"collector_name,omitempty"`
	ScheduledDate      string         `json:"scheduled_date"`
	ScheduledTimeStart *string        `json:"scheduled_time_start,omitempty"`
	ScheduledTimeEnd   *string        `json:"scheduled_time_end,omitempty"`
	WasteType          WasteType      `json:"waste_type"`
	Status             ScheduleStatus `json:"status"`
	CustomersScheduled int            `json:"customers_scheduled"`
}

type ScheduleDetail struct {
	Schedule
	ScheduledDate   string   `json:"scheduled_date"`
	RouteName       string   `json:"route_name"`
	CollectorName   *string  `json:"collector_name,omitempty"`
	CollectionRate  float64  `json:"collection_rate"`
	DurationMinutes *float64 `json:"duration_minutes"`
	IsToday         bool     `json:"is_today"`
	IsOverdue       bool     `json:"is_overdue"`
}

// Present renders the schedule in the requested shape. now feeds the
// date-relative flags of the detail shape.
func (s *Schedule) Present(shape Shape, now time.Time) interface{} {
	if shape == ShapeList {
		return ScheduleListItem{
			ID:                 s.ID,
			RouteID:            s.RouteID,
			RouteName:          s.RouteName,
			CollectorID:        s.CollectorID,
			CollectorName:      s.CollectorName,
			ScheduledDate:      s.Date(),
			ScheduledTimeStart: s.ScheduledTimeStart,
			ScheduledTimeEnd:   s.ScheduledTimeEnd,
			WasteType:          s.WasteType,
			Status:             s.Status,
			CustomersScheduled: s.CustomersScheduled,
		}
	}
	return ScheduleDetail{
		Schedule:        *s,
		ScheduledDate:   s.Date(),
		RouteName:       s.RouteName,
		CollectorName:   s.CollectorName,
		CollectionRate:  s.CollectionRate(),
		DurationMinutes: s.DurationMinutes(),
		IsToday:         s.IsToday(now),
		IsOverdue:       s.IsOverdue(now),
	}
}

// PresentSchedules maps a slice through Present.
func PresentSchedules(schedules []Schedule, shape Shape, now time.Time) []interface{} {
	out := make([]interface{}, len(schedules))
	for i := range schedules {
		out[i] = schedules[i].Present(shape, now)
	}
	return out
}

// ScheduleAction names a lifecycle operation on a schedule.
type ScheduleAction string

const (
	ActionStart      ScheduleAction = "start"
	ActionComplete   ScheduleAction = "complete"
	ActionCancel     ScheduleAction = "cancel"
	ActionMarkMissed ScheduleAction = "mark_missed"
)

var actionTargets = map[ScheduleAction]ScheduleStatus{
	ActionStart:      ScheduleStatusInProgress,
	ActionComplete:   ScheduleStatusCompleted,
	ActionCancel:     ScheduleStatusCancelled,
	ActionMarkMissed: ScheduleStatusMissed,
}

// ErrInvalidTransition is returned when an action does not apply to the
// schedule's current status.
var ErrInvalidTransition = apperr.Conflict("invalid_transition", "Schedule cannot change to that status")

// ScheduleChange is one lifecycle action with its optional payload.
type ScheduleChange struct {
	Action             ScheduleAction
	CustomersCollected *int
	CustomersMissed    *int
	Reason             string
}

// Apply moves s through change at now. On success it returns how many
// collected customers should be credited to the assigned collector.
func (s *Schedule) Apply(change ScheduleChange, now time.Time) (credited int, err error) {
	target, ok := actionTargets[change.Action]
	if !ok {
		return 0, apperr.Validation("unknown_action", fmt.Sprintf("Unknown schedule action %q", change.Action))
	}
	if !s.Status.CanTransitionTo(target) {
		return 0, ErrInvalidTransition.Wrap(fmt.Errorf("%s -> %s", s.Status, target))
	}

	ts := now.Unix()
	switch change.Action {
	case ActionStart:
		s.ActualStartTime = &ts
	case ActionComplete:
		s.ActualEndTime = &ts
		if change.CustomersCollected != nil {
			s.CustomersCollected = *change.CustomersCollected
		}
		if change.CustomersMissed != nil {
			s.CustomersMissed = *change.CustomersMissed
		}
		if s.CollectorID != nil {
			credited = s.CustomersCollected
		}
	case ActionCancel:
		s.CancellationReason = change.Reason
	}

	s.Status = target
	s.UpdatedAt = ts
	return credited, nil
}

type CreateScheduleRequest struct {
	RouteID            string  `json:"route_id" validate:"required,uuid"`
	CollectorID        *string `json:"collector_id,omitempty" validate:"omitempty,uuid"`
	ScheduledDate      string  `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTimeStart *string `json:"scheduled_time_start,omitempty" validate:"omitempty,clock"`
	ScheduledTimeEnd   *string `json:"scheduled_time_end,omitempty" validate:"omitempty,clock"`
	WasteType          string  `json:"waste_type" validate:"omitempty,oneof=biodegradable non_biodegradable mixed"`
	CustomersScheduled int     `json:"customers_scheduled" validate:"min=0"`
	Notes              string  `json:"notes"`
}

type CompleteScheduleRequest struct {
	CustomersCollected *int `json:"customers_collected,omitempty" validate:"omitempty,min=0"`
	CustomersMissed    *int `json:"customers_missed,omitempty" validate:"omitempty,min=0"`
}

type CancelScheduleRequest struct {
	Reason string `json:"reason"`
}

// ScheduleFilter narrows schedule list queries. Zero values mean "any".
type ScheduleFilter struct {
	CompanyID   *string
	Status      ScheduleStatus
	RouteID     string
	CollectorID string
	From        *time.Time
	To          *time.Time
	Ascending   bool
	Limit       int
}
