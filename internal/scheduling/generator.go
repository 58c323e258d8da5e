// Package scheduling turns a route's recurrence rule into dated schedules.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"
	"isuku-backend/internal/platform/obs"

	"github.com/google/uuid"
)

// Store is the persistence the generator needs. InsertSchedule must return an
// error matching apperr.ErrConflict when (route, date) already exists.
type Store interface {
	ScheduleExists(ctx context.Context, routeID string, date time.Time) (bool, error)
	InsertSchedule(ctx context.Context, s *models.Schedule) error
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Days implied by a frequency when the route lists none.
var frequencyDefaultDays = map[models.Frequency][]time.Weekday{
	models.FrequencyDaily:       {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	models.FrequencyWeekly:      {time.Monday},
	models.FrequencyTwiceWeekly: {time.Monday, time.Thursday},
	models.FrequencyBiweekly:    {time.Monday},
	models.FrequencyMonthly:     {time.Monday},
}

// CollectionWeekdays resolves the weekdays a route collects on. Unknown day
// names are dropped; when none are left the frequency's default days apply.
// An empty result means the route never runs.
func CollectionWeekdays(route *models.Route) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, name := range route.CollectionDays {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
			days[wd] = true
		}
	}
	if len(days) > 0 {
		return days
	}
	for _, wd := range frequencyDefaultDays[route.Frequency] {
		days[wd] = true
	}
	return days
}

// Eligible reports whether date passes the frequency's secondary filter.
func Eligible(freq models.Frequency, date time.Time) bool {
	switch freq {
	case models.FrequencyBiweekly:
		_, week := date.ISOWeek()
		return week%2 == 0
	case models.FrequencyMonthly:
		return date.Day() <= 7
	}
	return true
}

// CandidateDates lists the dates in [start, end] a route should collect on,
// in ascending order. start after end yields nothing.
func CandidateDates(route *models.Route, start, end time.Time) []time.Time {
	days := CollectionWeekdays(route)
	if len(days) == 0 {
		return nil
	}

	var dates []time.Time
	last := models.DateOf(end)
	for d := models.DateOf(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		if !days[d.Weekday()] {
			continue
		}
		if !Eligible(route.Frequency, d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// Request describes one generation run for a single route.
type Request struct {
	Route *models.Route
	Start time.Time
	End   time.Time
	// CustomersScheduled overrides the route's active customer count.
	CustomersScheduled *int
	Actor              models.Actor
}

type Generator struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewGenerator(store Store) *Generator {
	return &Generator{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Generate creates the missing schedules for req.Route and returns only the
// ones it created, in ascending date order. Dates that already have a
// schedule, including ones inserted concurrently, are skipped.
func (g *Generator) Generate(ctx context.Context, req Request) (created []models.Schedule, err error) {
	defer obs.Time(ctx, "scheduling.generate")(&err)

	if req.Route == nil {
		return nil, apperr.Validation("route_required", "A route is required")
	}
	route := req.Route

	if route.Frequency == "" && len(route.CollectionDays) == 0 {
		log.Printf("⚠️  Route %s (%s) has no frequency and no collection days, nothing to generate", route.Code, route.ID)
		return []models.Schedule{}, nil
	}

	window := route.TimeWindow()
	customers := route.CustomersCount
	if req.CustomersScheduled != nil {
		customers = *req.CustomersScheduled
	}

	created = []models.Schedule{}
	for _, date := range CandidateDates(route, req.Start, req.End) {
		exists, err := g.store.ScheduleExists(ctx, route.ID, date)
		if err != nil {
			return created, fmt.Errorf("check schedule %s on %s: %w", route.ID, date.Format(models.DateLayout), err)
		}
		if exists {
			continue
		}

		now := g.now().Unix()
		start, end := window.Start, window.End
		s := models.Schedule{
			ID:                 g.newID(),
			RouteID:            route.ID,
			CollectorID:        route.DefaultCollectorID,
			ScheduledDate:      date,
			ScheduledTimeStart: &start,
			ScheduledTimeEnd:   &end,
			WasteType:          models.WasteTypeMixed,
			Status:             models.ScheduleStatusScheduled,
			CustomersScheduled: customers,
			CreatedByUserID:    req.Actor.UserRef(),
			CreatedAt:          now,
			UpdatedAt:          now,
			CompanyID:          route.CompanyID,
			RouteName:          route.Name,
		}

		if err := g.store.InsertSchedule(ctx, &s); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				log.Printf("   ↪️  Schedule for route %s on %s already exists, skipping", route.ID, s.Date())
				continue
			}
			return created, fmt.Errorf("insert schedule %s on %s: %w", route.ID, s.Date(), err)
		}
		created = append(created, s)
	}

	log.Printf("📅 Generated %d schedules for route %s (%s to %s)",
		len(created), route.Code, req.Start.Format(models.DateLayout), req.End.Format(models.DateLayout))
	return created, nil
}

// RouteResult is the outcome of one route inside a batch.
type RouteResult struct {
	RouteID   string            `json:"route_id"`
	RouteCode string            `json:"route_code"`
	Created   int               `json:"created"`
	Schedules []models.Schedule `json:"-"`
	Error     string            `json:"error,omitempty"`
}

// BatchResult summarises a multi-route run.
type BatchResult struct {
	Routes       []RouteResult `json:"routes"`
	TotalCreated int           `json:"total_created"`
	Failed       int           `json:"failed"`
}

// GenerateBatch runs Generate for every route over the same range. A failing
// route is recorded and the batch moves on to the next one.
func (g *Generator) GenerateBatch(ctx context.Context, routes []models.Route, start, end time.Time, actor models.Actor) BatchResult {
	result := BatchResult{Routes: make([]RouteResult, 0, len(routes))}

	for i := range routes {
		route := &routes[i]
		rr := RouteResult{RouteID: route.ID, RouteCode: route.Code}

		schedules, err := g.Generate(ctx, Request{Route: route, Start: start, End: end, Actor: actor})
		rr.Schedules = schedules
		rr.Created = len(schedules)
		result.TotalCreated += len(schedules)
		if err != nil {
			log.Printf("❌ Schedule generation failed for route %s: %v", route.Code, err)
			rr.Error = err.Error()
			result.Failed++
		}
		result.Routes = append(result.Routes, rr)

		if ctx.Err() != nil {
			break
		}
	}
	return result
}
