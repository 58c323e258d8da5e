package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/internal/services"
	"isuku-backend/internal/websocket"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errScheduleExists = apperr.Conflict("schedule_exists", "A schedule already exists for this route on that date")

// ScheduleStore is the schedule persistence the lifecycle and view handlers use.
type ScheduleStore interface {
	GetSchedule(ctx context.Context, id string, companyID *string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, f models.ScheduleFilter) ([]models.Schedule, error)
	TransitionSchedule(ctx context.Context, id string, companyID *string, change models.ScheduleChange) (*models.Schedule, error)
	AuditRecorder
}

// ListSchedules supports status, route, collector, date_from and date_to
// filters.
func ListSchedules(store ScheduleStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		q := r.URL.Query()
		f := models.ScheduleFilter{
			CompanyID:   companyID,
			Status:      models.ScheduleStatus(q.Get("status")),
			RouteID:     q.Get("route"),
			CollectorID: q.Get("collector"),
		}
		if f.From, err = optionalDate(r, "date_from"); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if f.To, err = optionalDate(r, "date_to"); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if d, err := optionalDate(r, "date"); err != nil {
			utils.RespondAppError(w, err)
			return
		} else if d != nil {
			f.From, f.To = d, d
		}

		schedules, err := store.ListSchedules(r.Context(), f)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, time.Now()))
	}
}

func GetSchedule(store ScheduleStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		s, err := store.GetSchedule(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, s.Present(models.ShapeDetail, time.Now()))
	}
}

// CreateSchedule adds a one-off schedule. Unlike generation, a duplicate
// (route, date) is reported to the caller.
func CreateSchedule(store *database.Store, hub *websocket.Hub, notifier *services.ScheduleNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateScheduleRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		date, err := parseDate("scheduled_date", req.ScheduledDate)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		ctx := r.Context()

		route, err := store.GetRoute(ctx, req.RouteID, companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		collectorID := route.DefaultCollectorID
		if req.CollectorID != nil {
			if err := checkCollector(r, store, *req.CollectorID, route.CompanyID); err != nil {
				utils.RespondAppError(w, err)
				return
			}
			collectorID = req.CollectorID
		}

		window := route.TimeWindow()
		if req.ScheduledTimeStart != nil {
			window.Start = *req.ScheduledTimeStart
		}
		if req.ScheduledTimeEnd != nil {
			window.End = *req.ScheduledTimeEnd
		}
		wasteType := models.WasteTypeMixed
		if req.WasteType != "" {
			wasteType = models.WasteType(req.WasteType)
		}

		now := time.Now().Unix()
		s := &models.Schedule{
			ID:                 uuid.New().String(),
			RouteID:            route.ID,
			CollectorID:        collectorID,
			ScheduledDate:      date,
			ScheduledTimeStart: &window.Start,
			ScheduledTimeEnd:   &window.End,
			WasteType:          wasteType,
			Status:             models.ScheduleStatusScheduled,
			CustomersScheduled: req.CustomersScheduled,
			Notes:              req.Notes,
			CreatedByUserID:    actor.UserRef(),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := store.InsertSchedule(ctx, s); err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				err = errScheduleExists.Wrap(err)
			}
			utils.RespondAppError(w, err)
			return
		}

		created, err := store.GetSchedule(ctx, s.ID, companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		hub.ScheduleChanged("schedule.created", created)
		notifier.SchedulesAssigned(ctx, []models.Schedule{*created})
		audit(r, store, actor.UserRef(), "create", "schedule", &s.ID)
		log.Printf("✅ Schedule created for route %s on %s", route.Code, created.Date())
		respondCreated(w, created.Present(models.ShapeDetail, time.Now()))
	}
}

// TodaySchedules lists every schedule dated today.
func TodaySchedules(store ScheduleStore) http.HandlerFunc {
	return scheduleView(store, func(today time.Time) models.ScheduleFilter {
		return models.ScheduleFilter{From: &today, To: &today, Ascending: true}
	})
}

// UpcomingSchedules lists scheduled collections over the next seven days.
func UpcomingSchedules(store ScheduleStore) http.HandlerFunc {
	return scheduleView(store, func(today time.Time) models.ScheduleFilter {
		until := today.AddDate(0, 0, 7)
		return models.ScheduleFilter{Status: models.ScheduleStatusScheduled, From: &today, To: &until, Ascending: true}
	})
}

// OverdueSchedules lists schedules still waiting after their date passed.
func OverdueSchedules(store ScheduleStore) http.HandlerFunc {
	return scheduleView(store, func(today time.Time) models.ScheduleFilter {
		yesterday := today.AddDate(0, 0, -1)
		return models.ScheduleFilter{Status: models.ScheduleStatusScheduled, To: &yesterday}
	})
}

func scheduleView(store ScheduleStore, build func(today time.Time) models.ScheduleFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		now := time.Now()
		f := build(models.DateOf(now))
		f.CompanyID = companyID
		schedules, err := store.ListSchedules(r.Context(), f)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, now))
	}
}

// TransitionSchedule applies one lifecycle action and broadcasts the result.
func TransitionSchedule(store ScheduleStore, hub *websocket.Hub, action models.ScheduleAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		change, err := scheduleChange(r, action)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		applyTransition(w, r, store, hub, chi.URLParam(r, "id"), companyID, change)
	}
}

// scheduleChange reads the optional body an action carries.
func scheduleChange(r *http.Request, action models.ScheduleAction) (models.ScheduleChange, error) {
	change := models.ScheduleChange{Action: action}
	switch action {
	case models.ActionComplete:
		var req models.CompleteScheduleRequest
		if err := decodeRequest(r, &req); err != nil {
			return change, err
		}
		change.CustomersCollected = req.CustomersCollected
		change.CustomersMissed = req.CustomersMissed
	case models.ActionCancel:
		var req models.CancelScheduleRequest
		if err := decodeRequest(r, &req); err != nil {
			return change, err
		}
		change.Reason = req.Reason
	}
	return change, nil
}

func applyTransition(w http.ResponseWriter, r *http.Request, store ScheduleStore, hub *websocket.Hub, id string, companyID *string, change models.ScheduleChange) {
	s, err := store.TransitionSchedule(r.Context(), id, companyID, change)
	if err != nil {
		log.Printf("❌ Schedule %s %s failed: %v", id, change.Action, err)
		utils.RespondAppError(w, err)
		return
	}
	hub.ScheduleChanged("schedule."+string(s.Status), s)
	audit(r, store, actorFrom(r).UserRef(), string(change.Action), "schedule", &s.ID)
	log.Printf("🔄 Schedule %s (%s on %s) is now %s", s.ID, s.RouteName, s.Date(), s.Status)
	respondOK(w, s.Present(models.ShapeDetail, time.Now()))
}
