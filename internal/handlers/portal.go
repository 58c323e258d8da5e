package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/internal/websocket"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

var (
	errNoCollectorProfile = apperr.NotFound("no_collector_profile", "No collector profile is linked to this account")
	errNoCustomerProfile  = apperr.NotFound("no_customer_profile", "No customer profile is linked to this account")
	errNotYourSchedule    = apperr.Forbidden("not_assigned", "This schedule is not assigned to you")
)

// CollectorPortalStore backs the collector app endpoints.
type CollectorPortalStore interface {
	ScheduleStore
	FindCollectorByUserID(ctx context.Context, userID string) (*models.Collector, error)
}

type FCMTokenRequest struct {
	Token      string `json:"token" validate:"required"`
	DeviceType string `json:"device_type" validate:"required,oneof=ios android"`
}

type CustomerProfile struct {
	models.CustomerDetail
	Route *models.RouteListItem `json:"route,omitempty"`
}

func currentCollector(r *http.Request, store CollectorPortalStore) (*models.Collector, error) {
	c, err := store.FindCollectorByUserID(r.Context(), actorFrom(r).UserID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, errNoCollectorProfile
	}
	return c, err
}

// MyTodaySchedules returns the signed-in collector's schedules for today.
func MyTodaySchedules(store CollectorPortalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := currentCollector(r, store)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		now := time.Now()
		today := models.DateOf(now)
		schedules, err := store.ListSchedules(r.Context(), models.ScheduleFilter{
			CompanyID:   c.CompanyID,
			CollectorID: c.ID,
			From:        &today,
			To:          &today,
			Ascending:   true,
		})
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeDetail, now))
	}
}

// MySchedules lists the collector's schedules, optionally filtered by status
// and date range.
func MySchedules(store CollectorPortalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := currentCollector(r, store)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		f := models.ScheduleFilter{
			CompanyID:   c.CompanyID,
			CollectorID: c.ID,
			Status:      models.ScheduleStatus(r.URL.Query().Get("status")),
			Limit:       queryInt(r, "limit", 100),
		}
		if f.From, err = optionalDate(r, "date_from"); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if f.To, err = optionalDate(r, "date_to"); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		schedules, err := store.ListSchedules(r.Context(), f)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, time.Now()))
	}
}

// MyScheduleTransition lets a collector start or complete a schedule assigned
// to them.
func MyScheduleTransition(store CollectorPortalStore, hub *websocket.Hub, action models.ScheduleAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		change, err := scheduleChange(r, action)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := currentCollector(r, store)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		id := chi.URLParam(r, "id")
		s, err := store.GetSchedule(r.Context(), id, c.CompanyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if s.CollectorID == nil || *s.CollectorID != c.ID {
			log.Printf("❌ Collector %s tried to %s schedule %s assigned to someone else", c.EmployeeID, action, id)
			utils.RespondAppError(w, errNotYourSchedule)
			return
		}
		applyTransition(w, r, store, hub, id, c.CompanyID, change)
	}
}

// RegisterFCMToken registers a Firebase Cloud Messaging token
func RegisterFCMToken(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FCMTokenRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		if err := store.UpsertFCMToken(r.Context(), actor.UserID, req.Token, req.DeviceType); err != nil {
			log.Printf("❌ Error registering FCM token: %v", err)
			utils.RespondAppError(w, err)
			return
		}

		log.Printf("📱 FCM token registered: %s (%s)", actor.Email, req.DeviceType)
		respondOK(w, map[string]interface{}{
			"success": true,
			"message": "FCM token registered successfully",
		})
	}
}

func currentCustomer(r *http.Request, store *database.Store) (*models.Customer, error) {
	c, err := store.FindCustomerByUserID(r.Context(), actorFrom(r).UserID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, errNoCustomerProfile
	}
	return c, err
}

// MyProfile returns the signed-in customer's record and route.
func MyProfile(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := currentCustomer(r, store)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		profile := CustomerProfile{CustomerDetail: c.Present(models.ShapeDetail).(models.CustomerDetail)}
		if c.RouteID != nil {
			route, err := store.GetRoute(r.Context(), *c.RouteID, c.CompanyID)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				utils.RespondAppError(w, err)
				return
			}
			if route != nil {
				item := route.Present(models.ShapeList).(models.RouteListItem)
				profile.Route = &item
			}
		}
		respondOK(w, profile)
	}
}

// MyUpcomingCollections lists the next scheduled collections on the
// customer's route.
func MyUpcomingCollections(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := currentCustomer(r, store)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if c.RouteID == nil {
			respondOK(w, []interface{}{})
			return
		}
		now := time.Now()
		today := models.DateOf(now)
		schedules, err := store.ListSchedules(r.Context(), models.ScheduleFilter{
			CompanyID: c.CompanyID,
			RouteID:   *c.RouteID,
			Status:    models.ScheduleStatusScheduled,
			From:      &today,
			Ascending: true,
			Limit:     queryInt(r, "limit", 10),
		})
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, now))
	}
}
