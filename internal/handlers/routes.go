package handlers

import (
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var errCollectorUnavailable = apperr.Validation("collector_unavailable", "Collector is not available for assignment").
	WithFields(map[string]string{"collector_id": "Collector must be active."})

// GetRoutes returns the tenant's routes. Archived routes are listed only when
// asked for with status=archived.
func GetRoutes(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		routes, err := store.ListRoutes(r.Context(), listFilter(r, companyID, "service_area", "frequency", "default_collector"))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(routes, models.ShapeList))
	}
}

func GetRoute(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		route, err := store.GetRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, route.Present(models.ShapeDetail))
	}
}

// CreateRoute creates a route in one of the tenant's service areas. A zero
// sequence number takes the next free one in the area.
func CreateRoute(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateRouteRequest
		if err := decodeRequest(r, &req); err != nil {
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

		area, err := store.GetServiceArea(ctx, req.ServiceAreaID, companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if req.DefaultCollectorID != nil {
			if err := checkCollector(r, store, *req.DefaultCollectorID, area.CompanyID); err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		seq := req.SequenceNumber
		if seq == 0 {
			if seq, err = store.NextSequenceNumber(ctx, area.ID); err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		now := time.Now().Unix()
		route := &models.Route{
			ID:                       uuid.New().String(),
			ServiceAreaID:            area.ID,
			Name:                     req.Name,
			Code:                     req.Code,
			Description:              req.Description,
			SequenceNumber:           seq,
			EstimatedDistanceKm:      decimal.Zero,
			EstimatedDurationMinutes: req.EstimatedDurationMinutes,
			Frequency:                models.Frequency(req.Frequency),
			CollectionDays:           pq.StringArray(req.CollectionDays),
			CollectionTimeStart:      req.CollectionTimeStart,
			CollectionTimeEnd:        req.CollectionTimeEnd,
			DefaultCollectorID:       req.DefaultCollectorID,
			Status:                   models.RouteStatusActive,
			Notes:                    req.Notes,
			CreatedByUserID:          actor.UserRef(),
			CreatedAt:                now,
			UpdatedAt:                now,
			CompanyID:                area.CompanyID,
			ServiceAreaName:          area.Name,
		}
		if req.EstimatedDistanceKm != nil {
			route.EstimatedDistanceKm = *req.EstimatedDistanceKm
		}

		if err := store.CreateRoute(ctx, route); err != nil {
			log.Printf("❌ Failed to create route %s: %v", req.Code, err)
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "create", "route", &route.ID)
		log.Printf("✅ Route created: %s (%s) seq %d in %s", route.Name, route.Code, route.SequenceNumber, area.Code)
		respondCreated(w, route.Present(models.ShapeDetail))
	}
}

// UpdateRoute applies a partial update.
func UpdateRoute(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateRouteRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		route, err := store.GetRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}

		applyRouteUpdate(route, req)
		if err := store.UpdateRoute(r.Context(), route); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "update", "route", &route.ID)
		respondOK(w, route.Present(models.ShapeDetail))
	}
}

func applyRouteUpdate(route *models.Route, req models.UpdateRouteRequest) {
	if req.Name != nil {
		route.Name = *req.Name
	}
	if req.Description != nil {
		route.Description = *req.Description
	}
	if req.SequenceNumber != nil {
		route.SequenceNumber = *req.SequenceNumber
	}
	if req.EstimatedDistanceKm != nil {
		route.EstimatedDistanceKm = *req.EstimatedDistanceKm
	}
	if req.EstimatedDurationMinutes != nil {
		route.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
	}
	if req.Frequency != nil {
		route.Frequency = models.Frequency(*req.Frequency)
	}
	if req.CollectionDays != nil {
		route.CollectionDays = pq.StringArray(req.CollectionDays)
	}
	if req.CollectionTimeStart != nil {
		route.CollectionTimeStart = req.CollectionTimeStart
	}
	if req.CollectionTimeEnd != nil {
		route.CollectionTimeEnd = req.CollectionTimeEnd
	}
	if req.Status != nil {
		route.Status = models.RouteStatus(*req.Status)
		route.ArchivedAt = nil
	}
	if req.Notes != nil {
		route.Notes = *req.Notes
	}
}

// ArchiveRoute soft-deletes a route; its schedules remain as history.
func ArchiveRoute(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		route, err := store.ArchiveRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "archive", "route", &route.ID)
		log.Printf("🗄️  Route archived: %s (%s)", route.Name, route.Code)
		respondOK(w, route.Present(models.ShapeDetail))
	}
}

// AssignCollector sets the route's default collector. Only future schedules
// created afterwards pick it up.
func AssignCollector(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.AssignCollectorRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		route, err := store.GetRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if err := checkCollector(r, store, req.CollectorID, route.CompanyID); err != nil {
			utils.RespondAppError(w, err)
			return
		}

		route.DefaultCollectorID = &req.CollectorID
		if err := store.UpdateRoute(r.Context(), route); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "assign_collector", "route", &route.ID)
		log.Printf("👷 Collector %s assigned to route %s", req.CollectorID, route.Code)
		respondOK(w, route.Present(models.ShapeDetail))
	}
}

// RouteSchedules lists a route's schedules, newest first.
func RouteSchedules(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		route, err := store.GetRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		schedules, err := store.ListSchedules(r.Context(), models.ScheduleFilter{CompanyID: companyID, RouteID: route.ID})
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, time.Now()))
	}
}

// checkCollector verifies the collector exists in the route's company and is
// active.
func checkCollector(r *http.Request, store *database.Store, collectorID string, companyID *string) error {
	collector, err := store.GetCollector(r.Context(), collectorID, companyID)
	if err != nil {
		return err
	}
	if !collector.IsAvailable() {
		return errCollectorUnavailable
	}
	return nil
}
