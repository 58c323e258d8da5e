package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"
	"isuku-backend/internal/scheduling"
	"isuku-backend/internal/services"
	"isuku-backend/internal/websocket"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// maxGenerationDays bounds a single generation request.
const maxGenerationDays = 366

var (
	errRangeTooLong  = apperr.Validation("range_too_long", "Date range may not exceed 366 days")
	errRouteArchived = apperr.Conflict("route_archived", "Cannot generate schedules for an archived route")
)

// RouteSource loads routes for generation.
type RouteSource interface {
	GetRoute(ctx context.Context, id string, companyID *string) (*models.Route, error)
	ListActiveRoutes(ctx context.Context, companyID *string) ([]models.Route, error)
}

type GeneratedSchedule struct {
	ID            string `json:"id"`
	ScheduledDate string `json:"scheduled_date"`
}

type GenerateScheduleResponse struct {
	Success      bool                `json:"success"`
	RouteID      string              `json:"route_id"`
	CreatedCount int                 `json:"created_count"`
	Schedules    []GeneratedSchedule `json:"schedules"`
}

type BatchGenerateRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type BatchGenerateResponse struct {
	Success   bool   `json:"success"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	scheduling.BatchResult
}

// GenerateSchedule creates the missing schedules of one route over an
// inclusive date range and returns only the ones it created.
func GenerateSchedule(routes RouteSource, gen *scheduling.Generator, audits AuditRecorder, hub *websocket.Hub, notifier *services.ScheduleNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.GenerateScheduleRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		start, end, err := generationRange(req.StartDate, req.EndDate)
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
		route, err := routes.GetRoute(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if route.Status == models.RouteStatusArchived {
			utils.RespondAppError(w, errRouteArchived)
			return
		}

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("📅 Generating schedules for route %s from %s to %s", route.Code, req.StartDate, req.EndDate)

		created, err := gen.Generate(r.Context(), scheduling.Request{
			Route:              route,
			Start:              start,
			End:                end,
			CustomersScheduled: req.CustomersScheduled,
			Actor:              actor,
		})
		if err != nil {
			log.Printf("❌ Generation failed for route %s: %v", route.Code, err)
			utils.RespondAppError(w, err)
			return
		}

		publishGenerated(hub, route.CompanyID, route.ID, len(created))
		notifier.SchedulesAssigned(r.Context(), created)
		audit(r, audits, actor.UserRef(), "generate_schedule", "route", &route.ID)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		resp := GenerateScheduleResponse{
			Success:      true,
			RouteID:      route.ID,
			CreatedCount: len(created),
			Schedules:    make([]GeneratedSchedule, len(created)),
		}
		for i, s := range created {
			resp.Schedules[i] = GeneratedSchedule{ID: s.ID, ScheduledDate: s.Date()}
		}
		respondCreated(w, resp)
	}
}

// GenerateSchedules runs generation for every active route of the tenant. An
// empty range defaults to horizonDays dates starting today.
func GenerateSchedules(routes RouteSource, gen *scheduling.Generator, audits AuditRecorder, hub *websocket.Hub, notifier *services.ScheduleNotifier, horizonDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchGenerateRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		today := models.DateOf(time.Now())
		if req.StartDate == "" {
			req.StartDate = today.Format(models.DateLayout)
		}
		if req.EndDate == "" {
			start, _ := time.Parse(models.DateLayout, req.StartDate)
			req.EndDate = start.AddDate(0, 0, horizonDays-1).Format(models.DateLayout)
		}
		start, end, err := generationRange(req.StartDate, req.EndDate)
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
		active, err := routes.ListActiveRoutes(r.Context(), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("📅 Batch generation over %d routes from %s to %s", len(active), req.StartDate, req.EndDate)

		result := gen.GenerateBatch(r.Context(), active, start, end, actor)
		for i, rr := range result.Routes {
			publishGenerated(hub, active[i].CompanyID, rr.RouteID, rr.Created)
			notifier.SchedulesAssigned(r.Context(), rr.Schedules)
		}
		audit(r, audits, actor.UserRef(), "generate_schedules", "route", nil)

		log.Printf("✅ Batch generation created %d schedules, %d routes failed", result.TotalCreated, result.Failed)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		respondOK(w, BatchGenerateResponse{
			Success:     result.Failed == 0,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			BatchResult: result,
		})
	}
}

// generationRange parses an inclusive range. An end before the start is
// allowed and generates nothing.
func generationRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := parseDate("start_date", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end_date", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Sub(start) > maxGenerationDays*24*time.Hour {
		return time.Time{}, time.Time{}, errRangeTooLong
	}
	return start, end, nil
}

func publishGenerated(hub *websocket.Hub, companyID *string, routeID string, created int) {
	if created == 0 {
		return
	}
	hub.Publish(websocket.Event{
		Type:      "schedules.generated",
		CompanyID: companyID,
		Data:      map[string]interface{}{"route_id": routeID, "created": created},
	})
}
