package handlers

import (
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/auth"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errCollectorQuota = apperr.Forbidden("collector_quota", "Company has reached its maximum number of collectors")

func ListCollectors(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		collectors, err := store.ListCollectors(r.Context(), listFilter(r, companyID, "employment_type", "service_area"))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(collectors, models.ShapeList))
	}
}

// AvailableCollectors lists active collectors, optionally in one service area.
func AvailableCollectors(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		f := listFilter(r, companyID, "service_area")
		f.Status = string(models.CollectorStatusActive)
		collectors, err := store.ListCollectors(r.Context(), f)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(collectors, models.ShapeList))
	}
}

func GetCollector(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.GetCollector(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		detail := c.Present(models.ShapeDetail).(models.CollectorDetail)
		if detail.ServiceAreaIDs, err = store.CollectorServiceAreaIDs(r.Context(), c.ID); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, detail)
	}
}

// CreateCollector adds a collector within the company's quota. Service areas
// must belong to the same company. A password creates the app login.
func CreateCollector(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCollectorRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		companyID, err := ownerCompany(r, actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		ctx := r.Context()

		company, err := store.GetCompany(ctx, *companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		if !company.CanAddCollector() {
			log.Printf("❌ Collector quota reached for %s (%d/%d)", company.Name, company.CollectorCount, company.MaxCollectors)
			utils.RespondAppError(w, errCollectorQuota)
			return
		}
		for _, areaID := range req.ServiceAreaIDs {
			if _, err := store.GetServiceArea(ctx, areaID, companyID); err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		now := time.Now()
		employment := req.EmploymentType
		if employment == "" {
			employment = "full_time"
		}
		c := &models.Collector{
			ID:              uuid.New().String(),
			CompanyID:       companyID,
			UserID:          req.UserID,
			EmployeeID:      req.EmployeeID,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			NationalID:      req.NationalID,
			EmploymentType:  employment,
			DeviceID:        req.DeviceID,
			NFCReaderID:     req.NFCReaderID,
			Status:          models.CollectorStatusActive,
			Rating:          decimal.NewFromInt(5),
			Notes:           req.Notes,
			CreatedByUserID: actor.UserRef(),
			CreatedAt:       now.Unix(),
			UpdatedAt:       now.Unix(),
		}
		if req.HireDate != nil {
			d, err := parseDate("hire_date", *req.HireDate)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
			c.HireDate = &d
		}

		var account *models.User
		if req.Password != "" && req.UserID == nil {
			account, err = auth.NewAccount(req.Email, req.Password, req.FirstName, req.LastName, models.RoleCollector, companyID)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		if err := store.CreateCollector(ctx, c, req.ServiceAreaIDs, account); err != nil {
			log.Printf("❌ Failed to create collector %s: %v", req.EmployeeID, err)
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "create", "collector", &c.ID)
		log.Printf("✅ Collector created: %s (%s)", c.FullName(), c.EmployeeID)

		detail := c.Present(models.ShapeDetail).(models.CollectorDetail)
		detail.ServiceAreaIDs = req.ServiceAreaIDs
		respondCreated(w, detail)
	}
}

// SetCollectorStatus backs the activate, suspend and on-leave actions.
func SetCollectorStatus(store *database.Store, status models.CollectorStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		id := chi.URLParam(r, "id")
		c, err := store.SetCollectorStatus(r.Context(), id, companyID, status)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), string(status), "collector", &id)
		log.Printf("👷 Collector %s is now %s", c.EmployeeID, status)
		respondOK(w, c.Present(models.ShapeDetail))
	}
}

func CollectorRoutes(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.GetCollector(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		routes, err := store.ListRoutesForCollector(r.Context(), c.ID, companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(routes, models.ShapeList))
	}
}

// CollectorSchedules lists the collector's upcoming schedules.
func CollectorSchedules(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.GetCollector(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		now := time.Now()
		today := models.DateOf(now)
		schedules, err := store.ListSchedules(r.Context(), models.ScheduleFilter{
			CompanyID:   companyID,
			CollectorID: c.ID,
			From:        &today,
			Ascending:   true,
			Limit:       queryInt(r, "limit", 50),
		})
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, models.PresentSchedules(schedules, models.ShapeList, now))
	}
}

func CollectorPerformance(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.GetCollector(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		perf, err := store.CollectorPerformance(r.Context(), c.ID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		perf.TotalCollections = c.TotalCollections
		perf.Rating = c.Rating
		perf.ComputeCompletionRate()
		respondOK(w, perf)
	}
}
