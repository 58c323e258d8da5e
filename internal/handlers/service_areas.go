package handlers

import (
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/internal/services"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func ListServiceAreas(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		areas, err := store.ListServiceAreas(r.Context(), listFilter(r, companyID, "province", "district", "sector"))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(areas, models.ShapeList))
	}
}

func GetServiceArea(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		area, err := store.GetServiceArea(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, area.Present(models.ShapeDetail))
	}
}

// CreateServiceArea stores a new area, geocoding its address when no
// coordinates were supplied.
func CreateServiceArea(store *database.Store, geocoder *services.GeocodingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateServiceAreaRequest
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

		status := models.ServiceAreaStatusActive
		if req.Status != "" {
			status = models.ServiceAreaStatus(req.Status)
		}
		now := time.Now().Unix()
		area := &models.ServiceArea{
			ID:                  uuid.New().String(),
			CompanyID:           companyID,
			Name:                req.Name,
			Code:                req.Code,
			Description:         req.Description,
			Province:            req.Province,
			District:            req.District,
			Sector:              req.Sector,
			Cell:                req.Cell,
			Village:             req.Village,
			Latitude:            req.Latitude,
			Longitude:           req.Longitude,
			Status:              status,
			EstimatedHouseholds: req.EstimatedHouseholds,
			EstimatedCustomers:  req.EstimatedCustomers,
			CreatedByUserID:     actor.UserRef(),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		geocoder.LocateServiceArea(r.Context(), area)

		if err := store.CreateServiceArea(r.Context(), area); err != nil {
			log.Printf("❌ Failed to create service area %s: %v", req.Code, err)
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "create", "service_area", &area.ID)
		log.Printf("✅ Service area created: %s (%s)", area.Name, area.Code)
		respondCreated(w, area.Present(models.ShapeDetail))
	}
}

func SetServiceAreaStatus(store *database.Store, status models.ServiceAreaStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		id := chi.URLParam(r, "id")
		area, err := store.SetServiceAreaStatus(r.Context(), id, companyID, status)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), string(status), "service_area", &id)
		respondOK(w, area.Present(models.ShapeDetail))
	}
}

func ServiceAreaStats(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		stats, err := store.ServiceAreaStats(r.Context(), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, stats)
	}
}

func ServiceAreaRoutes(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		area, err := store.GetServiceArea(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		routes, err := store.ListRoutes(r.Context(), database.ListFilter{
			CompanyID: companyID,
			Fields:    map[string]string{"service_area": area.ID},
		})
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(routes, models.ShapeList))
	}
}

func ServiceAreaCollectors(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		area, err := store.GetServiceArea(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		collectors, err := store.ListCollectorsForServiceArea(r.Context(), area.ID, companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(collectors, models.ShapeList))
	}
}
