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
)

var errCustomerQuota = apperr.Forbidden("customer_quota", "Company has reached its maximum number of customers")

func ListCustomers(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		customers, err := store.ListCustomers(r.Context(), listFilter(r, companyID, "route", "district"))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, present(customers, models.ShapeList))
	}
}

func GetCustomer(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := tenantScope(actorFrom(r))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.GetCustomer(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, c.Present(models.ShapeDetail))
	}
}

// CreateCustomer registers a customer within the company's quota. A password
// creates a portal login that also accepts the card number.
func CreateCustomer(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCustomerRequest
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
		if !company.CanAddCustomer() {
			log.Printf("❌ Customer quota reached for %s (%d/%d)", company.Name, company.CustomerCount, company.MaxCustomers)
			utils.RespondAppError(w, errCustomerQuota)
			return
		}
		if req.RouteID != nil {
			if _, err := store.GetRoute(ctx, *req.RouteID, companyID); err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		now := time.Now().Unix()
		c := &models.Customer{
			ID:              uuid.New().String(),
			CompanyID:       companyID,
			CardNumber:      req.CardNumber,
			RouteID:         req.RouteID,
			CompanyName:     req.CompanyName,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			District:        req.District,
			Sector:          req.Sector,
			Cell:            req.Cell,
			Village:         req.Village,
			Street:          req.Street,
			PrepaidBalance:  req.PrepaidBalance,
			Status:          models.CustomerStatusActive,
			Notes:           req.Notes,
			CreatedByUserID: actor.UserRef(),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		var account *models.User
		if req.Password != "" {
			account, err = auth.NewAccount(req.Email, req.Password, req.FirstName, req.LastName, models.RoleCustomer, companyID)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		if err := store.CreateCustomer(ctx, c, account); err != nil {
			log.Printf("❌ Failed to create customer: %v", err)
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "create", "customer", &c.ID)
		log.Printf("✅ Customer created: %s", c.DisplayName())
		respondCreated(w, c.Present(models.ShapeDetail))
	}
}

// ArchiveCustomer soft-deletes the customer and disables its portal login.
func ArchiveCustomer(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		companyID, err := tenantScope(actor)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		c, err := store.ArchiveCustomer(r.Context(), chi.URLParam(r, "id"), companyID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "archive", "customer", &c.ID)
		log.Printf("🗄️  Customer archived: %s", c.DisplayName())
		respondOK(w, c.Present(models.ShapeDetail))
	}
}
