package handlers

import (
	"log"
	"net/http"
	"time"

	"isuku-backend/internal/auth"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyResponse adds the derived license and quota flags.
type CompanyResponse struct {
	models.Company
	IsLicenseValid  bool `json:"is_license_valid"`
	IsActive        bool `json:"is_active"`
	CanAddCustomer  bool `json:"can_add_customer"`
	CanAddCollector bool `json:"can_add_collector"`
}

func companyResponse(c *models.Company, now time.Time) CompanyResponse {
	return CompanyResponse{
		Company:         *c,
		IsLicenseValid:  c.IsLicenseValid(now),
		IsActive:        c.IsActive(now),
		CanAddCustomer:  c.CanAddCustomer(),
		CanAddCollector: c.CanAddCollector(),
	}
}

// ListCompanies returns every tenant (system admin only).
func ListCompanies(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := store.ListCompanies(r.Context(), listFilter(r, nil))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		now := time.Now()
		out := make([]CompanyResponse, len(companies))
		for i := range companies {
			out[i] = companyResponse(&companies[i], now)
		}
		respondOK(w, out)
	}
}

func GetCompany(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCompany(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, companyResponse(c, time.Now()))
	}
}

// CreateCompany registers a tenant and optionally its first administrator.
func CreateCompany(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("📥 REQUEST: POST /api/admin/companies")

		var req models.CreateCompanyRequest
		if err := decodeRequest(r, &req); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)
		now := time.Now()

		c := &models.Company{
			ID:                 uuid.New().String(),
			Name:               req.Name,
			RegistrationNumber: req.RegistrationNumber,
			Email:              req.Email,
			Phone:              req.Phone,
			Status:             models.CompanyStatusActive,
			MaxCustomers:       1000,
			MaxCollectors:      50,
			CreatedByUserID:    actor.UserRef(),
			CreatedAt:          now.Unix(),
			UpdatedAt:          now.Unix(),
		}
		if req.MaxCustomers != nil {
			c.MaxCustomers = *req.MaxCustomers
		}
		if req.MaxCollectors != nil {
			c.MaxCollectors = *req.MaxCollectors
		}
		c.PrepaidCollectionPrice = decimal.Zero
		if req.PrepaidCollectionPrice != nil {
			c.PrepaidCollectionPrice = *req.PrepaidCollectionPrice
		}
		if req.LicenseStartDate != nil {
			d, err := parseDate("license_start_date", *req.LicenseStartDate)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
			c.LicenseStartDate = &d
		}
		if req.LicenseEndDate != nil {
			d, err := parseDate("license_end_date", *req.LicenseEndDate)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
			c.LicenseEndDate = &d
		}

		var admin *models.User
		if req.Admin != nil {
			var err error
			admin, err = auth.NewAccount(req.Admin.Email, req.Admin.Password, req.Admin.FirstName, req.Admin.LastName, models.RoleCompanyAdmin, &c.ID)
			if err != nil {
				utils.RespondAppError(w, err)
				return
			}
		}

		if err := store.CreateCompanyWithAdmin(r.Context(), c, admin); err != nil {
			log.Printf("❌ Failed to create company: %v", err)
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actor.UserRef(), "create", "company", &c.ID)

		log.Printf("✅ Company created: %s (%s)", c.Name, c.ID)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		respondCreated(w, companyResponse(c, now))
	}
}

// SetCompanyStatus suspends or reactivates a tenant.
func SetCompanyStatus(store *database.Store, status models.CompanyStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		c, err := store.SetCompanyStatus(r.Context(), id, status)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		audit(r, store, actorFrom(r).UserRef(), string(status), "company", &id)
		log.Printf("🏢 Company %s is now %s", c.Name, status)
		respondOK(w, companyResponse(c, time.Now()))
	}
}

func PlatformStats(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.PlatformStats(r.Context())
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, stats)
	}
}
