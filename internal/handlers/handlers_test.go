package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/auth"
	"isuku-backend/internal/middleware"
	"isuku-backend/internal/models"
	"isuku-backend/internal/scheduling"
	"isuku-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAudits struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAudits) RecordAudit(_ context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudits) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

type fakeRoutes struct {
	routes []models.Route
}

func (f *fakeRoutes) GetRoute(_ context.Context, id string, companyID *string) (*models.Route, error) {
	for i := range f.routes {
		r := &f.routes[i]
		if r.ID == id && (companyID == nil || (r.CompanyID != nil && *r.CompanyID == *companyID)) {
			return r, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeRoutes) ListActiveRoutes(_ context.Context, companyID *string) ([]models.Route, error) {
	var out []models.Route
	for _, r := range f.routes {
		if r.Status != models.RouteStatusActive {
			continue
		}
		if companyID != nil && (r.CompanyID == nil || *r.CompanyID != *companyID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeSchedules struct {
	mu   sync.Mutex
	byID map[string]bool
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{byID: map[string]bool{}}
}

func (f *fakeSchedules) ScheduleExists(_ context.Context, routeID string, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[routeID+"|"+date.Format(models.DateLayout)], nil
}

func (f *fakeSchedules) InsertSchedule(_ context.Context, s *models.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := s.RouteID + "|" + s.Date()
	if f.byID[k] {
		return apperr.ErrConflict
	}
	f.byID[k] = true
	return nil
}

type fakeAccounts struct {
	users     map[string]*models.User
	customers map[string]*models.Customer
}

func (f *fakeAccounts) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) FindUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) FindCustomerByCardNumber(_ context.Context, card string) (*models.Customer, error) {
	if c, ok := f.customers[card]; ok {
		return c, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) RecordLogin(context.Context, string, string, int64) error { return nil }
func (f *fakeAccounts) RecordFailedLogin(context.Context, string) error        { return nil }

// =============================================================================
// HELPERS
// =============================================================================

func strPtr(s string) *string { return &s }

var (
	tenantA = strPtr("company-a")
	tenantB = strPtr("company-b")

	adminA      = models.Actor{UserID: "admin-a", Email: "admin@a.rw", Role: models.RoleCompanyAdmin, CompanyID: tenantA}
	systemAdmin = models.Actor{UserID: "root", Email: "root@isuku.rw", Role: models.RoleSystemAdmin}
)

func serve(t *testing.T, actor *models.Actor, method, pattern, target, body string, h http.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if actor != nil {
			req = req.WithContext(middleware.WithActor(req.Context(), *actor))
		}
		h(w, req)
	}))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.7:5000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func weeklyRoute(id string, company *string, status models.RouteStatus, days ...string) models.Route {
	return models.Route{
		ID:             id,
		Code:           strings.ToUpper(id),
		Name:           "Route " + id,
		Frequency:      models.FrequencyWeekly,
		CollectionDays: pq.StringArray(days),
		Status:         status,
		CompanyID:      company,
		CustomersCount: 12,
	}
}

// =============================================================================
// AUTH
// =============================================================================

func newLoginFixture(t *testing.T) (*fakeAccounts, *auth.Tokens) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	accounts := &fakeAccounts{
		users: map[string]*models.User{
			"u-1": {ID: "u-1", Email: "jane@example.rw", Password: string(hash), Role: models.RoleCustomer,
				CompanyID: tenantA, IsActive: true, IsVerified: true},
		},
		customers: map[string]*models.Customer{
			"12345678": {ID: "c-1", CardNumber: strPtr("12345678"), UserID: strPtr("u-1")},
			"87654321": {ID: "c-2", CardNumber: strPtr("87654321")},
		},
	}
	return accounts, auth.NewTokens("test-secret", time.Hour)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"email", `{"email":"Jane@Example.rw","password":"secret123"}`, http.StatusOK, ""},
		{"card", `{"card_number":"12345678","password":"secret123"}`, http.StatusOK, ""},
		{"wrong password", `{"email":"jane@example.rw","password":"nope"}`, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown email", `{"email":"who@example.rw","password":"secret123"}`, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown card", `{"card_number":"00000000","password":"secret123"}`, http.StatusUnauthorized, "invalid_card_number"},
		{"card without account", `{"card_number":"87654321","password":"secret123"}`, http.StatusUnauthorized, "no_linked_account"},
		{"missing password", `{"email":"jane@example.rw"}`, http.StatusBadRequest, "credentials_required"},
		{"malformed body", `{"email":`, http.StatusBadRequest, "invalid_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, tokens := newLoginFixture(t)
			audits := &fakeAudits{}
			h := Login(auth.NewAuthenticator(accounts, tokens), audits)

			rec, body := serve(t, nil, http.MethodPost, "/api/auth/login", "/api/auth/login", tt.body, h)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantCode, body["code"])
				assert.Empty(t, audits.entries)
				return
			}

			assert.Equal(t, true, body["success"])
			token, _ := body["token"].(string)
			actor, err := tokens.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, "u-1", actor.UserID)
			assert.Equal(t, models.RoleCustomer, actor.Role)

			require.Len(t, audits.entries, 1)
			entry := audits.entries[0]
			assert.Equal(t, "login", entry.Action)
			require.NotNil(t, entry.IPAddress)
			assert.Equal(t, "10.0.0.7", *entry.IPAddress)
		})
	}
}

func TestMe(t *testing.T) {
	accounts, _ := newLoginFixture(t)
	actor := models.Actor{UserID: "u-1", Role: models.RoleCustomer, CompanyID: tenantA}

	rec, body := serve(t, &actor, http.MethodGet, "/api/auth/me", "/api/auth/me", "", Me(accounts))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.rw", body["email"])
	assert.NotContains(t, body, "password")

	gone := models.Actor{UserID: "deleted", Role: models.RoleCustomer}
	rec, _ = serve(t, &gone, http.MethodGet, "/api/auth/me", "/api/auth/me", "", Me(accounts))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GENERATION
// =============================================================================

const generatePattern = "/api/routes/{id}/generate-schedule"

func TestGenerateSchedule(t *testing.T) {
	routes := &fakeRoutes{routes: []models.Route{
		weeklyRoute("r-mon", tenantA, models.RouteStatusActive, "monday"),
		weeklyRoute("r-old", tenantA, models.RouteStatusArchived, "monday"),
		weeklyRoute("r-other", tenantB, models.RouteStatusActive, "monday"),
	}}
	store := newFakeSchedules()
	audits := &fakeAudits{}
	hub := websocket.NewHub()
	h := GenerateSchedule(routes, scheduling.NewGenerator(store), audits, hub, nil)

	body := `{"start_date":"2024-06-01","end_date":"2024-06-16"}`

	t.Run("creates the missing dates", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule", body, h)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "r-mon", resp["route_id"])
		assert.EqualValues(t, 2, resp["created_count"])

		schedules := resp["schedules"].([]interface{})
		require.Len(t, schedules, 2)
		assert.Equal(t, "2024-06-03", schedules[0].(map[string]interface{})["scheduled_date"])
		assert.Equal(t, "2024-06-10", schedules[1].(map[string]interface{})["scheduled_date"])
		assert.Equal(t, []string{"generate_schedule"}, audits.actions())
	})

	t.Run("second run creates nothing", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule", body, h)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.EqualValues(t, 0, resp["created_count"])
		assert.Empty(t, resp["schedules"])
	})

	t.Run("end before start creates nothing", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule",
			`{"start_date":"2024-07-31","end_date":"2024-07-01"}`, h)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.EqualValues(t, 0, resp["created_count"])
	})

	t.Run("archived route", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-old/generate-schedule", body, h)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "route_archived", resp["code"])
	})

	t.Run("other tenant's route is not found", func(t *testing.T) {
		rec, _ := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-other/generate-schedule", body, h)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("system admin reaches every tenant", func(t *testing.T) {
		rec, resp := serve(t, &systemAdmin, http.MethodPost, generatePattern, "/api/routes/r-other/generate-schedule", body, h)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.EqualValues(t, 2, resp["created_count"])
	})

	t.Run("invalid dates", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule",
			`{"start_date":"06/01/2024","end_date":"2024-06-16"}`, h)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp["errors"], "start_date")
	})

	t.Run("missing dates", func(t *testing.T) {
		rec, _ := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule", `{}`, h)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("range too long", func(t *testing.T) {
		rec, resp := serve(t, &adminA, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule",
			`{"start_date":"2024-01-01","end_date":"2025-06-01"}`, h)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "range_too_long", resp["code"])
	})

	t.Run("actor without company", func(t *testing.T) {
		orphan := models.Actor{UserID: "x", Role: models.RoleCompanyAdmin}
		rec, resp := serve(t, &orphan, http.MethodPost, generatePattern, "/api/routes/r-mon/generate-schedule", body, h)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no_company", resp["code"])
	})
}

func TestGenerateSchedules(t *testing.T) {
	routes := &fakeRoutes{routes: []models.Route{
		weeklyRoute("r-1", tenantA, models.RouteStatusActive, "monday"),
		weeklyRoute("r-2", tenantA, models.RouteStatusActive, "monday", "thursday"),
		weeklyRoute("r-3", tenantA, models.RouteStatusInactive, "monday"),
		weeklyRoute("r-4", tenantB, models.RouteStatusActive, "monday"),
	}}
	audits := &fakeAudits{}
	h := GenerateSchedules(routes, scheduling.NewGenerator(newFakeSchedules()), audits, websocket.NewHub(), nil, 30)

	rec, resp := serve(t, &adminA, http.MethodPost, "/api/routes/generate-schedules", "/api/routes/generate-schedules",
		`{"start_date":"2024-06-03","end_date":"2024-06-09"}`, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "2024-06-03", resp["start_date"])
	assert.EqualValues(t, 3, resp["total_created"])
	assert.EqualValues(t, 0, resp["failed"])
	assert.Len(t, resp["routes"], 2)
	assert.Equal(t, []string{"generate_schedules"}, audits.actions())
}

func TestGenerateSchedulesDefaultsToHorizon(t *testing.T) {
	routes := &fakeRoutes{}
	h := GenerateSchedules(routes, scheduling.NewGenerator(newFakeSchedules()), &fakeAudits{}, websocket.NewHub(), nil, 14)

	rec, resp := serve(t, &adminA, http.MethodPost, "/api/routes/generate-schedules", "/api/routes/generate-schedules", "", h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	today := models.DateOf(time.Now())
	assert.Equal(t, today.Format(models.DateLayout), resp["start_date"])
	assert.Equal(t, today.AddDate(0, 0, 13).Format(models.DateLayout), resp["end_date"], "14 dates including today")
	assert.EqualValues(t, 0, resp["total_created"])
}

func TestGenerationRange(t *testing.T) {
	start, end, err := generationRange("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), end)

	_, _, err = generationRange("2024-01-01", "2025-01-01")
	assert.NoError(t, err, "366 days is the limit")

	_, _, err = generationRange("2024-01-01", "2025-01-02")
	assert.ErrorIs(t, err, errRangeTooLong)

	_, _, err = generationRange("2024-02-30", "2024-03-01")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.FieldsOf(err), "start_date")
}

// =============================================================================
// TENANT SCOPING
// =============================================================================

func TestTenantScope(t *testing.T) {
	scope, err := tenantScope(systemAdmin)
	require.NoError(t, err)
	assert.Nil(t, scope)

	scope, err = tenantScope(adminA)
	require.NoError(t, err)
	assert.Equal(t, tenantA, scope)

	_, err = tenantScope(models.Actor{Role: models.RoleCollector})
	assert.ErrorIs(t, err, errNoTenant)
}

func TestOwnerCompany(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/customers?company_id=company-b", nil)
	id, err := ownerCompany(req, adminA)
	require.NoError(t, err)
	assert.Equal(t, "company-a", *id, "company admins cannot create for another tenant")

	id, err = ownerCompany(req, systemAdmin)
	require.NoError(t, err)
	assert.Equal(t, "company-b", *id)

	_, err = ownerCompany(httptest.NewRequest(http.MethodPost, "/api/customers", nil), systemAdmin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.FieldsOf(err), "company_id")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:4431"
	assert.Equal(t, "192.168.1.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", "41.186.0.9, 10.0.0.1")
	assert.Equal(t, "41.186.0.9", clientIP(req))
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	rec, body := serve(t, nil, http.MethodGet, "/health", "/health", "", Health(fakePinger{}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = serve(t, nil, http.MethodGet, "/health", "/health", "", Health(fakePinger{err: assert.AnError}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestReceiveDiagnosticLog(t *testing.T) {
	collector := models.Actor{UserID: "col-1", Email: "jean@a.rw", Role: models.RoleCollector, CompanyID: tenantA}

	rec, _ := serve(t, &collector, http.MethodPost, "/api/collector/logs", "/api/collector/logs",
		`{"level":"ERROR","message":"NFC reader timeout","platform":"android","data":{"attempt":3}}`, ReceiveDiagnosticLog())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := serve(t, &collector, http.MethodPost, "/api/collector/logs", "/api/collector/logs",
		`{"level":"LOUD","message":"x"}`, ReceiveDiagnosticLog())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["errors"], "level")
}
