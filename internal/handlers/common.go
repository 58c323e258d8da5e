package handlers

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/database"
	"isuku-backend/internal/middleware"
	"isuku-backend/internal/models"
	"isuku-backend/internal/validation"
	"isuku-backend/pkg/utils"

	"github.com/google/uuid"
)

var errNoTenant = apperr.Forbidden("no_company", "Your account is not linked to a company")

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry *models.AuditLog) error
}

// actorFrom returns the authenticated actor. Handlers using it are mounted
// behind middleware.Auth.
func actorFrom(r *http.Request) models.Actor {
	actor, _ := middleware.GetActor(r)
	return actor
}

// tenantScope returns the company filter for actor: nil for system admins,
// the actor's own company otherwise.
func tenantScope(actor models.Actor) (*string, error) {
	if actor.IsSystemAdmin() {
		return nil, nil
	}
	if actor.CompanyID == nil {
		return nil, errNoTenant
	}
	return actor.CompanyID, nil
}

// ownerCompany returns the company a new record belongs to: the actor's own,
// or for system admins the company_id query parameter.
func ownerCompany(r *http.Request, actor models.Actor) (*string, error) {
	if !actor.IsSystemAdmin() {
		return tenantScope(actor)
	}
	id := r.URL.Query().Get("company_id")
	if id == "" {
		return nil, apperr.Validation("company_required", "company_id is required").
			WithFields(map[string]string{"company_id": "This field is required."})
	}
	return &id, nil
}

// listFilter reads the common list parameters plus the named field filters.
func listFilter(r *http.Request, companyID *string, fields ...string) database.ListFilter {
	q := r.URL.Query()
	f := database.ListFilter{
		CompanyID: companyID,
		Status:    q.Get("status"),
		Search:    q.Get("search"),
		Ordering:  q.Get("ordering"),
		Fields:    map[string]string{},
	}
	for _, name := range fields {
		if v := q.Get(name); v != "" {
			f.Fields[name] = v
		}
	}
	return f
}

// decodeRequest decodes the JSON body into dst and validates it.
func decodeRequest(r *http.Request, dst interface{}) error {
	if err := utils.DecodeJSON(r, dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_date", "Invalid date").
			WithFields(map[string]string{field: "Date has wrong format. Use YYYY-MM-DD."})
	}
	return t, nil
}

// optionalDate parses the query parameter name when present.
func optionalDate(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := parseDate(name, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && n > 0 {
		return n
	}
	return def
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// audit records an action; failures are logged and do not fail the request.
func audit(r *http.Request, rec AuditRecorder, userID *string, action, entityType string, entityID *string) {
	ip := clientIP(r)
	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  &ip,
		UserAgent:  r.UserAgent(),
		CreatedAt:  time.Now().Unix(),
	}
	if err := rec.RecordAudit(r.Context(), entry); err != nil {
		log.Printf("⚠️  Failed to record audit %s %s: %v", action, entityType, err)
	}
}

// presenter is satisfied by pointers to the entity models.
type presenter[T any] interface {
	*T
	Present(models.Shape) interface{}
}

func present[T any, P presenter[T]](items []T, shape models.Shape) []interface{} {
	out := make([]interface{}, len(items))
	for i := range items {
		out[i] = P(&items[i]).Present(shape)
	}
	return out
}

func respondOK(w http.ResponseWriter, data interface{}) {
	utils.RespondJSON(w, http.StatusOK, data)
}

func respondCreated(w http.ResponseWriter, data interface{}) {
	utils.RespondJSON(w, http.StatusCreated, data)
}
