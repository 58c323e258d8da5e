package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/middleware"
	"isuku-backend/internal/models"
	"isuku-backend/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	fakeAudits
	mu         sync.Mutex
	schedules  map[string]*models.Schedule
	collectors map[string]*models.Collector
}

func (f *fakePortal) FindCollectorByUserID(_ context.Context, userID string) (*models.Collector, error) {
	if c, ok := f.collectors[userID]; ok {
		return c, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakePortal) GetSchedule(_ context.Context, id string, companyID *string) (*models.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok || (companyID != nil && (s.CompanyID == nil || *s.CompanyID != *companyID)) {
		return nil, apperr.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakePortal) ListSchedules(_ context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Schedule
	for _, s := range f.schedules {
		if filter.CollectorID != "" && (s.CollectorID == nil || *s.CollectorID != filter.CollectorID) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakePortal) TransitionSchedule(ctx context.Context, id string, companyID *string, change models.ScheduleChange) (*models.Schedule, error) {
	s, err := f.GetSchedule(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Apply(change, time.Now()); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules[id] = s
	return s, nil
}

func newPortalFixture() *fakePortal {
	today := models.DateOf(time.Now())
	schedule := func(id, collector string, company *string) *models.Schedule {
		return &models.Schedule{
			ID:                 id,
			RouteID:            "r-" + id,
			CollectorID:        strPtr(collector),
			CompanyID:          company,
			ScheduledDate:      today,
			Status:             models.ScheduleStatusScheduled,
			CustomersScheduled: 10,
		}
	}
	return &fakePortal{
		schedules: map[string]*models.Schedule{
			"s-mine":   schedule("s-mine", "col-1", tenantA),
			"s-theirs": schedule("s-theirs", "col-2", tenantA),
			"s-other":  schedule("s-other", "col-9", tenantB),
		},
		collectors: map[string]*models.Collector{
			"u-col-1": {ID: "col-1", CompanyID: tenantA, EmployeeID: "EMP-001"},
		},
	}
}

const schedulePattern = "/api/collector/schedules/{id}/start"

func TestMyScheduleTransition(t *testing.T) {
	store := newPortalFixture()
	h := MyScheduleTransition(store, websocket.NewHub(), models.ActionStart)
	collector := models.Actor{UserID: "u-col-1", Role: models.RoleCollector, CompanyID: tenantA}

	t.Run("someone else's schedule is forbidden", func(t *testing.T) {
		rec, resp := serve(t, &collector, http.MethodPost, schedulePattern, "/api/collector/schedules/s-theirs/start", "", h)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not_assigned", resp["code"])
		assert.Equal(t, models.ScheduleStatusScheduled, store.schedules["s-theirs"].Status)
		assert.Empty(t, store.actions())
	})

	t.Run("other tenant's schedule is not found", func(t *testing.T) {
		rec, _ := serve(t, &collector, http.MethodPost, schedulePattern, "/api/collector/schedules/s-other/start", "", h)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("own schedule starts", func(t *testing.T) {
		rec, resp := serve(t, &collector, http.MethodPost, schedulePattern, "/api/collector/schedules/s-mine/start", "", h)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "in_progress", resp["status"])
		assert.Equal(t, models.ScheduleStatusInProgress, store.schedules["s-mine"].Status)
		assert.Equal(t, []string{"start"}, store.actions())
	})

	t.Run("starting twice is an invalid transition", func(t *testing.T) {
		rec, resp := serve(t, &collector, http.MethodPost, schedulePattern, "/api/collector/schedules/s-mine/start", "", h)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_transition", resp["code"])
	})

	t.Run("account without collector profile", func(t *testing.T) {
		stranger := models.Actor{UserID: "u-none", Role: models.RoleCollector, CompanyID: tenantA}
		rec, resp := serve(t, &stranger, http.MethodPost, schedulePattern, "/api/collector/schedules/s-mine/start", "", h)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no_collector_profile", resp["code"])
	})
}

func TestMySchedulesOnlyListsOwn(t *testing.T) {
	store := newPortalFixture()
	collector := models.Actor{UserID: "u-col-1", Role: models.RoleCollector, CompanyID: tenantA}

	req := httptest.NewRequest(http.MethodGet, "/api/collector/schedules", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), collector))
	rec := httptest.NewRecorder()
	MySchedules(store)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "s-mine", items[0]["id"])
}
