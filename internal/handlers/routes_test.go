package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"isuku-backend/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRouteUpdate(t *testing.T) {
	archivedAt := int64(1717200000)
	route := &models.Route{
		Name:           "Kimihurura",
		Description:    "Upper loop",
		SequenceNumber: 3,
		Frequency:      models.FrequencyWeekly,
		CollectionDays: pq.StringArray{"monday"},
		Status:         models.RouteStatusArchived,
		ArchivedAt:     &archivedAt,
		Notes:          "gate code 1234",
	}

	name := "Kimihurura East"
	freq := "twice_weekly"
	status := "active"
	start := "07:30"
	applyRouteUpdate(route, models.UpdateRouteRequest{
		Name:                &name,
		Frequency:           &freq,
		CollectionDays:      []string{"tuesday", "friday"},
		CollectionTimeStart: &start,
		Status:              &status,
	})

	assert.Equal(t, "Kimihurura East", route.Name)
	assert.Equal(t, models.FrequencyTwiceWeekly, route.Frequency)
	assert.Equal(t, pq.StringArray{"tuesday", "friday"}, route.CollectionDays)
	assert.Equal(t, "07:30", route.TimeWindow().Start)
	assert.Equal(t, models.DefaultTimeWindow.End, route.TimeWindow().End)
	assert.Equal(t, models.RouteStatusActive, route.Status)
	assert.Nil(t, route.ArchivedAt, "reactivating clears the archive stamp")

	// untouched
	assert.Equal(t, "Upper loop", route.Description)
	assert.Equal(t, 3, route.SequenceNumber)
	assert.Equal(t, "gate code 1234", route.Notes)
}

func TestScheduleChange(t *testing.T) {
	newReq := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}

	change, err := scheduleChange(newReq(`{"customers_collected":40,"customers_missed":2}`), models.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, models.ActionComplete, change.Action)
	require.NotNil(t, change.CustomersCollected)
	assert.Equal(t, 40, *change.CustomersCollected)

	change, err = scheduleChange(newReq(`{"reason":"Truck broke down"}`), models.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, "Truck broke down", change.Reason)

	change, err = scheduleChange(newReq(""), models.ActionStart)
	require.NoError(t, err)
	assert.Equal(t, models.ActionStart, change.Action)

	_, err = scheduleChange(newReq(`{"customers_collected":-1}`), models.ActionComplete)
	assert.Error(t, err)
}
