package validation

import (
	"testing"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_RouteRequest(t *testing.T) {
	bad := "25:00"
	req := models.CreateRouteRequest{
		ServiceAreaID:       "not-a-uuid",
		Code:                "R-1",
		SequenceNumber:      1,
		Frequency:           "hourly",
		CollectionTimeStart: &bad,
	}

	err := Struct(req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	fields := apperr.FieldsOf(err)
	assert.Contains(t, fields, "service_area_id")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "frequency")
	assert.Equal(t, "Use the HH:MM 24-hour format.", fields["collection_time_start"])
}

func TestStruct_ValidRequestPasses(t *testing.T) {
	start := "06:30"
	req := models.CreateRouteRequest{
		ServiceAreaID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Name:                "Kimihurura A",
		Code:                "KMH-A",
		SequenceNumber:      3,
		Frequency:           "twice_weekly",
		CollectionDays:      []string{"Monday", "Thursday"},
		CollectionTimeStart: &start,
	}

	assert.NoError(t, Struct(req))
}

func TestPhoneRule(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"+250788123456", true},
		{"0788123456", true},
		{"12345", false},
		{"+250-788-123", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := Struct(models.CreateCollectorRequest{
				EmployeeID: "EMP-1",
				FirstName:  "Jean",
				LastName:   "Bosco",
				Phone:      tt.phone,
			})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Contains(t, apperr.FieldsOf(err), "phone")
			}
		})
	}
}

func TestIsClock(t *testing.T) {
	assert.True(t, IsClock("00:00"))
	assert.True(t, IsClock("23:59"))
	assert.False(t, IsClock("7:30"))
	assert.False(t, IsClock("24:00"))
}
