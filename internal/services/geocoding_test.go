package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"isuku-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geocodeServer(t *testing.T, body string) (*GeocodingService, *string) {
	t.Helper()
	var gotAddress string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		assert.Equal(t, "rw", r.URL.Query().Get("region"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	svc := NewGeocodingService("test-key")
	svc.baseURL = srv.URL
	return svc, &gotAddress
}

func TestLocateServiceArea(t *testing.T) {
	svc, gotAddress := geocodeServer(t, `{"status":"OK","results":[{"formatted_address":"Kacyiru, Kigali","geometry":{"location":{"lat":-1.9355,"lng":30.0875}}}]}`)

	area := &models.ServiceArea{Code: "GSB-KCY", Sector: "Kacyiru", District: "Gasabo", Province: "Kigali City"}
	svc.LocateServiceArea(context.Background(), area)

	assert.Equal(t, "Kacyiru, Gasabo, Kigali City, Rwanda", *gotAddress)
	require.NotNil(t, area.Latitude)
	require.NotNil(t, area.Longitude)
	assert.InDelta(t, -1.9355, *area.Latitude, 1e-9)
	assert.InDelta(t, 30.0875, *area.Longitude, 1e-9)
}

func TestLocateServiceArea_KeepsExistingAndFailures(t *testing.T) {
	svc, gotAddress := geocodeServer(t, `{"status":"ZERO_RESULTS","results":[]}`)

	lat, lng := -2.0, 30.0
	placed := &models.ServiceArea{Sector: "Remera", Latitude: &lat, Longitude: &lng}
	svc.LocateServiceArea(context.Background(), placed)
	assert.Empty(t, *gotAddress, "no lookup when coordinates are set")

	unknown := &models.ServiceArea{Sector: "Nowhere"}
	svc.LocateServiceArea(context.Background(), unknown)
	assert.Nil(t, unknown.Latitude)

	var none *GeocodingService
	assert.NotPanics(t, func() { none.LocateServiceArea(context.Background(), unknown) })
	assert.Nil(t, NewGeocodingService(""))
}
