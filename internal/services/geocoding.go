package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"isuku-backend/internal/models"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GeocodingService resolves service area addresses to coordinates using the
// Google Maps Geocoding API.
type GeocodingService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Coordinates represents latitude and longitude
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GoogleGeocodeResponse represents the Google Maps Geocoding API response
type GoogleGeocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// NewGeocodingService returns nil when apiKey is empty; a nil service leaves
// coordinates untouched.
func NewGeocodingService(apiKey string) *GeocodingService {
	if apiKey == "" {
		return nil
	}
	return &GeocodingService{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode converts an address string to coordinates, biased to Rwanda.
func (s *GeocodingService) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	params := url.Values{}
	params.Add("address", address)
	params.Add("region", "rw")
	params.Add("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	var result GoogleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Status != "OK" {
		return nil, fmt.Errorf("geocoding API returned status: %s", result.Status)
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("no results found for address: %s", address)
	}

	location := result.Results[0].Geometry.Location
	return &location, nil
}

// LocateServiceArea fills in a's coordinates from its address when they are
// missing. Lookup failures are logged and leave a unchanged.
func (s *GeocodingService) LocateServiceArea(ctx context.Context, a *models.ServiceArea) {
	if s == nil || (a.Latitude != nil && a.Longitude != nil) {
		return
	}
	address := a.FullAddress()
	if address == "" {
		return
	}

	coords, err := s.Geocode(ctx, address+", Rwanda")
	if err != nil {
		log.Printf("⚠️  Geocoding failed for service area %s: %v", a.Code, err)
		return
	}
	a.Latitude = &coords.Lat
	a.Longitude = &coords.Lng
	log.Printf("🌍 Geocoded service area %s to %.5f, %.5f", a.Code, coords.Lat, coords.Lng)
}
