package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// GeocodingService resolves free-form addresses to coordinates through a
// Nominatim-compatible endpoint. Lookups are best-effort; callers treat a
// failure as "no coordinates", never as a request failure.
type GeocodingService struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeocodingService creates a geocoding service from GEOCODER_BASE_URL
func NewGeocodingService() *GeocodingService {
	baseURL := os.Getenv("GEOCODER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &GeocodingService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to (lat, lng). Returns ok=false when the
// address cannot be resolved.
func (s *GeocodingService) Geocode(ctx context.Context, address string) (lat, lng float64, ok bool) {
	if address == "" {
		return 0, 0, false
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", s.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, false
	}
	req.Header.Set("User-Agent", "driverent-backend")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return 0, 0, false
	}

	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lng); err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
