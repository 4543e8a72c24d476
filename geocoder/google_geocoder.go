// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
	"golang.org/x/time/rate"
)

const defaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsConfig configures a GoogleMapsGeocoder. Zero values pick
// sensible defaults.
type GoogleMapsConfig struct {
	APIKey string
	// BaseURL of the geocoding endpoint.
	BaseURL string
	// Transport used for the requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Timeout   time.Duration
	// RequestsPerSecond and Burst throttle outgoing requests.
	RequestsPerSecond float64
	Burst             int
}

// GoogleMapsGeocoder uses the Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(cfg GoogleMapsConfig) *GoogleMapsGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleMapsURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	return &GoogleMapsGeocoder{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Transport: cfg.Transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string   `json:"formatted_address"`
		Types            []string `json:"types"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode implements Geocoder. The country, when given, restricts the
// search through a component filter.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, location, country string) (*Result, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "location is blank"}
	}

	if g.apiKey == "" {
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "google maps API key is not configured"}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeRateLimit, Message: "waiting for rate limiter", Err: err}
	}

	params := url.Values{}
	params.Set("address", location)
	params.Set("key", g.apiKey)

	if country = strings.TrimSpace(country); country != "" {
		params.Set("components", "country:"+country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if gmResp.Status != "OK" {
		return nil, classifyStatus(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found for location: " + location}
	}

	result := gmResp.Results[0]

	point := spatial.Point{Lat: result.Geometry.Location.Lat, Lng: result.Geometry.Location.Lng}
	if err := point.Validate(); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "invalid coordinates in response", Err: err}
	}

	return &Result{
		Point:       point,
		Confidence:  confidenceFromLocationType(result.Geometry.LocationType, result.Types),
		Provider:    ProviderGoogleMaps,
		DisplayName: result.FormattedAddress,
		MatchType:   MatchTypeRemote,
	}, nil
}

// confidenceFromLocationType rates a Google result. Participants answer
// with cities, so an approximate locality is as good as it gets.
func confidenceFromLocationType(locationType string, types []string) resolver.Confidence {
	switch locationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		return resolver.ConfidenceHigh
	case "GEOMETRIC_CENTER":
		return resolver.ConfidenceMedium
	}

	for _, t := range types {
		if t == "locality" || t == "postal_code" {
			return resolver.ConfidenceMedium
		}
	}

	return resolver.ConfidenceLow
}

func classifyTransportError(err error) *GeocodingError {
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	default:
		return &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
	}
}
