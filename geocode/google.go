// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ProviderGoogleMaps identifies results coming from the Google Maps Geocoding API.
const ProviderGoogleMaps = "google_maps"

const defaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	region     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. region is an
// optional ccTLD used to bias the results.
func NewGoogleMapsGeocoder(apiKey, region string, options *ClientOptions) (*GoogleMapsGeocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: an API key is required", ProviderGoogleMaps)
	}

	if options == nil {
		options = &ClientOptions{}
	}

	baseURL := defaultGoogleMapsURL
	if options.BaseURL != "" {
		baseURL = options.BaseURL
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		region:     region,
		baseURL:    baseURL,
		httpClient: newHTTPClient(options),
	}, nil
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
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	params := url.Values{}
	params.Set("address", location)
	params.Set("key", g.apiKey)

	if g.region != "" {
		params.Set("region", g.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: ProviderGoogleMaps + ": building request",
			Err:     err,
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, ProviderGoogleMaps, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, ProviderGoogleMaps)
	}

	var gmResp googleMapsResponse
	if err := decodeJSON(ProviderGoogleMaps, resp.Body, &gmResp); err != nil {
		return nil, err
	}

	if err := classifyGoogleStatus(gmResp.Status, gmResp.ErrorMessage, location); err != nil {
		return nil, err
	}

	if len(gmResp.Results) == 0 {
		return nil, NotFound(location)
	}

	result := gmResp.Results[0]

	confidence := ConfidenceLow

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = ConfidenceHigh
	case "GEOMETRIC_CENTER":
		confidence = ConfidenceMedium
	}

	return &Result{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Confidence:  confidence,
		Provider:    ProviderGoogleMaps,
		DisplayName: result.FormattedAddress,
	}, nil
}

// CloseIdleConnections releases the connections kept by the client.
func (g *GoogleMapsGeocoder) CloseIdleConnections() {
	g.httpClient.CloseIdleConnections()
}

func classifyGoogleStatus(status, message, location string) error {
	msg := ProviderGoogleMaps + " status: " + status
	if message = strings.TrimSpace(message); message != "" {
		msg += " (" + message + ")"
	}

	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		return NotFound(location)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		return &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: msg}
	case "INVALID_REQUEST":
		return &GeocodingError{Type: ErrorTypeInvalidRequest, Message: msg}
	default:
		return &GeocodingError{Type: ErrorTypeUnknown, Message: msg}
	}
}
