// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ProviderNominatim identifies results coming from OpenStreetMap Nominatim.
const ProviderNominatim = "nominatim"

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(options *ClientOptions) (*NominatimGeocoder, error) {
	if options == nil || strings.TrimSpace(options.UserAgent) == "" {
		return nil, fmt.Errorf("%s: a user agent is required", ProviderNominatim)
	}

	baseURL := DefaultNominatimURL
	if options.BaseURL != "" {
		baseURL = options.BaseURL
	}

	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(options),
	}, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	PlaceRank   int    `json:"place_rank"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	reqURL := g.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: ProviderNominatim + ": building request",
			Err:     err,
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, ProviderNominatim, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, ProviderNominatim)
	}

	var places []nominatimPlace
	if err := decodeJSON(ProviderNominatim, resp.Body, &places); err != nil {
		return nil, err
	}

	if len(places) == 0 {
		return nil, NotFound(location)
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: ProviderNominatim + ": invalid latitude", Err: err}
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: ProviderNominatim + ": invalid longitude", Err: err}
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lng,
		Confidence:  nominatimConfidence(place.PlaceRank),
		Provider:    ProviderNominatim,
		DisplayName: place.DisplayName,
	}, nil
}

// CloseIdleConnections releases the connections kept by the client.
func (g *NominatimGeocoder) CloseIdleConnections() {
	g.httpClient.CloseIdleConnections()
}

// place_rank goes from 4 (country) to 30 (building).
func nominatimConfidence(rank int) string {
	switch {
	case rank >= 26:
		return ConfidenceHigh
	case rank >= 16:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
