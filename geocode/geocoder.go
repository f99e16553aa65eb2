// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free-text locations into coordinates.
package geocode

import (
	"context"

	"github.com/jcodagnone/talkmap/spatial"
)

// Confidence levels reported by the providers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Confidence  string  `json:"confidence"` // high, medium, low
	Provider    string  `json:"provider"`
	DisplayName string  `json:"display_name"`
}

// Point returns the coordinates of the result.
func (r *Result) Point() spatial.Point {
	return spatial.Point{Lat: r.Latitude, Lng: r.Longitude}
}

// LocationMap maps a normalized location string to its geocoding result.
type LocationMap map[string]*Result

// Geocoder is implemented by the geocoding providers and their decorators.
//
// A location without match is reported as a *GeocodingError of type
// ErrorTypeNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*Result, error)
}

// GeocoderFunc adapts a function into a Geocoder.
type GeocoderFunc func(ctx context.Context, location string) (*Result, error)

// Geocode implements Geocoder.
func (f GeocoderFunc) Geocode(ctx context.Context, location string) (*Result, error) {
	return f(ctx, location)
}
