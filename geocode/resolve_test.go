// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Unique([]string{"c", "a", "b", "a", "c"}))
	assert.Empty(t, Unique(nil))

	in := []string{"b", "a"}
	Unique(in)
	assert.Equal(t, []string{"b", "a"}, in, "input must not be modified")
}

func TestResolveDeduplicates(t *testing.T) {
	fake := &fakeGeocoder{results: map[string]*Result{
		"Austin, TX": {Latitude: 30.27, Longitude: -97.74, Provider: ProviderNominatim},
	}}

	locationMap, err := Resolve(context.Background(), fake, []string{"Austin, TX", "Austin, TX"}, discardLogger())
	require.NoError(t, err)

	assert.Len(t, locationMap, 1)
	assert.Equal(t, 1, fake.callCount("Austin, TX"))
	assert.InDelta(t, 30.27, locationMap["Austin, TX"].Latitude, 1e-9)
}

func TestResolveSortedAndPartial(t *testing.T) {
	fake := &fakeGeocoder{
		results: map[string]*Result{
			"Berlin, Germany": {Latitude: 52.52, Longitude: 13.40},
			"Lima, Peru":      {Latitude: -12.04, Longitude: -77.04},
		},
		errs: map[string][]error{
			"Broken": {&GeocodingError{Type: ErrorTypeTimeout, Message: "request timed out"}},
		},
	}

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, nil))

	locationMap, err := Resolve(context.Background(), fake,
		[]string{"Lima, Peru", "Broken", "Atlantis", "Berlin, Germany"}, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"Atlantis", "Berlin, Germany", "Broken", "Lima, Peru"}, fake.calls)
	assert.Len(t, locationMap, 2)
	assert.Contains(t, locationMap, "Berlin, Germany")
	assert.Contains(t, locationMap, "Lima, Peru")

	assert.Contains(t, logs.String(), `msg="No geocode match for location" location=Atlantis`)
	assert.Contains(t, logs.String(), `msg="Geocoding failed for location" location=Broken`)
}

func TestResolveNilResultIsNoMatch(t *testing.T) {
	g := GeocoderFunc(func(context.Context, string) (*Result, error) {
		return nil, nil
	})

	locationMap, err := Resolve(context.Background(), g, []string{"x"}, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, locationMap)
}

func TestResolveStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	g := GeocoderFunc(func(ctx context.Context, _ string) (*Result, error) {
		calls++
		cancel()

		return nil, ctx.Err()
	})

	_, err := Resolve(ctx, g, []string{"a", "b", "c"}, discardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestResolveEmpty(t *testing.T) {
	fake := &fakeGeocoder{}

	locationMap, err := Resolve(context.Background(), fake, nil, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, locationMap)
	assert.Empty(t, fake.calls)
}
