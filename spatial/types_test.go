// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	austin := &Point{Lat: 30.2672, Lng: -97.7431}
	dallas := &Point{Lat: 32.7767, Lng: -96.7970}

	assert.InDelta(t, 0, austin.HaversineDistance(austin), 1e-6)
	// roughly 292 km between both city centers
	assert.InDelta(t, 292_000, austin.HaversineDistance(dallas), 3_000)
	assert.InDelta(t, austin.HaversineDistance(dallas), dallas.HaversineDistance(austin), 1e-6)
}

func TestValid(t *testing.T) {
	assert.True(t, Point{Lat: 0, Lng: 0}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
}

func TestCell(t *testing.T) {
	a := Point{Lat: 30.2672, Lng: -97.7431}
	b := Point{Lat: 30.2700, Lng: -97.7400}

	ca, err := a.Cell(3)
	require.NoError(t, err)

	cb, err := b.Cell(3)
	require.NoError(t, err)

	assert.Equal(t, ca, cb)
	assert.Equal(t, 3, ca.Resolution())

	_, err = a.Cell(16)
	assert.Error(t, err)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Point{}, Centroid(nil))

	c := Centroid([]Point{{Lat: 10, Lng: 20}, {Lat: 20, Lng: 40}})
	assert.InDelta(t, 15, c.Lat, 1e-9)
	assert.InDelta(t, 30, c.Lng, 1e-9)
}

func TestString(t *testing.T) {
	assert.Equal(t, "POINT(-97.743100 30.267200)", Point{Lat: 30.2672, Lng: -97.7431}.String())
}
