// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	entries map[string]*Result
	getErr  error
	saveErr error
	saves   int
}

func (m *memoryStore) Get(location string) (*Result, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}

	r, ok := m.entries[location]

	return r, ok, nil
}

func (m *memoryStore) Save(location string, result *Result) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}

	m.entries[location] = result

	return nil
}

func TestCachedServesHitsWithoutNetwork(t *testing.T) {
	store := &memoryStore{entries: map[string]*Result{"Austin, TX": {Latitude: 30.27}}}
	fake := &fakeGeocoder{}

	c := NewCached(store, fake, discardLogger())

	result, err := c.Geocode(context.Background(), "Austin, TX")
	require.NoError(t, err)
	assert.InDelta(t, 30.27, result.Latitude, 1e-9)
	assert.Empty(t, fake.calls)
}

func TestCachedFillsStoreOnMiss(t *testing.T) {
	store := &memoryStore{entries: map[string]*Result{}}
	fake := &fakeGeocoder{results: map[string]*Result{"Lima, Peru": {Latitude: -12.04}}}

	c := NewCached(store, fake, discardLogger())

	for range 2 {
		_, err := c.Geocode(context.Background(), "Lima, Peru")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, fake.callCount("Lima, Peru"))
	assert.Equal(t, 1, store.saves)
}

func TestCachedDoesNotStoreMisses(t *testing.T) {
	store := &memoryStore{entries: map[string]*Result{}}
	c := NewCached(store, &fakeGeocoder{}, discardLogger())

	_, err := c.Geocode(context.Background(), "Atlantis")
	assert.True(t, IsNotFoundError(err))
	assert.Zero(t, store.saves)
}

func TestCachedSaveFailureKeepsResult(t *testing.T) {
	store := &memoryStore{entries: map[string]*Result{}, saveErr: errors.New("disk full")}
	fake := &fakeGeocoder{results: map[string]*Result{"Lima, Peru": {Latitude: -12.04}}}

	result, err := NewCached(store, fake, discardLogger()).Geocode(context.Background(), "Lima, Peru")
	require.NoError(t, err)
	assert.InDelta(t, -12.04, result.Latitude, 1e-9)
}

func TestCachedReadFailure(t *testing.T) {
	store := &memoryStore{getErr: errors.New("db closed")}
	fake := &fakeGeocoder{}

	_, err := NewCached(store, fake, discardLogger()).Geocode(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading geocode cache")
	assert.Empty(t, fake.calls)
}
