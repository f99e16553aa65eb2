// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"log/slog"
)

// CacheStore persists geocoding results between runs.
type CacheStore interface {
	// Get returns the cached result for location, if any.
	Get(location string) (*Result, bool, error)

	// Save stores the result for location.
	Save(location string, result *Result) error
}

// Cached serves results from a CacheStore and fills it from the wrapped
// Geocoder. Misses without a match are not stored.
type Cached struct {
	store  CacheStore
	next   Geocoder
	logger *slog.Logger
}

// NewCached wraps next with store.
func NewCached(store CacheStore, next Geocoder, logger *slog.Logger) *Cached {
	return &Cached{store: store, next: next, logger: logger}
}

// Geocode implements Geocoder.
func (c *Cached) Geocode(ctx context.Context, location string) (*Result, error) {
	cached, ok, err := c.store.Get(location)
	if err != nil {
		return nil, fmt.Errorf("reading geocode cache: %w", err)
	}

	if ok {
		c.logger.Debug("Geocode cache hit", "location", location)

		return cached, nil
	}

	result, err := c.next.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	if err := c.store.Save(location, result); err != nil {
		// the result is still good for this run
		c.logger.Warn("Failed to store geocode result", "location", location, "error", err)
	}

	return result, nil
}
