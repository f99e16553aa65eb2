// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Defaults follow the Nominatim usage policy of at most one request per second.
const (
	DefaultMinDelay   = time.Second
	DefaultMaxRetries = 2
	DefaultErrorWait  = 2 * time.Second
)

// RateLimitOptions configures RateLimited.
type RateLimitOptions struct {
	// MinDelay between the start of two successive requests.
	MinDelay time.Duration

	// MaxRetries after the first attempt for retryable errors.
	MaxRetries int

	// ErrorWait before retrying a failed request.
	ErrorWait time.Duration
}

// DefaultRateLimitOptions returns the default pacing.
func DefaultRateLimitOptions() RateLimitOptions {
	return RateLimitOptions{
		MinDelay:   DefaultMinDelay,
		MaxRetries: DefaultMaxRetries,
		ErrorWait:  DefaultErrorWait,
	}
}

// RateLimited paces the calls to a Geocoder and retries transient failures.
type RateLimited struct {
	next    Geocoder
	limiter *rate.Limiter
	options RateLimitOptions
	logger  *slog.Logger
}

// NewRateLimited wraps next. It is not safe for concurrent use, the pacing
// only makes sense for a single caller.
func NewRateLimited(next Geocoder, options RateLimitOptions, logger *slog.Logger) *RateLimited {
	limit := rate.Inf
	if options.MinDelay > 0 {
		limit = rate.Every(options.MinDelay)
	}

	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}

	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		options: options,
		logger:  logger,
	}
}

// Geocode implements Geocoder.
func (r *RateLimited) Geocode(ctx context.Context, location string) (*Result, error) {
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := r.next.Geocode(ctx, location)
		if err == nil {
			return result, nil
		}

		if attempt >= r.options.MaxRetries || !IsRetryable(err) {
			return nil, err
		}

		r.logger.Debug("Retrying geocoding request",
			"location", location,
			"attempt", attempt+1,
			"max_retries", r.options.MaxRetries,
			"wait", r.options.ErrorWait,
			"error", err)

		if err := sleep(ctx, r.options.ErrorWait); err != nil {
			return nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
