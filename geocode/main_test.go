// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGeocoder answers from a fixed table and records every call.
type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]*Result
	errs    map[string][]error
	calls   []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, location string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, location)

	if queued := f.errs[location]; len(queued) > 0 {
		err := queued[0]
		f.errs[location] = queued[1:]

		return nil, err
	}

	if r, ok := f.results[location]; ok {
		return r, nil
	}

	return nil, NotFound(location)
}

func (f *fakeGeocoder) callCount(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if c == location {
			n++
		}
	}

	return n
}
