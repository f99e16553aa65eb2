// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jcodagnone/talkmap/utils/textutils"
)

// ErrInvalidEntry is returned when an export holds an unusable geocode.
var ErrInvalidEntry = errors.New("invalid geocode entry")

// SeedData represents the JSON export format.
type SeedData struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Geocodes    []*Entry  `json:"geocodes"`
}

// ExportToJSON writes every cached entry, sorted by location, to filepath.
func ExportToJSON(repo *Repository, filepath string) (int, error) {
	entries, err := repo.ListSorted()
	if err != nil {
		return 0, err
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
		Geocodes:    entries,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(entries), nil
}

// ImportFromJSON loads the entries of an export into the repository,
// replacing existing locations. Locations are whitespace normalized so they
// match the keys used on lookup. Nothing is stored if any entry is invalid.
func ImportFromJSON(repo *Repository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the operator
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	for i, e := range seed.Geocodes {
		if e == nil {
			return 0, fmt.Errorf("%w: geocodes[%d] is null", ErrInvalidEntry, i)
		}

		e.Location = textutils.NormalizeSpace(e.Location)
		if e.Location == "" {
			return 0, fmt.Errorf("%w: geocodes[%d] has an empty location", ErrInvalidEntry, i)
		}
	}

	if err := repo.BulkInsert(seed.Geocodes); err != nil {
		return 0, fmt.Errorf("importing geocodes: %w", err)
	}

	return len(seed.Geocodes), nil
}
