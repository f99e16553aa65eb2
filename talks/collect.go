// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package talks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/talkmap/utils/textutils"
)

// Record is a talk with a usable location.
type Record struct {
	Path     string
	Location string
	Metadata
}

// NormalizeSpace collapses whitespace runs in a location and trims it.
func NormalizeSpace(location string) string {
	return textutils.NormalizeSpace(location)
}

// Collect scans dir for markdown talks in lexicographic order and returns the
// ones with a non-empty location. Unreadable files and files without a
// location are logged and skipped. The error is only set when the directory
// itself can't be listed.
func Collect(dir string, logger *slog.Logger) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing talks directory: %w", err)
	}

	records := make([]Record, 0, len(entries))

	// os.ReadDir returns the entries sorted by filename
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		location, ok, err := ExtractLocation(path)
		if err != nil {
			logger.Warn("Failed to parse talk metadata", "path", path, "error", err)

			continue
		}

		if !ok {
			logger.Debug("Skipping talk without location", "path", path)

			continue
		}

		normalized := NormalizeSpace(location)
		if normalized == "" {
			logger.Debug("Skipping talk with empty normalized location", "path", path)

			continue
		}

		meta, err := ReadMetadata(path)
		if err != nil {
			logger.Debug("Ignoring unparseable front matter", "path", path, "error", err)
		}

		records = append(records, Record{Path: path, Location: normalized, Metadata: meta})
	}

	return records, nil
}

// Locations returns the location of every record, duplicates included.
func Locations(records []Record) []string {
	locations := make([]string, len(records))
	for i, r := range records {
		locations[i] = r.Location
	}

	return locations
}

// TitlesByLocation groups the talk titles (or file names when a talk has no
// title) by location, preserving the collection order.
func TitlesByLocation(records []Record) map[string][]string {
	titles := make(map[string][]string)

	for _, r := range records {
		title := r.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(r.Path), ".md")
		}

		titles[r.Location] = append(titles[r.Location], title)
	}

	return titles
}
