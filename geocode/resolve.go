// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Unique returns the distinct locations in sorted order.
func Unique(locations []string) []string {
	unique := slices.Clone(locations)
	slices.Sort(unique)

	return slices.Compact(unique)
}

// Resolve geocodes each distinct location once, in sorted order. Locations
// without match or whose lookup fails are logged and left out of the map. The
// error is only set when ctx is done.
func Resolve(ctx context.Context, g Geocoder, locations []string, logger *slog.Logger) (LocationMap, error) {
	unique := Unique(locations)
	n := len(unique)

	var bar *progressbar.ProgressBar
	if n > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	locationMap := make(LocationMap, n)

	for i, location := range unique {
		if err := ctx.Err(); err != nil {
			return locationMap, err
		}

		if bar == nil {
			logger.Debug("Geocoding location", "location", location, "index", i+1, "total", n)
		}

		result, err := g.Geocode(ctx, location)

		if bar != nil {
			_ = bar.Add(1)
		}

		switch {
		case err == nil && result == nil, IsNotFoundError(err):
			logger.Warn("No geocode match for location", "location", location)
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return locationMap, ctxErr
			}

			logger.Warn("Geocoding failed for location", "location", location, "error", err)
		default:
			locationMap[location] = result
			logger.Debug("Geocoded location",
				"location", location,
				"latitude", result.Latitude,
				"longitude", result.Longitude)
		}
	}

	return locationMap, nil
}
