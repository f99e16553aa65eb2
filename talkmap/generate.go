// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package talkmap turns a directory of markdown talks into a clustered map.
package talkmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jcodagnone/talkmap/geocode"
	"github.com/jcodagnone/talkmap/render"
	"github.com/jcodagnone/talkmap/talks"
)

// Conditions that abort a run. Failures on a single file or location don't.
var (
	ErrTalksDirNotFound = errors.New("talks directory does not exist")
	ErrNoTalks          = errors.New("no talks with valid locations")
	ErrNoGeocodes       = errors.New("geocoding produced no results")
	ErrOutputDir        = errors.New("unable to create output directory")
)

// Options for a single run.
type Options struct {
	TalksDir  string
	OutputDir string

	// HashLabels obscures the location labels in the rendered map.
	HashLabels bool

	// H3Resolution for the clusters summary, zero for the renderer default.
	H3Resolution int
}

// Summary describes a successful run.
type Summary struct {
	TalksDir       string
	OutputDir      string
	TalksProcessed int
	Locations      int
	Resolved       int
}

// Generator wires the collection, geocoding and rendering steps.
type Generator struct {
	geocoder geocode.Geocoder
	renderer render.Renderer
	logger   *slog.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(geocoder geocode.Geocoder, renderer render.Renderer, logger *slog.Logger) *Generator {
	return &Generator{geocoder: geocoder, renderer: renderer, logger: logger}
}

// Generate runs the whole pipeline once.
func (g *Generator) Generate(ctx context.Context, options Options) (*Summary, error) {
	talksDir, err := filepath.Abs(options.TalksDir)
	if err != nil {
		return nil, fmt.Errorf("resolving talks directory: %w", err)
	}

	outputDir, err := filepath.Abs(options.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	if info, err := os.Stat(talksDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTalksDirNotFound, talksDir)
	}

	g.logger.Info("Starting talk map generation", "talks_dir", talksDir, "output_dir", outputDir)

	records, err := talks.Collect(talksDir, g.logger)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		g.logger.Error("No talks with valid locations found; aborting map generation")

		return nil, ErrNoTalks
	}

	locations := talks.Locations(records)

	locationMap, err := geocode.Resolve(ctx, g.geocoder, locations, g.logger)
	if err != nil {
		return nil, fmt.Errorf("geocoding locations: %w", err)
	}

	if len(locationMap) == 0 {
		g.logger.Error("Geocoding produced no results; aborting map generation")

		return nil, ErrNoGeocodes
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil { // #nosec G301 - published artifacts
		return nil, fmt.Errorf("%w %s: %w", ErrOutputDir, outputDir, err)
	}

	err = g.renderer.Render(ctx, render.Input{
		Locations: locationMap,
		Talks:     talks.TitlesByLocation(records),
	}, render.Options{
		Dir:          outputDir,
		Cluster:      true,
		HashLabels:   options.HashLabels,
		H3Resolution: options.H3Resolution,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering map: %w", err)
	}

	summary := &Summary{
		TalksDir:       talksDir,
		OutputDir:      outputDir,
		TalksProcessed: len(records),
		Locations:      len(geocode.Unique(locations)),
		Resolved:       len(locationMap),
	}

	g.logger.Info("Talk map artifacts written",
		"output_dir", outputDir,
		"locations_count", summary.Resolved,
		"talks_processed", summary.TalksProcessed)

	return summary, nil
}
