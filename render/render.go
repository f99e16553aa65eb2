// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package render writes the geocoded talk locations as a Leaflet map.
package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jcodagnone/talkmap/geocode"
)

// Output files written by HTMLRenderer.
const (
	MapFile       = "map.html"
	LocationsFile = "org-locations.js"
	ClustersFile  = "clusters.json"
)

// DefaultH3Resolution groups points roughly at metro area scale.
const DefaultH3Resolution = 3

const hashedLabelLength = 12

// Input is what gets drawn.
type Input struct {
	// Locations to draw, keyed by label.
	Locations geocode.LocationMap

	// Talks lists the talk titles per label. Optional.
	Talks map[string][]string
}

// Options controls where and how the map is written.
type Options struct {
	// Dir must exist.
	Dir string

	// Cluster groups nearby markers at low zoom levels.
	Cluster bool

	// HashLabels replaces each label with a digest and drops talk titles.
	HashLabels bool

	// H3Resolution used for clusters.json. Zero means DefaultH3Resolution.
	H3Resolution int
}

// Renderer writes map artifacts.
type Renderer interface {
	Render(ctx context.Context, input Input, options Options) error
}

// HTMLRenderer writes a self contained Leaflet page plus its data files.
type HTMLRenderer struct{}

// NewHTMLRenderer creates a new HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

type marker struct {
	Label string
	Lat   float64
	Lng   float64
	Talks []string
	Count int
}

// MarshalJSON encodes a marker as the [label, lat, lng, talks] tuple
// consumed by the page.
func (m marker) MarshalJSON() ([]byte, error) {
	talks := m.Talks
	if talks == nil {
		talks = []string{}
	}

	return json.Marshal([]any{m.Label, m.Lat, m.Lng, talks})
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, input Input, options Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	markers := buildMarkers(input, options.HashLabels)

	if err := writeLocations(filepath.Join(options.Dir, LocationsFile), markers); err != nil {
		return err
	}

	resolution := options.H3Resolution
	if resolution == 0 {
		resolution = DefaultH3Resolution
	}

	clusters, err := BuildClusters(markers, resolution)
	if err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(options.Dir, ClustersFile), clusters); err != nil {
		return err
	}

	return writeMap(filepath.Join(options.Dir, MapFile), pageData{
		Cluster:   options.Cluster,
		Locations: len(markers),
		Clusters:  len(clusters),
	})
}

// HashLabel returns the obscured form of a label.
func HashLabel(label string) string {
	sum := sha256.Sum256([]byte(label))

	return hex.EncodeToString(sum[:])[:hashedLabelLength]
}

func buildMarkers(input Input, hashLabels bool) []marker {
	markers := make([]marker, 0, len(input.Locations))

	for label, result := range input.Locations {
		if result == nil {
			continue
		}

		m := marker{
			Label: label,
			Lat:   result.Latitude,
			Lng:   result.Longitude,
			Count: len(input.Talks[label]),
		}

		if hashLabels {
			m.Label = HashLabel(label)
		} else {
			m.Talks = input.Talks[label]
		}

		markers = append(markers, m)
	}

	slices.SortFunc(markers, func(a, b marker) int {
		return strings.Compare(a.Label, b.Label)
	})

	return markers
}

func writeLocations(path string, markers []marker) error {
	var sb strings.Builder

	sb.WriteString("var addressPoints = [\n")

	for _, m := range markers {
		line, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding marker %q: %w", m.Label, err)
		}

		sb.WriteString("  ")
		sb.Write(line)
		sb.WriteString(",\n")
	}

	sb.WriteString("];\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil { // #nosec G306 - published artifact
		return fmt.Errorf("writing %s: %w", LocationsFile, err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306 - published artifact
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	return nil
}

type pageData struct {
	Cluster   bool
	Locations int
	Clusters  int
}

func writeMap(path string, data pageData) error {
	f, err := os.Create(path) // #nosec G304 - path is built from the output directory
	if err != nil {
		return fmt.Errorf("creating %s: %w", MapFile, err)
	}

	if err := mapTemplate.Execute(f, data); err != nil {
		f.Close()

		return fmt.Errorf("rendering %s: %w", MapFile, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", MapFile, err)
	}

	return nil
}

var mapTemplate = template.Must(template.New(MapFile).Parse(mapHTML))
