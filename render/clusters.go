// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"slices"

	"github.com/jcodagnone/talkmap/spatial"
)

// Cluster groups the markers that fall in the same H3 cell.
type Cluster struct {
	Cell         string        `json:"cell"`
	Resolution   int           `json:"resolution"`
	Center       spatial.Point `json:"center"`
	RadiusMeters float64       `json:"radius_meters"`
	Labels       []string      `json:"labels"`
	Talks        int           `json:"talks"`
}

// BuildClusters groups markers by H3 cell at the given resolution. Clusters
// are sorted by cell and their labels keep the marker order.
func BuildClusters(markers []marker, resolution int) ([]*Cluster, error) {
	byCell := make(map[string]*Cluster)
	points := make(map[string][]spatial.Point)

	for _, m := range markers {
		p := spatial.Point{Lat: m.Lat, Lng: m.Lng}

		cell, err := p.Cell(resolution)
		if err != nil {
			return nil, fmt.Errorf("clustering %q: %w", m.Label, err)
		}

		key := cell.String()

		c, ok := byCell[key]
		if !ok {
			c = &Cluster{Cell: key, Resolution: resolution}
			byCell[key] = c
		}

		c.Labels = append(c.Labels, m.Label)
		c.Talks += m.Count
		points[key] = append(points[key], p)
	}

	clusters := make([]*Cluster, 0, len(byCell))

	for key, c := range byCell {
		c.Center = spatial.Centroid(points[key])

		for _, p := range points[key] {
			c.RadiusMeters = max(c.RadiusMeters, c.Center.HaversineDistance(&p))
		}

		clusters = append(clusters, c)
	}

	slices.SortFunc(clusters, func(a, b *Cluster) int {
		switch {
		case a.Cell < b.Cell:
			return -1
		case a.Cell > b.Cell:
			return 1
		default:
			return 0
		}
	})

	return clusters, nil
}
