// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package store keeps geocoding results in DuckDB so that later runs don't
// have to ask the provider again.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/talkmap/geocode"
)

// h3Resolution of the cell stored next to each entry, roughly city sized.
const h3Resolution = 5

// Entry is a cached geocoding result.
type Entry struct {
	Location string `json:"location"`
	geocode.Result
	H3Res5    int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists geocoding results. It implements geocode.CacheStore.
type Repository struct {
	db *sql.DB
}

var _ geocode.CacheStore = (*Repository)(nil)

// Open opens (creating it if needed) the DuckDB database at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

// NewRepository creates a new repository over db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSchema creates the geocodes table.
func (r *Repository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocodes (
			location VARCHAR PRIMARY KEY,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			provider VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL,
			confidence VARCHAR NOT NULL,
			h3_res5 BIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geocodes table: %w", err)
	}

	return nil
}

// Get returns the cached result for location.
func (r *Repository) Get(location string) (*geocode.Result, bool, error) {
	var result geocode.Result

	err := r.db.QueryRow(`
		SELECT latitude, longitude, provider, display_name, confidence
		FROM geocodes
		WHERE location = ?
	`, location).Scan(
		&result.Latitude,
		&result.Longitude,
		&result.Provider,
		&result.DisplayName,
		&result.Confidence,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("querying geocode for %q: %w", location, err)
	}

	return &result, true, nil
}

// Save stores or replaces the result for location.
func (r *Repository) Save(location string, result *geocode.Result) error {
	return r.BulkInsert([]*Entry{{Location: location, Result: *result, CreatedAt: time.Now()}})
}

// BulkInsert stores or replaces the given entries in a single transaction.
func (r *Repository) BulkInsert(entries []*Entry) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}

		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO geocodes(
			location,
			latitude,
			longitude,
			provider,
			display_name,
			confidence,
			h3_res5,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		cell, err := e.Point().Cell(h3Resolution)
		if err != nil {
			return fmt.Errorf("indexing %q: %w", e.Location, err)
		}

		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := stmt.Exec(
			e.Location,
			e.Latitude,
			e.Longitude,
			e.Provider,
			e.DisplayName,
			e.Confidence,
			int64(cell),
			createdAt,
		); err != nil {
			return fmt.Errorf("inserting %q: %w", e.Location, err)
		}
	}

	return tx.Commit()
}

// ListSorted returns every entry sorted by location.
func (r *Repository) ListSorted() ([]*Entry, error) {
	rows, err := r.db.Query(`
		SELECT location, latitude, longitude, provider, display_name, confidence, h3_res5, created_at
		FROM geocodes
		ORDER BY location
	`)
	if err != nil {
		return nil, fmt.Errorf("listing geocodes: %w", err)
	}
	defer rows.Close()

	var entries []*Entry

	for rows.Next() {
		var (
			e    Entry
			cell sql.NullInt64
		)

		if err := rows.Scan(
			&e.Location,
			&e.Latitude,
			&e.Longitude,
			&e.Provider,
			&e.DisplayName,
			&e.Confidence,
			&cell,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning geocode: %w", err)
		}

		e.H3Res5 = cell.Int64
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Count returns the number of cached locations.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT count(*) FROM geocodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting geocodes: %w", err)
	}

	return count, nil
}
