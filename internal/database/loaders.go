// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/melodex/internal/logging"
	"github.com/tomtom215/melodex/internal/recs"
)

// ErrMissingColumns indicates a parquet source lacks required columns.
// Malformed tables are rejected here at load time so the read path never has
// to deal with them.
var ErrMissingColumns = errors.New("source is missing required columns")

// Required column sets per table kind.
var (
	personalColumns  = []string{"user_id", "track_id", "score"}
	defaultColumns   = []string{"track_id", "popularity_weighted"}
	neighborsColumns = []string{"track_id", "similar_track_id", "score"}
	catalogColumns   = []string{"track_id", "track_name", "artist_name"}
)

// LoadPersonal reads the per-user offline recommendation table from a parquet
// source. The returned lists are sorted by descending score per user.
func (db *DB) LoadPersonal(ctx context.Context, path string) (map[recs.UserID][]recs.ScoredTrack, error) {
	if err := db.validateColumns(ctx, path, personalColumns); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, track_id, score FROM read_parquet(?) ORDER BY user_id, score DESC`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personal recommendations from %s: %w", path, err)
	}
	defer closeRows(rows)

	table := make(map[recs.UserID][]recs.ScoredTrack)
	count := 0
	for rows.Next() {
		var userID int64
		var trackID int64
		var score float64
		if err := rows.Scan(&userID, &trackID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan personal recommendation row: %w", err)
		}
		uid := recs.UserID(userID)
		table[uid] = append(table[uid], recs.ScoredTrack{ID: recs.TrackID(trackID), Score: score})
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read personal recommendations from %s: %w", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("rows", count).
		Int("users", len(table)).
		Msg("Loaded personal recommendations")
	return table, nil
}

// LoadDefault reads the shared popularity table from a parquet source,
// sorted by descending popularity weight.
func (db *DB) LoadDefault(ctx context.Context, path string) ([]recs.ScoredTrack, error) {
	if err := db.validateColumns(ctx, path, defaultColumns); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT track_id, popularity_weighted FROM read_parquet(?) ORDER BY popularity_weighted DESC`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read default recommendations from %s: %w", path, err)
	}
	defer closeRows(rows)

	var table []recs.ScoredTrack
	for rows.Next() {
		var trackID int64
		var weight float64
		if err := rows.Scan(&trackID, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan default recommendation row: %w", err)
		}
		table = append(table, recs.ScoredTrack{ID: recs.TrackID(trackID), Score: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read default recommendations from %s: %w", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("rows", len(table)).
		Msg("Loaded default recommendations")
	return table, nil
}

// LoadNeighbors reads the precomputed similar-track table from a parquet
// source. Each track maps to its neighbor list in descending score order; the
// track itself leads its own list with the maximum score, mirroring the
// nearest-neighbor model output the table was exported from.
func (db *DB) LoadNeighbors(ctx context.Context, path string) (map[recs.TrackID][]recs.ScoredTrack, error) {
	if err := db.validateColumns(ctx, path, neighborsColumns); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT track_id, similar_track_id, score FROM read_parquet(?) ORDER BY track_id, score DESC`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read similar tracks from %s: %w", path, err)
	}
	defer closeRows(rows)

	table := make(map[recs.TrackID][]recs.ScoredTrack)
	count := 0
	for rows.Next() {
		var trackID int64
		var similarID int64
		var score float64
		if err := rows.Scan(&trackID, &similarID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan similar track row: %w", err)
		}
		tid := recs.TrackID(trackID)
		table[tid] = append(table[tid], recs.ScoredTrack{ID: recs.TrackID(similarID), Score: score})
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read similar tracks from %s: %w", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("rows", count).
		Int("tracks", len(table)).
		Msg("Loaded similar-track table")
	return table, nil
}

// LoadCatalog reads track display metadata from a parquet source.
func (db *DB) LoadCatalog(ctx context.Context, path string) (map[recs.TrackID]recs.TrackInfo, error) {
	if err := db.validateColumns(ctx, path, catalogColumns); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT track_id, track_name, artist_name FROM read_parquet(?)`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog from %s: %w", path, err)
	}
	defer closeRows(rows)

	table := make(map[recs.TrackID]recs.TrackInfo)
	for rows.Next() {
		var trackID int64
		var name, artist sql.NullString
		if err := rows.Scan(&trackID, &name, &artist); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		table[recs.TrackID(trackID)] = recs.TrackInfo{
			Name:   name.String,
			Artist: artist.String,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog from %s: %w", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("tracks", len(table)).
		Msg("Loaded track catalog")
	return table, nil
}

// validateColumns checks that the parquet source exposes every required
// column. Reading zero rows is enough to surface both unreadable sources and
// schema mismatches before the full scan.
func (db *DB) validateColumns(ctx context.Context, path string, required []string) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT * FROM read_parquet(?) LIMIT 0`, path)
	if err != nil {
		return fmt.Errorf("failed to read source %s: %w", path, err)
	}
	defer closeRows(rows)

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to inspect columns of %s: %w", path, err)
	}

	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, want := range required {
		if _, ok := present[want]; !ok {
			return fmt.Errorf("%w: %s lacks column %q", ErrMissingColumns, path, want)
		}
	}
	return nil
}

// closeRows closes rows, logging rather than returning errors.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing rows")
	}
}
