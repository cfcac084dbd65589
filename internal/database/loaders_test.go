// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/recs"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// writeParquet materializes query results as a parquet file for load tests.
func writeParquet(t *testing.T, db *DB, query, path string) {
	t.Helper()

	copySQL := "COPY (" + query + ") TO '" + path + "' (FORMAT PARQUET)"
	if _, err := db.Conn().ExecContext(context.Background(), copySQL); err != nil {
		t.Fatalf("failed to write parquet fixture: %v", err)
	}
}

func TestLoadPersonal(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "personal.parquet")

	// Rows are written unsorted; the loader must order per user by score.
	writeParquet(t, db, `
		SELECT * FROM (VALUES
			(CAST(1 AS BIGINT), CAST(102 AS BIGINT), CAST(0.8 AS DOUBLE)),
			(CAST(2 AS BIGINT), CAST(201 AS BIGINT), CAST(0.4 AS DOUBLE)),
			(CAST(1 AS BIGINT), CAST(101 AS BIGINT), CAST(0.9 AS DOUBLE))
		) t(user_id, track_id, score)`, path)

	table, err := db.LoadPersonal(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPersonal returned error: %v", err)
	}

	want := map[recs.UserID][]recs.ScoredTrack{
		1: {{ID: 101, Score: 0.9}, {ID: 102, Score: 0.8}},
		2: {{ID: 201, Score: 0.4}},
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("LoadPersonal = %v, want %v", table, want)
	}
}

func TestLoadDefault(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "default.parquet")

	writeParquet(t, db, `
		SELECT * FROM (VALUES
			(CAST(202 AS BIGINT), CAST(90 AS DOUBLE)),
			(CAST(201 AS BIGINT), CAST(100 AS DOUBLE))
		) t(track_id, popularity_weighted)`, path)

	table, err := db.LoadDefault(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDefault returned error: %v", err)
	}

	want := []recs.ScoredTrack{{ID: 201, Score: 100}, {ID: 202, Score: 90}}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("LoadDefault = %v, want %v", table, want)
	}
}

func TestLoadNeighbors(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "neighbors.parquet")

	// The exported table leads each list with the track itself at score 1.
	writeParquet(t, db, `
		SELECT * FROM (VALUES
			(CAST(10 AS BIGINT), CAST(20 AS BIGINT), CAST(0.9 AS DOUBLE)),
			(CAST(10 AS BIGINT), CAST(10 AS BIGINT), CAST(1.0 AS DOUBLE)),
			(CAST(10 AS BIGINT), CAST(21 AS BIGINT), CAST(0.5 AS DOUBLE))
		) t(track_id, similar_track_id, score)`, path)

	table, err := db.LoadNeighbors(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadNeighbors returned error: %v", err)
	}

	want := map[recs.TrackID][]recs.ScoredTrack{
		10: {{ID: 10, Score: 1.0}, {ID: 20, Score: 0.9}, {ID: 21, Score: 0.5}},
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("LoadNeighbors = %v, want %v", table, want)
	}
}

func TestLoadCatalog(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "items.parquet")

	writeParquet(t, db, `
		SELECT * FROM (VALUES
			(CAST(1 AS BIGINT), 'Gymnopedie No.1', 'Erik Satie'),
			(CAST(2 AS BIGINT), CAST(NULL AS VARCHAR), CAST(NULL AS VARCHAR))
		) t(track_id, track_name, artist_name)`, path)

	table, err := db.LoadCatalog(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	want := map[recs.TrackID]recs.TrackInfo{
		1: {Name: "Gymnopedie No.1", Artist: "Erik Satie"},
		2: {},
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("LoadCatalog = %v, want %v", table, want)
	}
}

func TestLoadMissingColumns(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "wrong.parquet")

	writeParquet(t, db, `
		SELECT * FROM (VALUES
			(CAST(1 AS BIGINT), CAST(0.5 AS DOUBLE))
		) t(user_id, score)`, path)

	if _, err := db.LoadPersonal(context.Background(), path); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("LoadPersonal error = %v, want ErrMissingColumns", err)
	}
	if _, err := db.LoadDefault(context.Background(), path); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("LoadDefault error = %v, want ErrMissingColumns", err)
	}
	if _, err := db.LoadNeighbors(context.Background(), path); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("LoadNeighbors error = %v, want ErrMissingColumns", err)
	}
	if _, err := db.LoadCatalog(context.Background(), path); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("LoadCatalog error = %v, want ErrMissingColumns", err)
	}
}

func TestLoadNonexistentSource(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "missing.parquet")

	if _, err := db.LoadPersonal(context.Background(), path); err == nil {
		t.Error("expected error for nonexistent source")
	}
	if _, err := db.LoadPersonal(context.Background(), path); errors.Is(err, ErrMissingColumns) {
		t.Error("unreadable source must not be reported as a schema mismatch")
	}
}

func TestLoadEmptySource(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "empty.parquet")

	writeParquet(t, db, `
		SELECT CAST(1 AS BIGINT) AS user_id, CAST(1 AS BIGINT) AS track_id,
		       CAST(1.0 AS DOUBLE) AS score
		WHERE false`, path)

	table, err := db.LoadPersonal(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPersonal returned error: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("LoadPersonal over empty source = %v, want empty", table)
	}
}
