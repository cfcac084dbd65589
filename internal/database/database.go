// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package database provides the DuckDB-backed columnar loaders for Melodex.
//
// DuckDB reads the parquet recommendation artifacts (personal and default
// offline tables, the precomputed similar-track table and the track catalog)
// directly via read_parquet, so loading is a single SQL query per table with
// column validation up front. Recommendation state itself is held in memory
// by the stores; the database is only the load path.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/logging"
)

// DB wraps the DuckDB connection used for parquet loading.
type DB struct {
	conn *sql.DB
}

// New opens the DuckDB database described by cfg. The default in-memory
// database is sufficient for parquet loading.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	connStr := cfg.Path
	if cfg.Threads > 0 {
		connStr = fmt.Sprintf("%s?threads=%d", cfg.Path, cfg.Threads)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database initialized")
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the raw connection for tests and auxiliary queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// closeQuietly closes conn, logging rather than returning errors.
func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
