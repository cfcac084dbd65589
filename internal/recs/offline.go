// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
)

// offlineTables holds one immutable generation of loaded tables. Loads build
// a new generation and swap the pointer, so readers never observe a partially
// replaced table.
type offlineTables struct {
	personal map[UserID][]ScoredTrack
	defaults []ScoredTrack
}

// OfflineStore answers per-user top-k lookups against precomputed
// recommendation tables with tiered fallback: users with a personal entry are
// served from it, everyone else from the shared popularity table.
// It is safe for concurrent use.
type OfflineStore struct {
	mu     sync.RWMutex
	tables *offlineTables

	personalServed atomic.Int64
	defaultServed  atomic.Int64

	logger zerolog.Logger
}

// NewOfflineStore creates an OfflineStore with empty tables. Until tables are
// installed, Get returns empty results.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOfflineStore(logger zerolog.Logger) *OfflineStore {
	return &OfflineStore{
		tables: &offlineTables{
			personal: map[UserID][]ScoredTrack{},
		},
		logger: logger.With().Str("component", "offline-store").Logger(),
	}
}

// SetPersonal replaces the personal table wholesale. The per-user lists must
// already be sorted by descending score; the loader guarantees this.
func (s *OfflineStore) SetPersonal(table map[UserID][]ScoredTrack) {
	if table == nil {
		table = map[UserID][]ScoredTrack{}
	}

	s.mu.Lock()
	s.tables = &offlineTables{
		personal: table,
		defaults: s.tables.defaults,
	}
	s.mu.Unlock()

	metrics.OfflineTableRows.WithLabelValues("personal").Set(float64(len(table)))
	s.logger.Info().Int("users", len(table)).Msg("personal recommendations installed")
}

// SetDefault replaces the popularity fallback table wholesale. The list must
// already be sorted by descending popularity weight.
func (s *OfflineStore) SetDefault(table []ScoredTrack) {
	s.mu.Lock()
	s.tables = &offlineTables{
		personal: s.tables.personal,
		defaults: table,
	}
	s.mu.Unlock()

	metrics.OfflineTableRows.WithLabelValues("default").Set(float64(len(table)))
	s.logger.Info().Int("tracks", len(table)).Msg("default recommendations installed")
}

// Get returns up to k precomputed track recommendations for the user.
//
// Tier selection is an explicit presence check: users with a personal entry
// are served from it and counted as personal, all others fall back to the
// default table and are counted as default. Exactly one counter is
// incremented per call. An empty result (tables not loaded, or an empty
// default table) is a normal outcome, logged but never an error.
func (s *OfflineStore) Get(userID UserID, k int) []TrackID {
	s.mu.RLock()
	tables := s.tables
	s.mu.RUnlock()

	var source []ScoredTrack
	if personal, ok := tables.personal[userID]; ok {
		source = personal
		s.personalServed.Add(1)
		metrics.RecommendationsServed.WithLabelValues("personal").Inc()
		s.logger.Info().
			Int64("user_id", int64(userID)).
			Int("available", len(personal)).
			Msg("serving personal recommendations")
	} else {
		source = tables.defaults
		s.defaultServed.Add(1)
		metrics.RecommendationsServed.WithLabelValues("default").Inc()
		s.logger.Info().
			Int64("user_id", int64(userID)).
			Int("available", len(tables.defaults)).
			Msg("no personal entry, serving default recommendations")
	}

	if len(source) == 0 {
		metrics.RecommendationsEmpty.Inc()
		s.logger.Warn().
			Int64("user_id", int64(userID)).
			Msg("no offline recommendations available")
		return []TrackID{}
	}

	if k < 0 {
		k = 0
	}
	if k > len(source) {
		k = len(source)
	}
	recs := make([]TrackID, 0, k)
	for _, st := range source[:k] {
		recs = append(recs, st.ID)
	}
	return recs
}

// Stats returns a snapshot of the served counters.
func (s *OfflineStore) Stats() Stats {
	return Stats{
		PersonalServed: s.personalServed.Load(),
		DefaultServed:  s.defaultServed.Load(),
	}
}
