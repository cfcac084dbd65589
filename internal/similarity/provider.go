// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package similarity provides the item-to-item similarity capability used by
// the online recommender.
//
// The production implementation serves lookups from a precomputed
// nearest-neighbor table exported by the offline training pipeline and loaded
// from parquet at startup. The Breaker wrapper adds circuit breaking and rate
// limiting so a degraded capability degrades online recommendations instead
// of taking down the request path.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/recs"
)

// ErrUnknownTrack indicates the queried track has no neighbor entry.
var ErrUnknownTrack = errors.New("unknown track")

// StaticProvider answers similarity lookups from an in-memory neighbor table.
// It is safe for concurrent use; Replace swaps the table wholesale.
type StaticProvider struct {
	mu    sync.RWMutex
	table map[recs.TrackID][]recs.ScoredTrack
}

// NewStaticProvider creates a provider over the given neighbor table. Each
// neighbor list is expected in descending score order with the query track
// itself leading its own list, as exported by the nearest-neighbor model.
func NewStaticProvider(table map[recs.TrackID][]recs.ScoredTrack) *StaticProvider {
	if table == nil {
		table = map[recs.TrackID][]recs.ScoredTrack{}
	}
	return &StaticProvider{table: table}
}

// Replace swaps in a new neighbor table.
func (p *StaticProvider) Replace(table map[recs.TrackID][]recs.ScoredTrack) {
	if table == nil {
		table = map[recs.TrackID][]recs.ScoredTrack{}
	}
	p.mu.Lock()
	p.table = table
	p.mu.Unlock()
}

// Similar returns up to n tracks similar to trackID in descending score
// order. The stored list's leading self-entry is dropped; only true
// neighbors are candidates.
func (p *StaticProvider) Similar(ctx context.Context, trackID recs.TrackID, n int) ([]recs.ScoredTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	neighbors, ok := p.table[trackID]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTrack, trackID)
	}

	// The first stored entry is the query track itself.
	if len(neighbors) > 0 && neighbors[0].ID == trackID {
		neighbors = neighbors[1:]
	}
	if n < 0 {
		n = 0
	}
	if n > len(neighbors) {
		n = len(neighbors)
	}

	out := make([]recs.ScoredTrack, n)
	copy(out, neighbors[:n])
	return out, nil
}

// observe records lookup metrics shared by provider wrappers.
func observe(start time.Time, status string) {
	metrics.SimilarityLookups.WithLabelValues(status).Inc()
	metrics.SimilarityLookupDuration.Observe(time.Since(start).Seconds())
}
