// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package catalog provides track display metadata lookups. The catalog is
// used only for the diagnostic logging side channel; it never participates
// in ranking and a miss is never a request failure.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/melodex/internal/recs"
)

// ErrNotFound indicates a track has no catalog entry.
var ErrNotFound = errors.New("track not found in catalog")

// Catalog maps track IDs to display metadata. It is safe for concurrent use;
// Replace swaps the table wholesale.
type Catalog struct {
	mu    sync.RWMutex
	table map[recs.TrackID]recs.TrackInfo
}

// New creates a Catalog over the given metadata table.
func New(table map[recs.TrackID]recs.TrackInfo) *Catalog {
	if table == nil {
		table = map[recs.TrackID]recs.TrackInfo{}
	}
	return &Catalog{table: table}
}

// Replace swaps in a new metadata table.
func (c *Catalog) Replace(table map[recs.TrackID]recs.TrackInfo) {
	if table == nil {
		table = map[recs.TrackID]recs.TrackInfo{}
	}
	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
}

// Lookup returns display metadata for trackID.
func (c *Catalog) Lookup(ctx context.Context, trackID recs.TrackID) (recs.TrackInfo, error) {
	if err := ctx.Err(); err != nil {
		return recs.TrackInfo{}, err
	}

	c.mu.RLock()
	info, ok := c.table[trackID]
	c.mu.RUnlock()

	if !ok {
		return recs.TrackInfo{}, fmt.Errorf("%w: %d", ErrNotFound, trackID)
	}
	return info, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}
