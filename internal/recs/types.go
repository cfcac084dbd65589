// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package recs implements the recommendation blending pipeline: the offline
// table store with tiered fallback, the online recommender that expands
// recent user events into similar-track candidates, and the positional
// interleave blender that merges both lists into one deduplicated,
// length-bounded result.
//
// This package has no dependencies on other internal packages beyond logging
// and metrics. Event history, similarity lookups and catalog metadata are
// consumed through interfaces defined here, so the storage and capability
// implementations can evolve without touching the core pipeline.
package recs

import "context"

// UserID identifies a user. IDs are opaque, source-assigned and non-negative.
type UserID int64

// TrackID identifies a music track. IDs are opaque and source-assigned.
type TrackID int64

// ScoredTrack pairs a track with a relevance weight. Higher is better.
// Offline popularity weights and online similarity scores are not comparable
// across sources; the blender only interleaves positionally.
type ScoredTrack struct {
	ID    TrackID
	Score float64
}

// Stats is a read-only snapshot of the offline store usage counters.
type Stats struct {
	PersonalServed int64 `json:"request_personal_count"`
	DefaultServed  int64 `json:"request_default_count"`
}

// EventSource supplies a user's recent interaction history, most-recent-first.
// Implemented by events.Store.
type EventSource interface {
	// Get returns up to k most recent track interactions for the user.
	// Unknown users yield an empty slice, not an error.
	Get(userID UserID, k int) []TrackID
}

// SimilarityProvider is the external item-to-item nearest-neighbor capability.
type SimilarityProvider interface {
	// Similar returns up to n tracks similar to trackID, ordered by
	// descending score. The query track itself is never included.
	Similar(ctx context.Context, trackID TrackID, n int) ([]ScoredTrack, error)
}

// TrackInfo is display metadata for a track, used only for diagnostics.
type TrackInfo struct {
	Name   string
	Artist string
}

// TrackResolver translates a track ID into display metadata.
// Implemented by catalog.Catalog.
type TrackResolver interface {
	Lookup(ctx context.Context, trackID TrackID) (TrackInfo, error)
}
