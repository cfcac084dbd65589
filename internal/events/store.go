// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package events provides the bounded per-user interaction history that feeds
// online recommendations. History lives in process memory for the process
// lifetime; persistence across restarts is out of scope.
package events

import (
	"sync"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/recs"
)

// Store keeps the most recent track interactions per user, newest first,
// bounded to a fixed capacity per user. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	events     map[recs.UserID][]recs.TrackID
	maxPerUser int
}

// NewStore creates a Store keeping at most maxPerUser events per user.
// Non-positive values fall back to the default capacity of 10.
func NewStore(maxPerUser int) *Store {
	if maxPerUser <= 0 {
		maxPerUser = 10
	}
	return &Store{
		events:     make(map[recs.UserID][]recs.TrackID),
		maxPerUser: maxPerUser,
	}
}

// Put prepends trackID to the user's history and truncates to capacity,
// keeping the newest entries. Repeated track IDs are allowed; the most recent
// occurrence always takes position 0.
func (s *Store) Put(userID recs.UserID, trackID recs.TrackID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.events[userID]
	history := make([]recs.TrackID, 0, min(len(old)+1, s.maxPerUser))
	history = append(history, trackID)
	history = append(history, old[:min(len(old), s.maxPerUser-1)]...)
	s.events[userID] = history

	metrics.EventsRecorded.Inc()
}

// Get returns up to min(k, stored) most recent events for the user, newest
// first. Unknown users yield an empty slice.
func (s *Store) Get(userID recs.UserID, k int) []recs.TrackID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.events[userID]
	if k < 0 {
		k = 0
	}
	if k > len(history) {
		k = len(history)
	}

	out := make([]recs.TrackID, k)
	copy(out, history[:k])
	return out
}
