// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service composes the offline store, the online recommender and the blender
// into the blended recommendation pipeline consumed by the API layer.
type Service struct {
	offline *OfflineStore
	online  *OnlineRecommender

	// resolver powers the optional diagnostic side channel. Nil disables it.
	resolver TrackResolver

	logger zerolog.Logger
}

// NewService creates the blended recommendation service. resolver may be nil
// to disable diagnostic catalog lookups.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(offline *OfflineStore, online *OnlineRecommender, resolver TrackResolver, logger zerolog.Logger) *Service {
	return &Service{
		offline:  offline,
		online:   online,
		resolver: resolver,
		logger:   logger.With().Str("component", "recs").Logger(),
	}
}

// Recommend returns up to k blended recommendations for the user: offline and
// online lists merged by positional interleave, deduplicated, truncated to k.
func (s *Service) Recommend(ctx context.Context, userID UserID, k, n int) []TrackID {
	start := time.Now()

	offline := s.offline.Get(userID, k)
	online := s.online.Get(ctx, userID, k, n)

	blended := Blend(offline, online, k)

	s.logger.Debug().
		Int64("user_id", int64(userID)).
		Int("offline", len(offline)).
		Int("online", len(online)).
		Int("blended", len(blended)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("blended recommendations")

	s.logResolvedTracks(blended)
	return blended
}

// Online returns the online-only recommendation list for the user.
func (s *Service) Online(ctx context.Context, userID UserID, k, n int) []TrackID {
	recs := s.online.Get(ctx, userID, k, n)
	s.logResolvedTracks(recs)
	return recs
}

// Offline exposes the offline store for stats and reload handling.
func (s *Service) Offline() *OfflineStore {
	return s.offline
}

// logResolvedTracks emits one debug log line per recommended track with the
// catalog-resolved name and artist. It runs off the critical path and a
// catalog miss is never a request failure.
func (s *Service) logResolvedTracks(recs []TrackID) {
	if s.resolver == nil || len(recs) == 0 {
		return
	}

	if s.logger.GetLevel() > zerolog.DebugLevel || zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	tracks := make([]TrackID, len(recs))
	copy(tracks, recs)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, id := range tracks {
			info, err := s.resolver.Lookup(ctx, id)
			if err != nil {
				s.logger.Debug().
					Int64("track_id", int64(id)).
					Msg("catalog lookup miss")
				continue
			}
			s.logger.Debug().
				Int64("track_id", int64(id)).
				Str("track_name", info.Name).
				Str("artist_name", info.Artist).
				Msg("recommended track")
		}
	}()
}
