// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recs

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// OnlineRecommender expands a user's recent interaction events into a
// deduplicated, score-ranked candidate list via the external item-to-item
// similarity capability. It never substitutes offline content: a user with
// no events gets an empty result.
type OnlineRecommender struct {
	events  EventSource
	sim     SimilarityProvider
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOnlineRecommender creates an OnlineRecommender. timeout bounds each
// individual similarity lookup; zero disables the per-call timeout.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOnlineRecommender(events EventSource, sim SimilarityProvider, timeout time.Duration, logger zerolog.Logger) *OnlineRecommender {
	return &OnlineRecommender{
		events:  events,
		sim:     sim,
		timeout: timeout,
		logger:  logger.With().Str("component", "online-recommender").Logger(),
	}
}

// Get returns online recommendations for the user.
//
// Up to k recent events are expanded, each into up to n similar tracks. The
// lookups fan out concurrently and are joined in event order before a stable
// sort by descending score; ties keep accumulation order, so a candidate
// contributed by a more recent event wins its position. The combined list is
// deduplicated keeping the first (highest-scoring) occurrence.
//
// The result is not truncated to k here; the blend step applies the final
// length bound. A failed or timed-out lookup skips that event's contribution
// and never aborts the whole computation.
func (o *OnlineRecommender) Get(ctx context.Context, userID UserID, k, n int) []TrackID {
	recent := o.events.Get(userID, k)
	if len(recent) == 0 {
		o.logger.Debug().Int64("user_id", int64(userID)).Msg("no recent events")
		return []TrackID{}
	}

	// One slot per event keeps the accumulation order deterministic while
	// the lookups run concurrently.
	perEvent := make([][]ScoredTrack, len(recent))

	g, gctx := errgroup.WithContext(ctx)
	for i, trackID := range recent {
		g.Go(func() error {
			similar, err := o.lookupSimilar(gctx, trackID, n)
			if err != nil {
				o.logger.Warn().
					Err(err).
					Int64("track_id", int64(trackID)).
					Msg("similarity lookup failed, skipping event contribution")
				return nil
			}
			perEvent[i] = similar
			return nil
		})
	}
	// Workers only return nil; the group is used for the join and for
	// context propagation.
	_ = g.Wait()

	combined := make([]ScoredTrack, 0, len(recent)*n)
	for _, similar := range perEvent {
		combined = append(combined, similar...)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})

	ids := make([]TrackID, len(combined))
	for i, st := range combined {
		ids[i] = st.ID
	}
	return DedupIDs(ids)
}

// lookupSimilar performs a single similarity lookup under the per-call timeout.
func (o *OnlineRecommender) lookupSimilar(ctx context.Context, trackID TrackID, n int) ([]ScoredTrack, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.sim.Similar(ctx, trackID, n)
}
