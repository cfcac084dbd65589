// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package similarity

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/melodex/internal/logging"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/recs"
)

// Breaker wraps a similarity provider with circuit breaker and rate limiting.
//
// The breaker prevents a failing or slow capability from dragging every
// online recommendation through repeated timeouts: once it opens, lookups
// fail fast and the online recommender skips those contributions. The rate
// limiter bounds the lookup fan-out across concurrent requests.
type Breaker struct {
	inner   recs.SimilarityProvider
	cb      *gobreaker.CircuitBreaker[[]recs.ScoredTrack]
	limiter *rate.Limiter
	name    string
}

// BreakerConfig holds Breaker tuning.
type BreakerConfig struct {
	// RateLimit is the sustained lookups-per-second budget. 0 disables
	// rate limiting.
	RateLimit float64

	// Burst is the limiter burst size. Only used when RateLimit > 0.
	Burst int
}

// NewBreaker wraps inner with circuit breaking and optional rate limiting.
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreaker(inner recs.SimilarityProvider, cfg BreakerConfig) *Breaker {
	cbName := "similarity"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]recs.ScoredTrack](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		// Unknown tracks are a data condition, not capability failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownTrack)
		},

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Breaker{
		inner:   inner,
		cb:      cb,
		limiter: limiter,
		name:    cbName,
	}
}

// Similar performs a protected similarity lookup.
func (b *Breaker) Similar(ctx context.Context, trackID recs.TrackID, n int) ([]recs.ScoredTrack, error) {
	start := time.Now()

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			observe(start, "rejected")
			return nil, err
		}
	}

	result, err := b.cb.Execute(func() ([]recs.ScoredTrack, error) {
		return b.inner.Similar(ctx, trackID, n)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			observe(start, "rejected")
		} else {
			observe(start, "failure")
		}
		return nil, err
	}

	observe(start, "success")
	return result, nil
}

// stateToString converts a gobreaker state to its metric label.
func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// stateToFloat converts a gobreaker state to its metric gauge value.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
