// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package api provides the HTTP handlers and Chi routing for Melodex.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/database"
	"github.com/tomtom215/melodex/internal/events"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/recs"
)

// loadTimeout bounds a single offline table reload.
const loadTimeout = 60 * time.Second

// Handler holds the HTTP handlers for all Melodex endpoints.
type Handler struct {
	svc      *recs.Service
	events   *events.Store
	db       *database.DB
	cfg      *config.RecommendConfig
	validate *validator.Validate
}

// NewHandler creates the endpoint handler set.
func NewHandler(svc *recs.Service, eventStore *events.Store, db *database.DB, cfg *config.RecommendConfig) *Handler {
	return &Handler{
		svc:      svc,
		events:   eventStore,
		db:       db,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// recommendationParams carries the validated query parameters for
// recommendation endpoints.
type recommendationParams struct {
	UserID int64 `validate:"gte=0"`
	K      int   `validate:"gt=0"`
	N      int   `validate:"gt=0"`
}

// parseRecommendationParams extracts and validates user_id, k and n.
func (h *Handler) parseRecommendationParams(r *http.Request) (recommendationParams, error) {
	userID, err := queryInt64(r, "user_id", 0, true)
	if err != nil {
		return recommendationParams{}, err
	}
	k, err := queryInt(r, "k", h.cfg.DefaultK)
	if err != nil {
		return recommendationParams{}, err
	}
	n, err := queryInt(r, "n", h.cfg.DefaultN)
	if err != nil {
		return recommendationParams{}, err
	}

	if k > h.cfg.MaxK {
		k = h.cfg.MaxK
	}

	params := recommendationParams{UserID: userID, K: k, N: n}
	if err := h.validate.Struct(&params); err != nil {
		return recommendationParams{}, err
	}
	return params, nil
}

// Recommendations handles POST /api/v1/recommendations.
// Returns the blended offline+online recommendation list for a user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseRecommendationParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err)
		return
	}

	recsList := h.svc.Recommend(r.Context(), recs.UserID(params.UserID), params.K, params.N)

	respondJSON(w, http.StatusOK, map[string][]recs.TrackID{"recs": recsList})
}

// OnlineRecommendations handles POST /api/v1/recommendations/online.
// Returns recommendations computed only from the user's recent events.
func (h *Handler) OnlineRecommendations(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseRecommendationParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err)
		return
	}

	recsList := h.svc.Online(r.Context(), recs.UserID(params.UserID), params.K, params.N)

	respondJSON(w, http.StatusOK, map[string][]recs.TrackID{"recs": recsList})
}

// PutEvent handles POST /api/v1/events.
// Records a user interaction event.
func (h *Handler) PutEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id", 0, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user_id", err)
		return
	}
	itemID, err := queryInt64(r, "item_id", 0, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item_id", err)
		return
	}
	if userID < 0 || itemID < 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Identifiers must be non-negative", nil)
		return
	}

	h.events.Put(recs.UserID(userID), recs.TrackID(itemID))

	respondJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// GetEvents handles GET /api/v1/events.
// Returns the user's most recent interaction events, newest first.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id", 0, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user_id", err)
		return
	}
	k, err := queryInt(r, "k", 10)
	if err != nil || k < 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid k", err)
		return
	}

	userEvents := h.events.Get(recs.UserID(userID), k)

	respondJSON(w, http.StatusOK, map[string][]recs.TrackID{"events": userEvents})
}

// LoadRecommendations handles GET /api/v1/recommendations/load.
// Reloads one offline table from a parquet source, for when the offline
// pipeline publishes fresh artifacts.
func (h *Handler) LoadRecommendations(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("rec_type")
	path := r.URL.Query().Get("file_path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file_path is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	var err error
	switch kind {
	case "personal":
		var table map[recs.UserID][]recs.ScoredTrack
		if table, err = h.db.LoadPersonal(ctx, path); err == nil {
			h.svc.Offline().SetPersonal(table)
		}
	case "default":
		var table []recs.ScoredTrack
		if table, err = h.db.LoadDefault(ctx, path); err == nil {
			h.svc.Offline().SetDefault(table)
		}
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "rec_type must be personal or default", nil)
		return
	}

	if err != nil {
		metrics.OfflineTableLoads.WithLabelValues(kind, "failure").Inc()
		status := http.StatusInternalServerError
		code := "LOAD_ERROR"
		if errors.Is(err, database.ErrMissingColumns) {
			status = http.StatusUnprocessableEntity
		}
		respondError(w, status, code, "Failed to load recommendations", err)
		return
	}

	metrics.OfflineTableLoads.WithLabelValues(kind, "success").Inc()
	respondJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// Stats handles GET /api/v1/stats.
// Returns the offline recommendation usage counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Offline().Stats())
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
