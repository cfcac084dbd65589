// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/melodex/internal/logging"
)

// APIError describes a failed request in the error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the JSON envelope for failed requests.
type errorResponse struct {
	Status string    `json:"status"`
	Error  *APIError `json:"error"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes a structured error response and logs the cause.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}

	respondJSON(w, status, &errorResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// queryInt64 parses an int64 query parameter. Missing values return an error
// when required, or def otherwise.
func queryInt64(r *http.Request, name string, def int64, required bool) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, &missingParamError{name: name}
		}
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// queryInt parses an int query parameter with a default for missing values.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// missingParamError marks a required query parameter that was not supplied.
type missingParamError struct {
	name string
}

func (e *missingParamError) Error() string {
	return "missing required parameter: " + e.name
}
