// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the taxonomy
// service. Handlers are grouped by concern (taxonomy CRUD, browse
// sessions) and receive their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"taxotree/internal/editor"
	"taxotree/internal/models"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

// errorBody is the uniform error payload.
type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. NotEmpty and the ID
// collisions are expected caller-recoverable outcomes; anything unmapped
// is treated as a persistence failure.
func writeError(w http.ResponseWriter, err error) {
	var notEmpty *models.NotEmptyError

	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &notEmpty):
		writeJSON(w, http.StatusConflict, errorBody{Error: notEmpty.Error()})
	case errors.Is(err, models.ErrNotEmpty):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrAlreadyExists), errors.Is(err, models.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, errorBody{Error: "identifier already in use"})
	case errors.Is(err, models.ErrDeleted):
		writeJSON(w, http.StatusGone, errorBody{Error: "object is deleted"})
	case errors.Is(err, editor.ErrInvalidMove):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrIDAllocation):
		slog.Error("id allocation exhausted", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "could not allocate identifier"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
