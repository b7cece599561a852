// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxotree/internal/browse"
	"taxotree/internal/manager"
	"taxotree/internal/models"
)

// Browse groups the navigation-tree browse-session handlers. Child sets
// come from the node arena rather than straight from the manager, so
// expanding the same subtree across sessions reuses loaded nodes.
type Browse struct {
	mgr      *manager.Manager
	src      browse.TreeSource
	sessions *browse.SessionStore
}

// NewBrowse creates the browse handler group.
func NewBrowse(mgr *manager.Manager, src browse.TreeSource, sessions *browse.SessionStore) *Browse {
	return &Browse{mgr: mgr, src: src, sessions: sessions}
}

// browseResponse is the payload returned by every browse endpoint.
type browseResponse struct {
	SessionID        string                `json:"session_id"`
	ClassificationID string                `json:"classification_id"`
	ViewMode         models.ViewMode       `json:"view_mode"`
	HideEmptyLeaves  bool                  `json:"hide_empty_leaves"`
	Lines            []models.RenderedLine `json:"lines"`
}

func respond(w http.ResponseWriter, status int, id string, st *browse.State) {
	writeJSON(w, status, browseResponse{
		SessionID:        id,
		ClassificationID: st.ClassificationID,
		ViewMode:         st.ViewMode,
		HideEmptyLeaves:  st.HideEmptyLeaves,
		Lines:            st.Render(),
	})
}

// Start handles POST /browse/{classificationID}: creates a new browse
// session showing the classification's root level.
func (h *Browse) Start(w http.ResponseWriter, r *http.Request) {
	classificationID := chi.URLParam(r, "classificationID")

	// Reject unknown classifications up front so a session is never
	// created for a tree that does not exist.
	if _, err := h.mgr.GetClassification(r.Context(), classificationID); err != nil {
		writeError(w, err)
		return
	}

	st, err := browse.Initialize(r.Context(), h.src, classificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.sessions.Create(r.Context(), st)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, id, st)
}

// Get handles GET /browse/sessions/{sessionID}: renders the current
// line list without changing state.
func (h *Browse) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	st, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, id, st)
}

// Toggle handles POST /browse/sessions/{sessionID}/toggle/{catID}.
func (h *Browse) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	st, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := st.Toggle(r.Context(), h.src, chi.URLParam(r, "catID")); err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.Save(r.Context(), id, st); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, id, st)
}

// optionsRequest is the PUT .../options payload. Pointer fields so a
// caller can change one option without resetting the other.
type optionsRequest struct {
	ViewMode        *models.ViewMode `json:"view_mode"`
	HideEmptyLeaves *bool            `json:"hide_empty_leaves"`
}

// Options handles PUT /browse/sessions/{sessionID}/options.
func (h *Browse) Options(w http.ResponseWriter, r *http.Request) {
	var req optionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	id := chi.URLParam(r, "sessionID")
	st, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.ViewMode != nil {
		if *req.ViewMode != models.ModeTree && *req.ViewMode != models.ModeFlat {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown view mode"})
			return
		}
		st.ViewMode = *req.ViewMode
	}
	if req.HideEmptyLeaves != nil {
		st.HideEmptyLeaves = *req.HideEmptyLeaves
	}
	if err := h.sessions.Save(r.Context(), id, st); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, id, st)
}

// End handles DELETE /browse/sessions/{sessionID}.
func (h *Browse) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
