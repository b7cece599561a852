// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxotree/internal/editor"
	"taxotree/internal/manager"
	"taxotree/internal/models"
	"taxotree/internal/tree"
)

// Taxonomy groups the classification lookup and tree-editing handlers.
// Every successful edit invalidates the arena so open browse sessions
// see the rewritten tree on their next expand.
type Taxonomy struct {
	mgr    *manager.Manager
	editor *editor.TreeEditor
	arena  *tree.Arena
}

// NewTaxonomy creates the taxonomy handler group.
func NewTaxonomy(mgr *manager.Manager, ed *editor.TreeEditor, arena *tree.Arena) *Taxonomy {
	return &Taxonomy{mgr: mgr, editor: ed, arena: arena}
}

// GetClassification handles GET /classifications/{id}.
func (h *Taxonomy) GetClassification(w http.ResponseWriter, r *http.Request) {
	cls, err := h.mgr.GetClassification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

// GetTree handles GET /classifications/{id}/tree — the full snapshot.
func (h *Taxonomy) GetTree(w http.ResponseWriter, r *http.Request) {
	snap, err := h.mgr.LoadSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetCategory handles GET /classifications/{id}/categories/{catID}.
func (h *Taxonomy) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.mgr.GetCategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "catID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// parentParam reads the optional ?parent= query value; absent means the
// root level.
func parentParam(r *http.Request) *string {
	if p := r.URL.Query().Get("parent"); p != "" {
		return &p
	}
	return nil
}

// GetChildren handles GET /classifications/{id}/children[?parent=].
func (h *Taxonomy) GetChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.mgr.GetChildren(r.Context(), chi.URLParam(r, "id"), parentParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if children == nil {
		children = []*models.Category{}
	}
	writeJSON(w, http.StatusOK, children)
}

// CountChildren handles GET /classifications/{id}/children/count[?parent=].
func (h *Taxonomy) CountChildren(w http.ResponseWriter, r *http.Request) {
	count, err := h.mgr.CountChildren(r.Context(), chi.URLParam(r, "id"), parentParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// createClassificationRequest is the POST /classifications payload.
type createClassificationRequest struct {
	Labels []models.Label `json:"labels"`
}

// CreateClassification handles POST /classifications.
func (h *Taxonomy) CreateClassification(w http.ResponseWriter, r *http.Request) {
	var req createClassificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	cls, err := h.editor.CreateClassification(r.Context(), req.Labels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cls)
}

// DeleteClassification handles DELETE /classifications/{id}.
func (h *Taxonomy) DeleteClassification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.editor.DeleteClassification(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.arena.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// createCategoryRequest is the POST .../categories payload. After names
// the sibling the new category is inserted behind; empty appends at the
// root level.
type createCategoryRequest struct {
	ID     string         `json:"id"`
	Labels []models.Label `json:"labels"`
	Link   *models.Link   `json:"link"`
	After  string         `json:"after"`
}

// CreateCategory handles POST /classifications/{id}/categories.
func (h *Taxonomy) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "category id is required"})
		return
	}

	id := chi.URLParam(r, "id")
	cat := &models.Category{ID: req.ID, Labels: req.Labels, Link: req.Link}
	err := h.editor.Edit(r.Context(), id, func(snap *models.Classification) error {
		return h.editor.CreateCategory(snap, cat, req.After)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.arena.Invalidate(id)
	writeJSON(w, http.StatusCreated, cat)
}

// modifyCategoryRequest is the PUT .../categories/{catID} payload.
type modifyCategoryRequest struct {
	Labels []models.Label `json:"labels"`
	Link   *models.Link   `json:"link"`
}

// ModifyCategory handles PUT /classifications/{id}/categories/{catID}.
func (h *Taxonomy) ModifyCategory(w http.ResponseWriter, r *http.Request) {
	var req modifyCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	catID := chi.URLParam(r, "catID")
	err := h.editor.Edit(r.Context(), id, func(snap *models.Classification) error {
		return h.editor.ModifyCategory(snap, catID, req.Labels, req.Link)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.arena.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// moveCategoryRequest is the POST .../move payload.
type moveCategoryRequest struct {
	Direction editor.Direction `json:"direction"`
}

// MoveCategory handles POST /classifications/{id}/categories/{catID}/move.
func (h *Taxonomy) MoveCategory(w http.ResponseWriter, r *http.Request) {
	var req moveCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	catID := chi.URLParam(r, "catID")
	err := h.editor.Edit(r.Context(), id, func(snap *models.Classification) error {
		return h.editor.MoveCategory(snap, catID, req.Direction)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.arena.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory handles DELETE /classifications/{id}/categories/{catID}.
func (h *Taxonomy) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	catID := chi.URLParam(r, "catID")
	err := h.editor.Edit(r.Context(), id, func(snap *models.Classification) error {
		return h.editor.DeleteCategory(r.Context(), snap, catID)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.arena.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}
