// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// taxonomy service. Read endpoints and browse sessions are open; the
// mutating tree-edit group runs behind the rate limiter.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxotree/internal/handlers"
	"taxotree/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(taxonomy *handlers.Taxonomy, browse *handlers.Browse, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check.
	r.Get("/health", healthHandler)

	r.Route("/classifications", func(r chi.Router) {
		// Lookups.
		r.Get("/{id}", taxonomy.GetClassification)
		r.Get("/{id}/tree", taxonomy.GetTree)
		r.Get("/{id}/children", taxonomy.GetChildren)
		r.Get("/{id}/children/count", taxonomy.CountChildren)
		r.Get("/{id}/categories/{catID}", taxonomy.GetCategory)

		// Tree edits — rate limited.
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)

			r.Post("/", taxonomy.CreateClassification)
			r.Delete("/{id}", taxonomy.DeleteClassification)
			r.Post("/{id}/categories", taxonomy.CreateCategory)
			r.Put("/{id}/categories/{catID}", taxonomy.ModifyCategory)
			r.Post("/{id}/categories/{catID}/move", taxonomy.MoveCategory)
			r.Delete("/{id}/categories/{catID}", taxonomy.DeleteCategory)
		})
	})

	r.Route("/browse", func(r chi.Router) {
		r.Post("/{classificationID}", browse.Start)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", browse.Get)
			r.Post("/toggle/{catID}", browse.Toggle)
			r.Put("/options", browse.Options)
			r.Delete("/", browse.End)
		})
	})

	return r
}

// healthHandler responds with a simple OK for liveness probes.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
