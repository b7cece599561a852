// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// editClient holds the recent mutation timestamps for one caller.
type editClient struct {
	mu     sync.Mutex
	stamps []time.Time
}

// RateLimiter throttles the mutating tree-edit endpoints per client IP
// with a sliding window. Every edit rewrites a whole classification
// snapshot under that classification's lock, so an unthrottled client
// hammering POST/PUT/DELETE can serialize everyone else behind it.
// Lookups and browse sessions are never routed through this limiter.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*editClient
	limit   int
	window  time.Duration
	done    chan struct{}
}

// NewRateLimiter creates a limiter allowing limit edits per window for
// each client IP and starts a janitor goroutine that evicts idle clients.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*editClient),
		limit:   limit,
		window:  window,
		done:    make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Stop terminates the janitor goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) janitor() {
	// Sweep a few windows apart; precision doesn't matter, only that
	// one-off clients don't accumulate forever.
	interval := 4 * rl.window
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// allow records an edit attempt for key and reports whether it fits in
// the window.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.RLock()
	c := rl.clients[key]
	rl.mu.RUnlock()

	if c == nil {
		rl.mu.Lock()
		if c = rl.clients[key]; c == nil {
			c = &editClient{}
			rl.clients[key] = c
		}
		rl.mu.Unlock()
	}

	now := time.Now()
	cutoff := now.Add(-rl.window)

	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.stamps[:0]
	for _, ts := range c.stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	c.stamps = live

	if len(c.stamps) >= rl.limit {
		return false
	}
	c.stamps = append(c.stamps, now)
	return true
}

// sweep drops clients whose last edit fell out of the window.
func (rl *RateLimiter) sweep() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		c.mu.Lock()
		idle := len(c.stamps) == 0 || !c.stamps[len(c.stamps)-1].After(cutoff)
		c.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects over-limit edit requests with 429 and the service's
// JSON error payload, plus a Retry-After hint of one full window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			slog.Warn("edit rate limit exceeded",
				"ip", ip,
				"method", r.Method,
				"path", r.URL.Path,
				"limit", rl.limit,
				"window", rl.window.String(),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many edit requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the caller's IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Leftmost entry is the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
