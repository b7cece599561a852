// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package browse

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taxotree/internal/models"
)

const (
	// DefaultTTL is how long an idle browse session lives in Valkey.
	DefaultTTL = 2 * time.Hour

	// keyPrefix namespaces browse-session keys in Valkey.
	keyPrefix = "browse:"

	// idLength is the byte length of the random session ID.
	idLength = 16
)

// SessionStore keeps one navigation State per browse session, keyed by a
// random session ID, with automatic TTL expiry. Confinement to one
// caller at a time per session is the transport layer's concern; the
// store itself only loads and saves whole values.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store over the given Valkey client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Create stores a new state under a fresh session ID and returns the ID.
func (s *SessionStore) Create(ctx context.Context, st *State) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("browse session id: %w", err)
	}
	if err := s.Save(ctx, id, st); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads the state for a session ID. A missing or expired session
// reports ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*State, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("browse session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("browse session get: %w", err)
	}

	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("browse session unmarshal: %w", err)
	}
	return &st, nil
}

// Save writes the state back under its session ID and resets the TTL.
func (s *SessionStore) Save(ctx context.Context, id string, st *State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("browse session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("browse session save: %w", err)
	}
	return nil
}

// Destroy drops a session.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("browse session destroy: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
