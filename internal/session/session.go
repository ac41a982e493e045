// Package session holds the opaque server-side sessions that bind a browser
// cookie to a visitor identity. The store is an injected capability with a
// redis backend for real deployments and an in-memory one for dev and tests.
package session

import (
	"context"
	"sync"
	"time"
)

// Store persists the visitor-identity claim keyed by an opaque token.
type Store interface {
	// Bind associates token with visitorID for ttl.
	Bind(ctx context.Context, token string, visitorID int64, ttl time.Duration) error

	// Lookup resolves a token; ok is false for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (visitorID int64, ok bool, err error)

	// Invalidate removes a token. Unknown tokens are not an error.
	Invalidate(ctx context.Context, token string) error
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	visitorID int64
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Bind(_ context.Context, token string, visitorID int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[token] = memoryEntry{visitorID: visitorID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Lookup(_ context.Context, token string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		return 0, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, token)
		return 0, false, nil
	}
	return e.visitorID, true, nil
}

func (m *Memory) Invalidate(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}
