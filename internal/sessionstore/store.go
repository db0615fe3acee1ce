// Package sessionstore defines the session persistence capability consumed
// by the chat collaborator. It replaces the process-wide fallback map of
// sessions with an explicit interface a deployment can back with whatever
// persistence it chooses.
package sessionstore

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned by Get for an unknown or expired key.
var ErrSessionNotFound = errors.New("session not found")

// Store is the capability interface for session persistence: get, put,
// delete, and list by key. Values are opaque serialized session payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process Store for tests and deployments without a
// shared backend. Entries expire lazily on read.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

// Get returns the payload stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok || entry.expired() {
		return nil, ErrSessionNotFound
	}
	return entry.value, nil
}

// Put stores value under key. A zero ttl means no expiry.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.sessions[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

// List returns the keys of all live sessions.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sessions))
	for key, entry := range s.sessions {
		if !entry.expired() {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// compile-time check to ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)
