package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryIdempotencyStore implements IdempotencyStore with a local
// map. Suitable for single-instance deployments and tests; state does
// not survive a restart.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]idempotencyEntry
}

type idempotencyEntry struct {
	paymentID uuid.UUID
	expiresAt time.Time
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		entries: make(map[string]idempotencyEntry),
	}
}

// Get returns the payment ID recorded under the key, or uuid.Nil when
// the key is unknown or expired
func (s *InMemoryIdempotencyStore) Get(_ context.Context, tenantID uuid.UUID, key string) (uuid.UUID, error) {
	s.mu.RLock()
	entry, ok := s.entries[storeKey(tenantID, key)]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return uuid.Nil, nil
	}
	return entry.paymentID, nil
}

// Put records the payment ID under the key for the given TTL. The
// first writer wins; a live entry is never overwritten.
func (s *InMemoryIdempotencyStore) Put(_ context.Context, tenantID uuid.UUID, key string, paymentID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := storeKey(tenantID, key)
	if entry, ok := s.entries[k]; ok && time.Now().Before(entry.expiresAt) {
		return nil
	}
	s.entries[k] = idempotencyEntry{
		paymentID: paymentID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func storeKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + ":" + key
}
