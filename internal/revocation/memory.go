package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in tests and single-node
// development runs. Expiry is checked lazily on read.
type MemoryStore struct {
	mu        sync.Mutex
	refresh   map[string]memoryEntry
	blacklist map[string]memoryEntry
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		refresh:   make(map[string]memoryEntry),
		blacklist: make(map[string]memoryEntry),
	}
}

// Get returns the active refresh entry, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, tokenID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.refresh[tokenID]
	if !ok || expired(stored) {
		delete(s.refresh, tokenID)
		return nil, nil
	}
	entry := stored.entry
	return &entry, nil
}

// Put records a refresh token as active.
func (s *MemoryStore) Put(_ context.Context, entry Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[entry.TokenID] = memoryEntry{entry: entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes a refresh entry.
func (s *MemoryStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenID)
	return nil
}

// Take atomically fetches and removes the entry; at most one concurrent
// caller gets it.
func (s *MemoryStore) Take(_ context.Context, tokenID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.refresh[tokenID]
	delete(s.refresh, tokenID)
	if !ok || expired(stored) {
		return nil, nil
	}
	entry := stored.entry
	return &entry, nil
}

// Blacklist marks an access token as revoked.
func (s *MemoryStore) Blacklist(_ context.Context, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[entry.TokenID] = memoryEntry{entry: entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

// IsBlacklisted reports whether an access token id was revoked.
func (s *MemoryStore) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.blacklist[tokenID]
	if !ok {
		return false, nil
	}
	if expired(stored) {
		delete(s.blacklist, tokenID)
		return false, nil
	}
	return true, nil
}

func expired(stored memoryEntry) bool {
	return time.Now().After(stored.expiresAt)
}
