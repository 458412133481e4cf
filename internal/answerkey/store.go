package answerkey

import (
	"sync"
	"time"
)

// Store holds the answer key currently in force.
//
// Store is safe for concurrent use. Replace swaps the whole key under a
// lock, so a reader gets either the previous key or the new one in full.
type Store struct {
	mu       sync.RWMutex
	key      *Key
	source   string
	loadedAt time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the active key, or nil if none has been loaded.
func (s *Store) Load() *Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Snapshot returns the active key together with its source, read under one
// lock so the two always belong to the same Replace.
func (s *Store) Snapshot() (*Key, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.source
}

// Replace makes k the active key. source names where it came from (a file
// name) for reporting.
func (s *Store) Replace(k *Key, source string) {
	s.mu.Lock()
	s.key = k
	s.source = source
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

// Info reports where the active key came from and when it was loaded. Both
// are zero before the first Replace.
func (s *Store) Info() (source string, loadedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.loadedAt
}
