// Package memstore keeps directory documents in process memory.
package memstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/m3rciful/relaybot/internal/directory"
)

// Store is a map-backed directory.Store.
type Store struct {
	mu   sync.RWMutex
	docs map[directory.Collection][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[directory.Collection][]byte)}
}

func (s *Store) Read(_ context.Context, c directory.Collection) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[c]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(doc), true, nil
}

func (s *Store) Write(_ context.Context, c directory.Collection, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[c] = bytes.Clone(doc)
	return nil
}
