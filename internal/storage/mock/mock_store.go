// Package mock provides an in-memory ObjectStore for tests.
package mock

import (
	"context"
	"io"
	"sync"
)

// Store keeps uploaded objects in memory.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailUpload, when set, is returned from Upload.
	FailUpload error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Upload records the object and returns a synthetic URL.
func (s *Store) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if s.FailUpload != nil {
		return "", s.FailUpload
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return "https://objects.test/" + key, nil
}

// Remove deletes the object if present.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns a stored object's bytes.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
