// Package memory provides in-process adapters: the default assignment
// store, a recording telemetry sink, and a controllable clock for tests.
package memory

import (
	"context"
	"sync"
)

// KVStore is an in-memory assignment store. It is the default backing for
// single-process deployments and for tests.
type KVStore struct {
	mu   sync.RWMutex
	data map[string]string

	// FailReads and FailWrites inject storage errors for fail-open tests.
	FailReads  error
	FailWrites error
}

// NewKVStore creates an empty in-memory store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]string)}
}

// Get returns the stored value for key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.FailReads != nil {
		return "", false, s.FailReads
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key string, value string) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key if present.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len reports the number of stored records.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
