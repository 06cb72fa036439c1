package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"vendite/backend/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func New() *Store {
	return &Store{entries: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = slices.Clone(value)
	return nil
}

func (s *Store) Create(_ context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return store.ErrExists
	}
	s.entries[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *Store) Scan(_ context.Context, prefix string) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Entry, 0)
	for key, value := range s.entries {
		if strings.HasPrefix(key, prefix) {
			result = append(result, store.Entry{Key: key, Value: slices.Clone(value)})
		}
	}
	slices.SortFunc(result, func(a, b store.Entry) int {
		return strings.Compare(a.Key, b.Key)
	})
	return result, nil
}

func (s *Store) Close() error {
	return nil
}
