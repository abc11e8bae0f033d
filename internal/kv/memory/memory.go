package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ledger/internal/kv"
)

var _ kv.Storage = (*Store)(nil)

// Store keeps values in a map. Nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// NewFromFiles seeds the store from <key>.json files in base, if present.
// Missing or empty files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range []string{kv.KeyTransactions, kv.KeyCategories} {
		if v := readFile(filepath.Join(base, key+".json")); v != "" {
			s.values[key] = v
		}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
