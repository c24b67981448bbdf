package store

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNotFound is returned when no widget document exists for an id.
	ErrNotFound = errors.New("widget document not found")
)

// MemoryStore is a concurrency-safe in-memory widget store. It backs local
// runs without a database and the tests.
type MemoryStore struct {
	mu sync.RWMutex

	// key: widget id, value: document bytes
	docs map[string]bson.Raw
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]bson.Raw),
	}
}

// FetchWidget returns a copy of the stored document for id.
func (s *MemoryStore) FetchWidget(ctx context.Context, id string) (bson.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(bson.Raw(nil), doc...), nil
}

// UpsertWidget stores doc under id, replacing any previous document.
func (s *MemoryStore) UpsertWidget(ctx context.Context, id string, doc bson.Raw) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[id] = append(bson.Raw(nil), doc...)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
