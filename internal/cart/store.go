package cart

import (
	"context"
	"sync"
)

// Store holds one cart per operator session.
type Store interface {
	// Get returns a copy of the cart for key; a missing cart is empty.
	Get(ctx context.Context, key string) (*Cart, error)
	// Update runs fn against the cart for key and persists the result if fn
	// returns nil. Concurrent updates for the same key are serialised.
	Update(ctx context.Context, key string, fn func(*Cart) error) (*Cart, error)
	Delete(ctx context.Context, key string) error
}

type memoryStore struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewMemoryStore() Store {
	return &memoryStore{carts: make(map[string]*Cart)}
}

func (s *memoryStore) Get(_ context.Context, key string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[key]; ok {
		return c.Clone(), nil
	}
	return New(), nil
}

func (s *memoryStore) Update(_ context.Context, key string, fn func(*Cart) error) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := New()
	if c, ok := s.carts[key]; ok {
		working = c.Clone()
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	s.carts[key] = working
	return working.Clone(), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}
