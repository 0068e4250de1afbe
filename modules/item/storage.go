package item

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Storage defines the persistence operations required by the item service.
// Lookups are scoped to an owner so one user can never see another's items.
type Storage interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Item, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// MemoryStorage is an in-memory Storage implementation. Safe for
// concurrent use.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[uuid.UUID]*Item)}
}

func (s *MemoryStorage) Create(ctx context.Context, it *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *it
	s.items[clone.ID] = &clone
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, ownerID, id uuid.UUID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, ErrItemNotFound
	}
	clone := *it
	return &clone, nil
}

func (s *MemoryStorage) List(ctx context.Context, ownerID uuid.UUID) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Item
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			clone := *it
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorage) Update(ctx context.Context, it *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[it.ID]
	if !ok || existing.OwnerID != it.OwnerID {
		return ErrItemNotFound
	}
	clone := *it
	s.items[clone.ID] = &clone
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.OwnerID != ownerID {
		return ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}
