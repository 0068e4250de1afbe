package account

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Storage defines the persistence operations required by the account service.
type Storage interface {
	CreateUser(ctx context.Context, user *User, passwordHash []byte) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// MemoryStorage is an in-memory Storage implementation. Safe for
// concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	hashes  map[uuid.UUID][]byte
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
		hashes:  make(map[uuid.UUID][]byte),
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *User, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailAlreadyExists
	}

	u := *user
	s.byID[u.ID] = &u
	s.byEmail[email] = u.ID
	s.hashes[u.ID] = append([]byte(nil), passwordHash...)
	return nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryStorage) GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.hashes[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return append([]byte(nil), hash...), nil
}
