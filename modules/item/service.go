package item

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/clock"
)

// Service provides per-user item CRUD.
type Service struct {
	storage Storage
	clk     clock.Clock
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) ServiceOption {
	return func(s *Service) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// NewService creates an item service backed by the given storage.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		clk:     clock.System{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new item owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleMissing
	}

	now := s.clk.Now().UTC()
	it := &Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Get returns the item if it exists and belongs to ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Item, error) {
	return s.storage.Get(ctx, ownerID, id)
}

// List returns all items owned by ownerID, oldest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*Item, error) {
	return s.storage.List(ctx, ownerID)
}

// Update replaces the item's title and description.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, title, description string) (*Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleMissing
	}

	it, err := s.storage.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	it.Title = title
	it.Description = strings.TrimSpace(description)
	it.UpdatedAt = s.clk.Now().UTC()
	if err := s.storage.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Delete removes the item if it belongs to ownerID.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.storage.Delete(ctx, ownerID, id)
}
