package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// Service provides registration and password authentication.
type Service struct {
	storage    Storage
	bcryptCost int
	log        *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an account service backed by the given storage.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage:    storage,
		bcryptCost: bcrypt.DefaultCost,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user with the given email and password.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.CreateUser(ctx, user, hash); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate verifies email and password. Any failure maps to
// ErrInvalidCredentials to prevent user enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := s.storage.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
