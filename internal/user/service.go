package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

var _ repository = (*Repository)(nil)

// Service contains business logic for user management.
type Service struct {
	repo repository
}

// NewService creates a new user Service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new user account. Emails are stored lowercased.
func (s *Service) Create(ctx context.Context, email, passwordHash, name, role string) (*User, error) {
	u, err := s.repo.Create(ctx, NormalizeEmail(email), passwordHash, strings.TrimSpace(name), role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by their UUID. Malformed IDs are reported as ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by their email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// UpdateProfile changes the editable profile fields of a user.
func (s *Service) UpdateProfile(ctx context.Context, id string, p Profile) (*User, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	return s.repo.UpdateProfile(ctx, id, p)
}

// Exists reports whether the user exists. Malformed IDs never exist.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
