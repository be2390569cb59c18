// Package auth handles password registration, login and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/questbase/api/internal/user"
)

// ErrInvalidCredentials is returned when the email or password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrPasswordTooLong is returned when a password exceeds bcrypt's input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// maxPasswordBytes is bcrypt's input limit, counted in bytes rather than characters.
const maxPasswordBytes = 72

type users interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Session is a signed session token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service contains the business logic for password authentication.
type Service struct {
	users  users
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewService creates a new auth Service signing sessions with secret.
func NewService(users users, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Register creates a new account and opens a session for it.
func (s *Service) Register(ctx context.Context, email, password, name, role string) (*user.User, *Session, error) {
	if len(password) > maxPasswordBytes {
		return nil, nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, email, string(hash), name, role)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.issueSession(u)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}
	return u, sess, nil
}

// Login verifies the password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, *Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.issueSession(u)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}
	return u, sess, nil
}

// issueSession creates a signed session token for the given user.
func (s *Service) issueSession(u *user.User) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}
