// Package user manages user accounts and their persistence.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questbase/api/internal/db"
)

// Roles a user can hold.
const (
	RoleLearner = "learner"
	RoleMentor  = "mentor"
)

// User represents a registered learner or mentor.
type User struct {
	ID           string    `json:"id"         example:"6f1c2a0e-8d4b-4c8e-9a57-0d6c1a2b3c4d"`
	Email        string    `json:"email"      example:"ada@example.com"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"       example:"Ada Lovelace"`
	Role         string    `json:"role"       example:"mentor"`
	Bio          *string   `json:"bio,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds the user-editable fields; nil fields are left unchanged.
type Profile struct {
	Name      *string `json:"name,omitempty"       validate:"omitempty,min=1,max=120"`
	Bio       *string `json:"bio,omitempty"        validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when an email address is already registered.
var ErrAlreadyExists = errors.New("user already exists")

const userColumns = `id, email, password_hash, name, role, bio, avatar_url, created_at, updated_at`

// Repository handles all user database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the created record.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name, role string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		email, passwordHash, name, role,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by their UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by their email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of p and returns the updated record.
func (r *Repository) UpdateProfile(ctx context.Context, id string, p Profile) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET
		     name       = COALESCE($2, name),
		     bio        = COALESCE($3, bio),
		     avatar_url = COALESCE($4, avatar_url),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, p.Name, p.Bio, p.AvatarURL,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

// Exists reports whether a user with the given UUID exists.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
