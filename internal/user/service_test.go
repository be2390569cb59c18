package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCreateNormalizes(t *testing.T) {
	svc := NewService(newFakeRepo())

	u, err := svc.Create(context.Background(), "  Ada@Example.COM ", "hash", " Ada ", RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.Name)

	_, err = svc.Create(context.Background(), "ada@example.com", "hash", "Ada", RoleLearner)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := svc.GetByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestServiceMalformedIDs(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.GetByID(context.Background(), "42")
	assert.True(t, svc.IsNotFound(err))

	ok, err := svc.Exists(context.Background(), "../etc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceWrapsRepositoryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := newFakeRepo()
	repo.err = boom
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "a@b.io", "h", "A", RoleLearner)
	assert.ErrorIs(t, err, boom)
	assert.False(t, svc.IsNotFound(err))
}
