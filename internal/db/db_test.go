package db

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationCodes(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain")))
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/000001_init.up.sql")
	assert.Contains(t, names, "migrations/000001_init.down.sql")
}
