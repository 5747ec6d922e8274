package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Contains(t, migrations[0].SQL, "appointments_active_slot_key")
	assert.Contains(t, migrations[1].SQL, "prescriptions")
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_key"})

	assert.True(t, IsUniqueViolation(err, "appointments_active_slot_key"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "appointments_idempotency_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestMapErrorKeepsDeadline(t *testing.T) {
	assert.Nil(t, MapError(nil))

	deadline := fmt.Errorf("query: %w", context.DeadlineExceeded)
	assert.ErrorIs(t, MapError(deadline), context.DeadlineExceeded)

	plain := errors.New("syntax error")
	assert.Same(t, plain, MapError(plain))
}
