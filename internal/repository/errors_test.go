package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapWriteError(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, ErrReferenced},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrDuplicate},
		{"other pg error", &pgconn.PgError{Code: "23514"}, nil},
		{"plain error", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapWriteError(tt.in)
			if tt.want == nil && tt.in != nil {
				assert.Equal(t, tt.in, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("get user: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(ErrDuplicate))
	assert.False(t, IsNotFound(nil))
}

func TestExecAffected(t *testing.T) {
	assert.NoError(t, execAffected(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, execAffected(pgconn.NewCommandTag("DELETE 0"), nil), ErrNotFound)
	assert.ErrorIs(t, execAffected(pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"}), ErrReferenced)
}
