package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

type fakeRoles map[uuid.UUID]model.Role

func (f fakeRoles) GetRole(_ context.Context, id uuid.UUID) (model.Role, error) {
	role, ok := f[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return role, nil
}

type failingRoles struct{ err error }

func (f failingRoles) GetRole(context.Context, uuid.UUID) (model.Role, error) {
	return "", f.err
}

func TestResolveFaculty(t *testing.T) {
	faculty := uuid.New()
	librarian := uuid.New()
	users := fakeRoles{faculty: model.RoleFaculty, librarian: model.RoleLibrarian}
	ctx := context.Background()

	t.Run("empty is nil", func(t *testing.T) {
		id, err := resolveFaculty(ctx, users, "  ")
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("faculty accepted", func(t *testing.T) {
		id, err := resolveFaculty(ctx, users, faculty.String())
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, faculty, *id)
	})

	t.Run("wrong role", func(t *testing.T) {
		_, err := resolveFaculty(ctx, users, librarian.String())
		assert.ErrorIs(t, err, ErrInvalidFaculty)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := resolveFaculty(ctx, users, uuid.NewString())
		assert.ErrorIs(t, err, ErrInvalidFaculty)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := resolveFaculty(ctx, users, "hod-1")
		assert.ErrorIs(t, err, ErrInvalidFaculty)
	})

	t.Run("lookup failure is not masked", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := resolveFaculty(ctx, failingRoles{err: boom}, faculty.String())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidFaculty)
	})
}
