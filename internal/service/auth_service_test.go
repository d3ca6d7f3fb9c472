package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type memoryUsers struct {
	byID map[uuid.UUID]*model.User
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *model.User) {
	t.Helper()
	_, rdb := newTestRedis(t)
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}

	user := &model.User{ID: uuid.New(), Email: "faculty@example.com", Name: "Faculty", Role: model.RoleFaculty}
	svc := NewAuthService(cfg, rdb, &memoryUsers{byID: map[uuid.UUID]*model.User{user.ID: user}})

	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	user.PasswordHash = hash
	return svc, user
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, user := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, user.Email, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, model.PermissionsFor(model.RoleFaculty), res.Permissions)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleFaculty, claims.Role)
	assert.True(t, claims.HasPermission(model.PermissionAttendanceWrite))
	assert.False(t, claims.HasPermission(model.PermissionUsersWrite))

	assert.NoError(t, svc.ValidateSession(ctx, user.ID, claims.ID))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, user := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, user.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewLoginReplacesSession(t *testing.T) {
	svc, user := newAuthFixture(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, user.Email, "correct horse")
	require.NoError(t, err)
	second, err := svc.Login(ctx, user.Email, "correct horse")
	require.NoError(t, err)

	firstClaims, err := svc.ValidateToken(first.Token)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateToken(second.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ValidateSession(ctx, user.ID, firstClaims.ID), ErrSessionInvalidated)
	assert.NoError(t, svc.ValidateSession(ctx, user.ID, secondClaims.ID))

	require.NoError(t, svc.Logout(ctx, user.ID))
	assert.ErrorIs(t, svc.ValidateSession(ctx, user.ID, secondClaims.ID), ErrSessionInvalidated)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, user := newAuthFixture(t)
	res, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)

	other := NewAuthService(&config.Config{JWTSecret: "other-secret"}, nil, nil)
	_, err = other.ValidateToken(res.Token)
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, user := newAuthFixture(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, "wrong", "new password 1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "correct horse", "new password 1"))
	_, err = svc.Login(ctx, user.Email, "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, user.Email, "new password 1")
	assert.NoError(t, err)
}
