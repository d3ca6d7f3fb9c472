package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPresenceRepo(t *testing.T) *PresenceRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewPresenceRepository(rdb)
}

func TestPresenceCountsConnections(t *testing.T) {
	repo := newPresenceRepo(t)
	ctx := context.Background()
	group, user := uuid.New(), uuid.New()

	online, err := repo.Join(ctx, group, user)
	require.NoError(t, err)
	assert.True(t, online, "first tab brings the user online")

	online, err = repo.Join(ctx, group, user)
	require.NoError(t, err)
	assert.False(t, online, "second tab is not a new arrival")

	offline, err := repo.Leave(ctx, group, user)
	require.NoError(t, err)
	assert.False(t, offline)

	ids, err := repo.Online(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user}, ids)

	offline, err = repo.Leave(ctx, group, user)
	require.NoError(t, err)
	assert.True(t, offline)

	ids, err = repo.Online(ctx, group)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPresenceIsPerGroup(t *testing.T) {
	repo := newPresenceRepo(t)
	ctx := context.Background()
	groupA, groupB := uuid.New(), uuid.New()
	alice, bob := uuid.New(), uuid.New()

	_, err := repo.Join(ctx, groupA, alice)
	require.NoError(t, err)
	_, err = repo.Join(ctx, groupA, bob)
	require.NoError(t, err)
	_, err = repo.Join(ctx, groupB, bob)
	require.NoError(t, err)

	ids, err := repo.Online(ctx, groupA)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, ids)

	ids, err = repo.Online(ctx, groupB)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, ids)
}
