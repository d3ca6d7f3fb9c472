package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vconnect/portal-backend/internal/config"
)

// PresenceRepository tracks who is connected to a group's live stream.
// Each user has a connection counter so several tabs count once.
type PresenceRepository struct {
	rdb *redis.Client
}

// NewPresenceRepository creates a new PresenceRepository.
func NewPresenceRepository(rdb *redis.Client) *PresenceRepository {
	return &PresenceRepository{rdb: rdb}
}

// Join records one more open connection and reports whether the user just came online.
func (r *PresenceRepository) Join(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	n, err := r.rdb.HIncrBy(ctx, config.CacheKey.GroupOnlineKey(groupID.String()), userID.String(), 1).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Leave drops one connection and reports whether the user went offline.
func (r *PresenceRepository) Leave(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	key := config.CacheKey.GroupOnlineKey(groupID.String())
	n, err := r.rdb.HIncrBy(ctx, key, userID.String(), -1).Result()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, r.rdb.HDel(ctx, key, userID.String()).Err()
}

// Online returns the users currently connected to the group.
func (r *PresenceRepository) Online(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	fields, err := r.rdb.HKeys(ctx, config.CacheKey.GroupOnlineKey(groupID.String())).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(fields))
	for _, f := range fields {
		id, err := uuid.Parse(f)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
