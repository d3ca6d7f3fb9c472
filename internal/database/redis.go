package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
)

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.ClientName == "" {
		opt.ClientName = "vconnect-api"
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// Ping checks both backing stores. Used by the health endpoint.
func Ping(ctx context.Context, pools *Pools, rdb *redis.Client) map[string]string {
	status := map[string]string{"postgres": "ok", "redis": "ok"}
	if err := pools.App.Ping(ctx); err != nil {
		status["postgres"] = err.Error()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
	}
	return status
}
