package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
)

// Pools bundles the ordinary application pool with the privileged
// service-role pool. When both URLs are equal they share one pool.
type Pools struct {
	App     *pgxpool.Pool
	Service *pgxpool.Pool
}

// Close closes both pools once.
func (p *Pools) Close() {
	if p.Service != nil && p.Service != p.App {
		p.Service.Close()
	}
	if p.App != nil {
		p.App.Close()
	}
}

// NewPools connects the application pool and, if configured separately,
// the service-role pool.
func NewPools(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Pools, error) {
	app, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
	if err != nil {
		return nil, err
	}

	if cfg.ServiceDatabaseURL == "" || cfg.ServiceDatabaseURL == cfg.DatabaseURL {
		return &Pools{App: app, Service: app}, nil
	}

	// The privileged role only serves admin screens and the sweep job.
	svcConns := cfg.MaxDBConns / 4
	if svcConns < 2 {
		svcConns = 2
	}
	service, err := NewPostgresPool(ctx, cfg.ServiceDatabaseURL, svcConns, log.With().Str("pool", "service").Logger())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("service pool: %w", err)
	}

	return &Pools{App: app, Service: service}, nil
}

// NewPostgresPool creates and validates a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int32, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", maxConns).
		Msg("PostgreSQL connected")

	return pool, nil
}
