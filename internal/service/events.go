package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

// EventBus fans group events out through Redis PubSub so that every server
// instance holding a stream for the group can forward them.
type EventBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewEventBus creates a new EventBus.
func NewEventBus(rdb *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{
		rdb: rdb,
		log: log.With().Str("component", "event_bus").Logger(),
	}
}

// Publish sends an event to the group's channel. Delivery is best-effort:
// failures are logged and never fail the calling operation.
func (b *EventBus) Publish(ctx context.Context, groupID uuid.UUID, event ws.Event, actorID uuid.UUID, data interface{}) {
	payload, err := json.Marshal(ws.GroupEvent{
		Event:   event,
		GroupID: groupID,
		ActorID: actorID,
		Data:    data,
		SentAt:  time.Now(),
	})
	if err != nil {
		b.log.Error().Err(err).Str("event", string(event)).Msg("Failed to encode group event")
		return
	}

	channel := config.CacheKey.GroupEventsChannel(groupID.String())
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		b.log.Warn().Err(err).Str("channel", channel).Str("event", string(event)).Msg("Failed to publish group event")
	}
}

// Subscribe opens a PubSub subscription on the group's channel. The caller closes it.
func (b *EventBus) Subscribe(ctx context.Context, groupID uuid.UUID) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.CacheKey.GroupEventsChannel(groupID.String()))
}
