package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/service"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

type recordingConn struct {
	mu       sync.Mutex
	payloads []string
	closed   bool
}

func (c *recordingConn) WriteRaw(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, string(payload))
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) events(t *testing.T) []ws.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ws.Event, 0, len(c.payloads))
	for _, p := range c.payloads {
		var ev ws.GroupEvent
		require.NoError(t, json.Unmarshal([]byte(p), &ev))
		out = append(out, ev.Event)
	}
	return out
}

func encodeEvent(t *testing.T, event ws.Event, data interface{}) string {
	t.Helper()
	payload, err := json.Marshal(ws.GroupEvent{Event: event, GroupID: uuid.New(), Data: data, SentAt: time.Now()})
	require.NoError(t, err)
	return string(payload)
}

func TestRevokesAccess(t *testing.T) {
	me, other := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"removed", encodeEvent(t, ws.EventMemberChanged, ws.MemberChangeData{UserIDs: []uuid.UUID{other, me}, Change: ws.MemberRemoved}), true},
		{"left", encodeEvent(t, ws.EventMemberChanged, ws.MemberChangeData{UserIDs: []uuid.UUID{me}, Change: ws.MemberLeft}), true},
		{"someone else removed", encodeEvent(t, ws.EventMemberChanged, ws.MemberChangeData{UserIDs: []uuid.UUID{other}, Change: ws.MemberRemoved}), false},
		{"demoted", encodeEvent(t, ws.EventMemberChanged, ws.MemberChangeData{UserIDs: []uuid.UUID{me}, Change: ws.MemberRoleChanged, Role: "MEMBER"}), false},
		{"added", encodeEvent(t, ws.EventMemberChanged, ws.MemberChangeData{UserIDs: []uuid.UUID{me}, Change: ws.MemberAdded}), false},
		{"group deleted", encodeEvent(t, ws.EventGroupDeleted, nil), true},
		{"chat message", encodeEvent(t, ws.EventMessage, map[string]string{"content": "hi"}), false},
		{"garbage", "not json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, revokesAccess(tt.payload, me))
		})
	}
}

func TestForwardClosesStreamWhenMemberRemoved(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bus := service.NewEventBus(rdb, zerolog.Nop())
	group, me, admin := uuid.New(), uuid.New(), uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := bus.Subscribe(ctx, group)
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	h := &WSHandler{log: zerolog.Nop()}
	conn := &recordingConn{}
	done := make(chan struct{})
	go func() {
		h.forward(ctx, cancel, conn, pubsub.Channel(), me, zerolog.Nop())
		close(done)
	}()

	bus.Publish(ctx, group, ws.EventMessage, admin, map[string]string{"content": "hello"})
	bus.Publish(ctx, group, ws.EventMemberChanged, admin, ws.MemberChangeData{UserIDs: []uuid.UUID{uuid.New()}, Change: ws.MemberRemoved})
	bus.Publish(ctx, group, ws.EventMemberChanged, admin, ws.MemberChangeData{UserIDs: []uuid.UUID{me}, Change: ws.MemberRemoved})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward kept running after the member was removed")
	}

	assert.Equal(t, []ws.Event{ws.EventMessage, ws.EventMemberChanged, ws.EventMemberChanged}, conn.events(t))
	conn.mu.Lock()
	assert.True(t, conn.closed)
	conn.mu.Unlock()
	assert.Error(t, ctx.Err(), "forward cancels the stream context")
}

func TestForwardClosesStreamWhenGroupDeleted(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bus := service.NewEventBus(rdb, zerolog.Nop())
	group, me := uuid.New(), uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := bus.Subscribe(ctx, group)
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	h := &WSHandler{log: zerolog.Nop()}
	conn := &recordingConn{}
	done := make(chan struct{})
	go func() {
		h.forward(ctx, cancel, conn, pubsub.Channel(), me, zerolog.Nop())
		close(done)
	}()

	bus.Publish(ctx, group, ws.EventGroupDeleted, uuid.New(), nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward kept running after the group was deleted")
	}
	assert.Equal(t, []ws.Event{ws.EventGroupDeleted}, conn.events(t))
}
