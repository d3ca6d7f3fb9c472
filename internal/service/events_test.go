package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// subscribe opens a subscription and waits until Redis has confirmed it.
func subscribe(t *testing.T, bus *EventBus, groupID uuid.UUID) <-chan *redis.Message {
	t.Helper()
	sub := bus.Subscribe(context.Background(), groupID)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	return sub.Channel()
}

func nextEvent(t *testing.T, ch <-chan *redis.Message) ws.GroupEvent {
	t.Helper()
	select {
	case msg := <-ch:
		var ev ws.GroupEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return ws.GroupEvent{}
}

func assertNoEvent(t *testing.T, ch <-chan *redis.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected event: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBusPublishSubscribe(t *testing.T) {
	_, rdb := newTestRedis(t)
	bus := NewEventBus(rdb, zerolog.Nop())
	group, other := uuid.New(), uuid.New()
	actor := uuid.New()

	ch := subscribe(t, bus, group)
	bus.Publish(context.Background(), other, ws.EventTyping, actor, nil)
	bus.Publish(context.Background(), group, ws.EventMessageDeleted, actor, ws.MessageRefData{MessageID: actor})

	ev := nextEvent(t, ch)
	assert.Equal(t, ws.EventMessageDeleted, ev.Event)
	assert.Equal(t, group, ev.GroupID)
	assert.Equal(t, actor, ev.ActorID)
	assertNoEvent(t, ch)
}

func TestTypingIsThrottled(t *testing.T) {
	mr, rdb := newTestRedis(t)
	bus := NewEventBus(rdb, zerolog.Nop())
	svc := NewGroupService(nil, nil, nil, nil, bus, rdb, zerolog.Nop())
	group, user := uuid.New(), uuid.New()
	ctx := context.Background()

	ch := subscribe(t, bus, group)

	svc.Typing(ctx, group, user, "Aarav")
	ev := nextEvent(t, ch)
	assert.Equal(t, ws.EventTyping, ev.Event)

	svc.Typing(ctx, group, user, "Aarav")
	assertNoEvent(t, ch)

	mr.FastForward(typingThrottle + time.Second)
	svc.Typing(ctx, group, user, "Aarav")
	assert.Equal(t, ws.EventTyping, nextEvent(t, ch).Event)
}

func TestEnqueueMessage(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewGroupService(nil, nil, nil, nil, NewEventBus(rdb, zerolog.Nop()), rdb, zerolog.Nop())
	msg := &model.Message{ID: uuid.New(), GroupID: uuid.New(), SenderID: uuid.New(), Content: "hi"}

	require.NoError(t, svc.enqueue(context.Background(), msg))

	raw, err := rdb.LPop(context.Background(), config.WorkerKey.PersistMessagesQueue).Result()
	require.NoError(t, err)
	var got model.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hi", got.Content)
}

func TestCleanMessage(t *testing.T) {
	svc := NewGroupService(nil, nil, nil, nil, nil, nil, zerolog.Nop())

	clean, err := CleanMessage(svc.policy, "  <b>bold</b> text<script>alert(1)</script> ")
	require.NoError(t, err)
	assert.Equal(t, "bold text", clean)

	_, err = CleanMessage(svc.policy, " <i></i> ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = CleanMessage(svc.policy, repeatRune('é', MaxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	clean, err = CleanMessage(svc.policy, repeatRune('é', MaxMessageLength))
	require.NoError(t, err)
	assert.Len(t, []rune(clean), MaxMessageLength)

	for _, text := range []string{"don't forget", "Tom & Jerry", `say "hi"`, "a < b", "b > a"} {
		clean, err := CleanMessage(svc.policy, text)
		require.NoError(t, err, text)
		assert.Equal(t, text, clean)
	}

	punctuated := strings.Repeat("a'b&", MaxMessageLength/4)
	clean, err = CleanMessage(svc.policy, punctuated)
	require.NoError(t, err)
	assert.Equal(t, punctuated, clean)
}

func repeatRune(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

func TestPresenceAnnouncesTransitions(t *testing.T) {
	_, rdb := newTestRedis(t)
	bus := NewEventBus(rdb, zerolog.Nop())
	svc := NewPresenceService(repository.NewPresenceRepository(rdb), nil, bus, zerolog.Nop())
	group, user := uuid.New(), uuid.New()
	ctx := context.Background()

	ch := subscribe(t, bus, group)

	svc.Connect(ctx, group, user)
	ev := nextEvent(t, ch)
	assert.Equal(t, ws.EventPresence, ev.Event)
	assert.Equal(t, map[string]interface{}{"user_id": user.String(), "online": true}, ev.Data)

	svc.Connect(ctx, group, user)
	svc.Disconnect(ctx, group, user)
	assertNoEvent(t, ch)

	svc.Disconnect(ctx, group, user)
	ev = nextEvent(t, ch)
	assert.Equal(t, map[string]interface{}{"user_id": user.String(), "online": false}, ev.Data)
}
