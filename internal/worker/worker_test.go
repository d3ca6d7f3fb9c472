package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
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
)

type stubSweeper struct {
	mu       sync.Mutex
	calls    int
	deadline bool
	err      error
}

func (s *stubSweeper) SweepOverdueFines(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	_, s.deadline = ctx.Deadline()
	return 3, s.err
}

func TestFineWorkerRunOnce(t *testing.T) {
	sweeper := &stubSweeper{}
	w := NewFineWorker(sweeper, "5 0 * * *", zerolog.Nop())

	w.RunOnce(context.Background())
	assert.Equal(t, 1, sweeper.calls)
	assert.True(t, sweeper.deadline, "sweep runs with a timeout")

	sweeper.err = errors.New("db down")
	w.RunOnce(context.Background())
	assert.Equal(t, 2, sweeper.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.RunOnce(ctx)
	assert.Equal(t, 2, sweeper.calls, "cancelled context skips the sweep")
}

func TestFineWorkerRejectsBadSchedule(t *testing.T) {
	w := NewFineWorker(&stubSweeper{}, "not a schedule", zerolog.Nop())
	err := w.Start(context.Background())
	assert.Error(t, err)
}

func TestFineWorkerStopsOnCancel(t *testing.T) {
	w := NewFineWorker(&stubSweeper{}, "@every 1h", zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type stubCreator struct{ err error }

func (s stubCreator) Create(context.Context, *model.Message) error { return s.err }

func TestPersistSingle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		requeued bool
	}{
		{"stored", nil, false},
		{"already stored", repository.ErrDuplicate, false},
		{"group gone", repository.ErrReferenced, false},
		{"transient failure", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { rdb.Close() })

			w := NewMessageWorker(nil, stubCreator{err: tt.err}, rdb, zerolog.Nop())
			msg := &model.Message{ID: uuid.New(), GroupID: uuid.New(), SenderID: uuid.New(), Content: "hello"}
			w.persistSingle(context.Background(), msg)

			queued, err := rdb.LRange(context.Background(), config.WorkerKey.PersistMessagesQueue, 0, -1).Result()
			require.NoError(t, err)
			if !tt.requeued {
				assert.Empty(t, queued)
				return
			}
			require.Len(t, queued, 1)
			var got model.Message
			require.NoError(t, json.Unmarshal([]byte(queued[0]), &got))
			assert.Equal(t, msg.ID, got.ID)
		})
	}
}
