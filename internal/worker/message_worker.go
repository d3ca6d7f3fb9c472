package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

const (
	MessageBatchSize    = 100
	MessageBatchTimeout = 1 * time.Second
	MessagePollTimeout  = 1 * time.Second
)

type messageCreator interface {
	Create(ctx context.Context, m *model.Message) error
}

// MessageWorker persists messages that were published before being written.
type MessageWorker struct {
	pool     *pgxpool.Pool
	messages messageCreator
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewMessageWorker(pool *pgxpool.Pool, messages messageCreator, rdb *redis.Client, log zerolog.Logger) *MessageWorker {
	return &MessageWorker{
		pool:     pool,
		messages: messages,
		rdb:      rdb,
		log:      log.With().Str("component", "message_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *MessageWorker) Start(ctx context.Context) {
	w.log.Info().Msg("MessageWorker started")

	batch := make([]*model.Message, 0, MessageBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= MessageBatchSize || time.Since(lastFlush) >= MessageBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, MessagePollTimeout, config.WorkerKey.PersistMessagesQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var m model.Message
			if err := json.Unmarshal([]byte(item[1]), &m); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			if m.ID == uuid.Nil || m.GroupID == uuid.Nil || m.SenderID == uuid.Nil {
				w.log.Error().Str("payload", item[1]).Msg("Message payload missing ids")
				continue
			}

			batch = append(batch, &m)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *MessageWorker) flushSafe(ctx context.Context, batch []*model.Message) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk message insert failed, using fallback")

		for _, m := range batch {
			w.persistSingle(ctx, m)
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST
// ----------------------------------------------------------------

// bulkInsert writes the batch in one statement. Ids already present are
// skipped so a requeued message is never stored twice.
func (w *MessageWorker) bulkInsert(ctx context.Context, batch []*model.Message) error {
	n := len(batch)

	ids := make([]uuid.UUID, n)
	groupIDs := make([]uuid.UUID, n)
	senderIDs := make([]uuid.UUID, n)
	contents := make([]string, n)
	replyTos := make([]*uuid.UUID, n)
	createdAts := make([]time.Time, n)

	for i, m := range batch {
		ids[i] = m.ID
		groupIDs[i] = m.GroupID
		senderIDs[i] = m.SenderID
		contents[i] = m.Content
		replyTos[i] = m.ReplyTo
		createdAts[i] = m.CreatedAt
	}

	query := `
		INSERT INTO messages (id, group_id, sender_id, content, reply_to, created_at)
		SELECT u.id, u.group_id, u.sender_id, u.content, u.reply_to, u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::uuid[],
			$4::text[],
			$5::uuid[],
			$6::timestamptz[]
		) AS u (id, group_id, sender_id, content, reply_to, created_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query, ids, groupIDs, senderIDs, contents, replyTos, createdAts)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

// persistSingle stores one message. Rows that can never be written (already
// stored, or the group or parent message is gone) are dropped; anything else
// goes back on the queue.
func (w *MessageWorker) persistSingle(ctx context.Context, m *model.Message) {
	err := w.messages.Create(ctx, m)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
	case errors.Is(err, repository.ErrReferenced):
		w.log.Warn().Str("message_id", m.ID.String()).Str("group_id", m.GroupID.String()).Msg("Dropping message for missing group or parent")
	default:
		w.log.Error().Err(err).Str("message_id", m.ID.String()).Msg("persistSingle failed, requeueing")
		raw, _ := json.Marshal(m)
		w.rdb.RPush(ctx, config.WorkerKey.PersistMessagesQueue, raw)
	}
}
