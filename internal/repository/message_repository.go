package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// MessageRepository handles group messages and reactions.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageSelect = `SELECT m.id, m.group_id, m.sender_id, u.name,
	       CASE WHEN m.deleted_at IS NULL THEN m.content ELSE '' END,
	       m.reply_to, m.created_at, m.edited_at, m.deleted_at
	FROM messages m JOIN users u ON u.id = m.sender_id`

func scanMessage(row pgx.Row) (*model.Message, error) {
	m := &model.Message{}
	err := row.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.SenderName, &m.Content, &m.ReplyTo,
		&m.CreatedAt, &m.EditedAt, &m.DeletedAt)
	if err != nil {
		return nil, err
	}
	m.Reactions = []model.ReactionSummary{}
	return m, nil
}

// Create inserts a message whose ID and timestamp were assigned by the caller.
func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, group_id, sender_id, content, reply_to, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.GroupID, m.SenderID, m.Content, m.ReplyTo, m.CreatedAt)
	return mapWriteError(err)
}

// GetByID retrieves a message with its reactions.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	m, err := scanMessage(r.pool.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, err
	}
	reactions, err := r.ReactionsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if rs, ok := reactions[id]; ok {
		m.Reactions = rs
	}
	return m, nil
}

// List returns up to limit messages older than before (zero means newest), newest first.
func (r *MessageRepository) List(ctx context.Context, groupID uuid.UUID, before time.Time, limit int) ([]model.Message, error) {
	var rows pgx.Rows
	var err error
	if before.IsZero() {
		rows, err = r.pool.Query(ctx,
			messageSelect+` WHERE m.group_id = $1 ORDER BY m.created_at DESC, m.id DESC LIMIT $2`,
			groupID, limit)
	} else {
		rows, err = r.pool.Query(ctx,
			messageSelect+` WHERE m.group_id = $1 AND m.created_at < $2 ORDER BY m.created_at DESC, m.id DESC LIMIT $3`,
			groupID, before, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return messages, nil
	}

	reactions, err := r.ReactionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if rs, ok := reactions[messages[i].ID]; ok {
			messages[i].Reactions = rs
		}
	}
	return messages, nil
}

// UpdateContent edits a message that is not deleted.
func (r *MessageRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE messages SET content = $1, edited_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		content, editedAt, id))
}

// SoftDelete marks a message deleted and drops its reactions.
func (r *MessageRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	if err := execAffected(r.pool.Exec(ctx,
		`UPDATE messages SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, deletedAt, id)); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM message_reactions WHERE message_id = $1`, id)
	return err
}

// ToggleReaction removes the user's emoji on a message if present, otherwise adds it.
func (r *MessageRepository) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (added bool, err error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		messageID, userID, emoji)
	if err != nil {
		return false, mapWriteError(err)
	}
	return true, nil
}

// ReactionsFor groups reactions by message and emoji, first reaction first.
func (r *MessageRepository) ReactionsFor(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]model.ReactionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT message_id, emoji, COUNT(*), ARRAY_AGG(user_id ORDER BY created_at)
		 FROM message_reactions
		 WHERE message_id = ANY($1)
		 GROUP BY message_id, emoji
		 ORDER BY message_id, MIN(created_at)`,
		messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.ReactionSummary)
	for rows.Next() {
		var messageID uuid.UUID
		var rs model.ReactionSummary
		if err := rows.Scan(&messageID, &rs.Emoji, &rs.Count, &rs.UserIDs); err != nil {
			return nil, err
		}
		out[messageID] = append(out[messageID], rs)
	}
	return out, rows.Err()
}
