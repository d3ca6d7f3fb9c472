package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// CallRepository handles group call data access.
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new CallRepository.
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

const callColumns = `id, group_id, started_by, call_type, room_name, meeting_url, status, started_at, ended_at`

func scanCall(row pgx.Row) (*model.GroupCall, error) {
	c := &model.GroupCall{}
	err := row.Scan(&c.ID, &c.GroupID, &c.StartedBy, &c.CallType, &c.RoomName, &c.MeetingURL, &c.Status,
		&c.StartedAt, &c.EndedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetActive returns the group's active call or pgx.ErrNoRows.
func (r *CallRepository) GetActive(ctx context.Context, groupID uuid.UUID) (*model.GroupCall, error) {
	return scanCall(r.pool.QueryRow(ctx,
		`SELECT `+callColumns+` FROM group_calls WHERE group_id = $1 AND status = 'ACTIVE'`, groupID))
}

// GetByID retrieves a call.
func (r *CallRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GroupCall, error) {
	return scanCall(r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM group_calls WHERE id = $1`, id))
}

// Create starts a call. A concurrent active call surfaces as ErrDuplicate
// through the partial unique index on active calls.
func (r *CallRepository) Create(ctx context.Context, c *model.GroupCall) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO group_calls (group_id, started_by, call_type, room_name, meeting_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, status, started_at`,
		c.GroupID, c.StartedBy, c.CallType, c.RoomName, c.MeetingURL,
	).Scan(&c.ID, &c.Status, &c.StartedAt)
	return mapWriteError(err)
}

// End marks an active call ended.
func (r *CallRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE group_calls SET status = 'ENDED', ended_at = $1 WHERE id = $2 AND status = 'ACTIVE'`,
		endedAt, id))
}

// ListByGroup returns the group's call history, newest first.
func (r *CallRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]model.GroupCall, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+callColumns+` FROM group_calls WHERE group_id = $1 ORDER BY started_at DESC LIMIT $2`,
		groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := []model.GroupCall{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// CountActive returns the number of calls in progress across all groups.
func (r *CallRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM group_calls WHERE status = 'ACTIVE'`).Scan(&n)
	return n, err
}
