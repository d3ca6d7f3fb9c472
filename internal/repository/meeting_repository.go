package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// MeetingRepository handles faculty meeting data access.
type MeetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository creates a new MeetingRepository.
func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

// Create inserts a meeting and its participants.
func (r *MeetingRepository) Create(ctx context.Context, m *model.Meeting) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO meetings (title, organizer_id, scheduled_at, duration_minutes, location)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		m.Title, m.OrganizerID, m.ScheduledAt, m.DurationMinutes, m.Location,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	if len(m.ParticipantIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO meeting_participants (meeting_id, user_id)
			 SELECT $1::uuid, p FROM UNNEST($2::uuid[]) AS p
			 ON CONFLICT DO NOTHING`,
			m.ID, m.ParticipantIDs); err != nil {
			return mapWriteError(err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a meeting with its participants.
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error) {
	m := &model.Meeting{}
	err := r.pool.QueryRow(ctx,
		`SELECT m.id, m.title, m.organizer_id, u.name, m.scheduled_at, m.duration_minutes, m.location,
		        COALESCE((SELECT ARRAY_AGG(p.user_id) FROM meeting_participants p WHERE p.meeting_id = m.id), '{}'),
		        m.created_at
		 FROM meetings m JOIN users u ON u.id = m.organizer_id
		 WHERE m.id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.OrganizerID, &m.OrganizerName, &m.ScheduledAt, &m.DurationMinutes, &m.Location,
		&m.ParticipantIDs, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListForUser returns meetings the user organises or attends within [from, to).
func (r *MeetingRepository) ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Meeting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.title, m.organizer_id, u.name, m.scheduled_at, m.duration_minutes, m.location,
		        COALESCE((SELECT ARRAY_AGG(p.user_id) FROM meeting_participants p WHERE p.meeting_id = m.id), '{}'),
		        m.created_at
		 FROM meetings m JOIN users u ON u.id = m.organizer_id
		 WHERE (m.organizer_id = $1 OR EXISTS (SELECT 1 FROM meeting_participants p WHERE p.meeting_id = m.id AND p.user_id = $1))
		   AND m.scheduled_at >= $2 AND m.scheduled_at < $3
		 ORDER BY m.scheduled_at`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []model.Meeting{}
	for rows.Next() {
		var m model.Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.OrganizerID, &m.OrganizerName, &m.ScheduledAt, &m.DurationMinutes,
			&m.Location, &m.ParticipantIDs, &m.CreatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// Delete removes a meeting.
func (r *MeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id))
}
