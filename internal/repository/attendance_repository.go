package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// AttendanceFilter narrows attendance record queries. Nil fields are ignored.
type AttendanceFilter struct {
	ClassID   *uuid.UUID
	StudentID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// AttendanceRepository handles attendance record data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// UpsertPeriod writes one period's marks for a class in a single statement.
// Existing marks for the same student/date/period are overwritten.
func (r *AttendanceRepository) UpsertPeriod(ctx context.Context, classID uuid.UUID, date time.Time, period int,
	subject string, markedBy uuid.UUID, entries map[uuid.UUID]model.AttendanceStatus) (int64, error) {

	studentIDs := make([]uuid.UUID, 0, len(entries))
	statuses := make([]string, 0, len(entries))
	for id, st := range entries {
		studentIDs = append(studentIDs, id)
		statuses = append(statuses, string(st))
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_records (student_id, class_id, date, period, subject, status, marked_by)
		 SELECT u.student_id, $3::uuid, $4::date, $5::int, $6::text, u.status, $7::uuid
		 FROM UNNEST($1::uuid[], $2::text[]) AS u (student_id, status)
		 ON CONFLICT (student_id, date, period) DO UPDATE
		 SET status = EXCLUDED.status,
		     subject = EXCLUDED.subject,
		     class_id = EXCLUDED.class_id,
		     marked_by = EXCLUDED.marked_by,
		     updated_at = CURRENT_TIMESTAMP`,
		studentIDs, statuses, classID, date, period, subject, markedBy,
	)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return tag.RowsAffected(), nil
}

// List returns records matching the filter, newest date first, then period and roll number.
func (r *AttendanceRepository) List(ctx context.Context, f AttendanceFilter) ([]model.AttendanceRecord, error) {
	query := `SELECT a.id, a.student_id, u.name, s.roll_number, a.class_id, a.date, a.period, a.subject,
	                 a.status, a.marked_by, a.created_at, a.updated_at
	          FROM attendance_records a
	          JOIN students s ON s.id = a.student_id
	          JOIN users u ON u.id = s.user_id
	          WHERE 1=1`
	var args []interface{}
	argIdx := 1

	if f.ClassID != nil {
		query += ` AND a.class_id = $` + strconv.Itoa(argIdx)
		args = append(args, *f.ClassID)
		argIdx++
	}
	if f.StudentID != nil {
		query += ` AND a.student_id = $` + strconv.Itoa(argIdx)
		args = append(args, *f.StudentID)
		argIdx++
	}
	if f.From != nil {
		query += ` AND a.date >= $` + strconv.Itoa(argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		query += ` AND a.date <= $` + strconv.Itoa(argIdx)
		args = append(args, *f.To)
	}
	query += ` ORDER BY a.date DESC, a.period ASC, length(s.roll_number), s.roll_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.AttendanceRecord{}
	for rows.Next() {
		var a model.AttendanceRecord
		if err := rows.Scan(&a.ID, &a.StudentID, &a.StudentName, &a.RollNumber, &a.ClassID, &a.Date, &a.Period,
			&a.Subject, &a.Status, &a.MarkedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
