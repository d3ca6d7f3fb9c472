package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// FacultyLoadRow is the raw per-faculty workload input read in one pass.
type FacultyLoadRow struct {
	FacultyID       uuid.UUID
	FacultyName     string
	DepartmentID    *uuid.UUID
	TeachingHours   float64
	LabSessions     int
	MenteeCount     int
	MeetingsPerWeek int
}

// WorkloadRepository handles faculty assignments and workload inputs.
type WorkloadRepository struct {
	pool *pgxpool.Pool
}

// NewWorkloadRepository creates a new WorkloadRepository.
func NewWorkloadRepository(pool *pgxpool.Pool) *WorkloadRepository {
	return &WorkloadRepository{pool: pool}
}

const assignmentSelect = `SELECT a.id, a.faculty_id, u.name, a.class_id, c.name, a.subject,
	       a.teaching_hours_per_week, a.lab_sessions_per_week, a.academic_year, a.created_at, a.updated_at
	FROM faculty_assignments a
	JOIN users u ON u.id = a.faculty_id
	JOIN classes c ON c.id = a.class_id`

func scanAssignment(row pgx.Row) (*model.FacultyAssignment, error) {
	a := &model.FacultyAssignment{}
	err := row.Scan(&a.ID, &a.FacultyID, &a.FacultyName, &a.ClassID, &a.ClassName, &a.Subject,
		&a.TeachingHoursPerWeek, &a.LabSessionsPerWeek, &a.AcademicYear, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAssignment retrieves an assignment by ID.
func (r *WorkloadRepository) GetAssignment(ctx context.Context, id uuid.UUID) (*model.FacultyAssignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
}

// ListAssignments returns assignments, optionally for one faculty member.
func (r *WorkloadRepository) ListAssignments(ctx context.Context, facultyID *uuid.UUID) ([]model.FacultyAssignment, error) {
	rows, err := r.pool.Query(ctx,
		assignmentSelect+` WHERE ($1::uuid IS NULL OR a.faculty_id = $1) ORDER BY u.name, c.name, a.subject`,
		facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FacultyAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateAssignment inserts an assignment.
func (r *WorkloadRepository) CreateAssignment(ctx context.Context, a *model.FacultyAssignment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO faculty_assignments (faculty_id, class_id, subject, teaching_hours_per_week, lab_sessions_per_week, academic_year)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		a.FacultyID, a.ClassID, a.Subject, a.TeachingHoursPerWeek, a.LabSessionsPerWeek, a.AcademicYear,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return mapWriteError(err)
}

// UpdateAssignment modifies an assignment.
func (r *WorkloadRepository) UpdateAssignment(ctx context.Context, a *model.FacultyAssignment) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE faculty_assignments
		 SET faculty_id = $1, class_id = $2, subject = $3, teaching_hours_per_week = $4,
		     lab_sessions_per_week = $5, academic_year = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		a.FacultyID, a.ClassID, a.Subject, a.TeachingHoursPerWeek, a.LabSessionsPerWeek, a.AcademicYear, a.ID,
	))
}

// DeleteAssignment removes an assignment.
func (r *WorkloadRepository) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM faculty_assignments WHERE id = $1`, id))
}

// LoadInputs returns workload inputs for FACULTY users, optionally filtered by one
// faculty member or department. Meetings are counted in [now, now+7d).
func (r *WorkloadRepository) LoadInputs(ctx context.Context, facultyID, departmentID *uuid.UUID, now time.Time) ([]FacultyLoadRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.department_id,
		        COALESCE((SELECT SUM(a.teaching_hours_per_week) FROM faculty_assignments a WHERE a.faculty_id = u.id), 0)::float8,
		        COALESCE((SELECT SUM(a.lab_sessions_per_week) FROM faculty_assignments a WHERE a.faculty_id = u.id), 0)::int,
		        (SELECT COUNT(*) FROM students s WHERE s.mentor_id = u.id)::int,
		        (SELECT COUNT(*) FROM meetings m
		          WHERE m.scheduled_at >= $3 AND m.scheduled_at < $3 + INTERVAL '7 days'
		            AND (m.organizer_id = u.id
		                 OR EXISTS (SELECT 1 FROM meeting_participants p WHERE p.meeting_id = m.id AND p.user_id = u.id)))::int
		 FROM users u
		 WHERE u.role = 'FACULTY'
		   AND ($1::uuid IS NULL OR u.id = $1)
		   AND ($2::uuid IS NULL OR u.department_id = $2)
		 ORDER BY u.name`,
		facultyID, departmentID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FacultyLoadRow{}
	for rows.Next() {
		var l FacultyLoadRow
		if err := rows.Scan(&l.FacultyID, &l.FacultyName, &l.DepartmentID, &l.TeachingHours, &l.LabSessions,
			&l.MenteeCount, &l.MeetingsPerWeek); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
