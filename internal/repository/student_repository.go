package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

const studentSelect = `SELECT s.id, s.user_id, s.roll_number, u.name, u.email, s.class_id, c.name, s.mentor_id,
	       s.date_of_birth, s.blood_group, s.guardian_phone, u.avatar_url, s.created_at, s.updated_at
	FROM students s
	JOIN users u ON u.id = s.user_id
	JOIN classes c ON c.id = s.class_id`

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.UserID, &s.RollNumber, &s.Name, &s.Email, &s.ClassID, &s.ClassName, &s.MentorID,
		&s.DateOfBirth, &s.BloodGroup, &s.GuardianPhone, &s.AvatarURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// StudentRepository handles student profile data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by profile ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1`, id))
}

// GetByUserID retrieves the student profile attached to a user account.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.user_id = $1`, userID))
}

// ListPaginated retrieves students with pagination, optional class filter and search.
func (r *StudentRepository) ListPaginated(ctx context.Context, classID *uuid.UUID, search string, limit, offset int) ([]model.Student, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	argIdx := 1

	if classID != nil {
		where += ` AND s.class_id = $` + strconv.Itoa(argIdx)
		args = append(args, *classID)
		argIdx++
	}
	if search != "" {
		where += ` AND (u.name ILIKE $` + strconv.Itoa(argIdx) + ` OR s.roll_number ILIKE $` + strconv.Itoa(argIdx) + `)`
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.user_id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := studentSelect + where + ` ORDER BY length(s.roll_number), s.roll_number LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *s)
	}
	return students, total, rows.Err()
}

// ListByClass returns a class roster ordered by roll number.
func (r *StudentRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, studentSelect+` WHERE s.class_id = $1 ORDER BY length(s.roll_number), s.roll_number`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// IDsInClass returns the subset of ids that belong to the class.
func (r *StudentRepository) IDsInClass(ctx context.Context, classID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM students WHERE class_id = $1 AND id = ANY($2)`, classID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	return found, rows.Err()
}

// CountMentees returns how many students a faculty member mentors.
func (r *StudentRepository) CountMentees(ctx context.Context, mentorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE mentor_id = $1`, mentorID).Scan(&n)
	return n, err
}

// Create inserts the STUDENT user and its profile in one transaction.
func (r *StudentRepository) Create(ctx context.Context, u *model.User, s *model.Student) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, model.RoleStudent,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	s.UserID = u.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO students (user_id, roll_number, class_id, mentor_id, date_of_birth, blood_group, guardian_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		s.UserID, s.RollNumber, s.ClassID, s.MentorID, s.DateOfBirth, s.BloodGroup, s.GuardianPhone,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return tx.Commit(ctx)
}

// Update modifies the profile and the account fields it mirrors.
// A non-empty passwordHash also replaces the password.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student, passwordHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE students SET roll_number = $1, class_id = $2, mentor_id = $3, date_of_birth = $4,
		        blood_group = $5, guardian_phone = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7
		 RETURNING user_id, updated_at`,
		s.RollNumber, s.ClassID, s.MentorID, s.DateOfBirth, s.BloodGroup, s.GuardianPhone, s.ID,
	).Scan(&s.UserID, &s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET email = $1, name = $2,
		        password_hash = CASE WHEN $3 = '' THEN password_hash ELSE $3 END,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		s.Email, s.Name, passwordHash, s.UserID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return tx.Commit(ctx)
}

// Delete removes a student by deleting its user account (the profile cascades).
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx,
		`DELETE FROM users WHERE id = (SELECT user_id FROM students WHERE id = $1)`, id))
}
