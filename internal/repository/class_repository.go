package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

const classSelect = `SELECT c.id, c.department_id, d.code, c.name, c.year, c.section, c.semester,
	       c.coordinator_id, COALESCE(u.name, ''),
	       (SELECT COUNT(*) FROM students s WHERE s.class_id = c.id),
	       c.created_at, c.updated_at
	FROM classes c
	JOIN departments d ON d.id = c.department_id
	LEFT JOIN users u ON u.id = c.coordinator_id`

func scanClass(row pgx.Row) (*model.Class, error) {
	c := &model.Class{}
	err := row.Scan(&c.ID, &c.DepartmentID, &c.DepartmentCode, &c.Name, &c.Year, &c.Section, &c.Semester,
		&c.CoordinatorID, &c.CoordinatorName, &c.StudentCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ClassRepository handles class data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return scanClass(r.pool.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id))
}

// List retrieves classes, optionally restricted to a department.
func (r *ClassRepository) List(ctx context.Context, departmentID *uuid.UUID) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		classSelect+` WHERE ($1::uuid IS NULL OR c.department_id = $1)
		 ORDER BY d.code, c.year, c.section`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes (department_id, name, year, section, semester, coordinator_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		c.DepartmentID, c.Name, c.Year, c.Section, c.Semester, c.CoordinatorID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapWriteError(err)
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, c *model.Class) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE classes SET department_id = $1, name = $2, year = $3, section = $4, semester = $5,
		        coordinator_id = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		c.DepartmentID, c.Name, c.Year, c.Section, c.Semester, c.CoordinatorID, c.ID,
	))
}

// Delete removes a class by its ID. Fails with ErrReferenced while students belong to it.
func (r *ClassRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id))
}
