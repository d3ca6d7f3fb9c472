package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// DepartmentRepository handles department data access.
type DepartmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository creates a new DepartmentRepository.
func NewDepartmentRepository(pool *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

// GetByID retrieves a department with its HOD name.
func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d := &model.Department{}
	err := r.pool.QueryRow(ctx,
		`SELECT d.id, d.code, d.name, d.hod_id, COALESCE(u.name, ''), d.created_at, d.updated_at
		 FROM departments d LEFT JOIN users u ON u.id = d.hod_id
		 WHERE d.id = $1`, id,
	).Scan(&d.ID, &d.Code, &d.Name, &d.HodID, &d.HodName, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List retrieves all departments ordered by code.
func (r *DepartmentRepository) List(ctx context.Context) ([]model.Department, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.code, d.name, d.hod_id, COALESCE(u.name, ''), d.created_at, d.updated_at
		 FROM departments d LEFT JOIN users u ON u.id = d.hod_id
		 ORDER BY d.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []model.Department{}
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.HodID, &d.HodName, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, d *model.Department) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO departments (code, name, hod_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		d.Code, d.Name, d.HodID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return mapWriteError(err)
}

// Update modifies an existing department.
func (r *DepartmentRepository) Update(ctx context.Context, d *model.Department) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE departments SET code = $1, name = $2, hod_id = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		d.Code, d.Name, d.HodID, d.ID,
	))
}

// Delete removes a department. Fails with ErrReferenced while classes use it.
func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id))
}
