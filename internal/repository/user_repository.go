package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

const userColumns = `id, email, name, password_hash, role, department_id, designation, phone, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.DepartmentID,
		&u.Designation, &u.Phone, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UserFilter narrows the user listing.
type UserFilter struct {
	Role   model.Role
	Search string
}

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by their unique email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// GetRole returns only the role of a user, used for faculty checks.
func (r *UserRepository) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	var role model.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	return role, err
}

// ListPaginated retrieves users filtered by role and a name/email search.
func (r *UserRepository) ListPaginated(ctx context.Context, f UserFilter, limit, offset int) ([]model.User, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	argIdx := 1

	if f.Role != "" {
		where += ` AND role = $` + strconv.Itoa(argIdx)
		args = append(args, f.Role)
		argIdx++
	}
	if f.Search != "" {
		where += ` AND (name ILIKE $` + strconv.Itoa(argIdx) + ` OR email ILIKE $` + strconv.Itoa(argIdx) + `)`
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY name LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, department_id, designation, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.DepartmentID, u.Designation, u.Phone,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapWriteError(err)
}

// Update modifies a user's profile (excluding password and avatar).
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET email = $1, name = $2, role = $3, department_id = $4, designation = $5, phone = $6,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7
		 RETURNING updated_at`,
		u.Email, u.Name, u.Role, u.DepartmentID, u.Designation, u.Phone, u.ID,
	).Scan(&u.UpdatedAt)
	return mapWriteError(err)
}

// UpdatePassword updates a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	))
}

// UpdateAvatar sets a user's avatar URL.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		avatarURL, id,
	))
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

// CountByRole returns the number of users holding a role.
func (r *UserRepository) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}
