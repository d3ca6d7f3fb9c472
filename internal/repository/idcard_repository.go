package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// IDCardRepository handles digital ID card data access.
type IDCardRepository struct {
	pool *pgxpool.Pool
}

// NewIDCardRepository creates a new IDCardRepository.
func NewIDCardRepository(pool *pgxpool.Pool) *IDCardRepository {
	return &IDCardRepository{pool: pool}
}

const cardColumns = `id, user_id, card_number, issued_at, expires_at, revoked_at`

func scanCard(row pgx.Row) (*model.IDCard, error) {
	c := &model.IDCard{}
	if err := row.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.IssuedAt, &c.ExpiresAt, &c.RevokedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new card. Older cards of the same user become superseded.
func (r *IDCardRepository) Create(ctx context.Context, c *model.IDCard) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO id_cards (user_id, card_number, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, issued_at`,
		c.UserID, c.CardNumber, c.ExpiresAt,
	).Scan(&c.ID, &c.IssuedAt)
	return mapWriteError(err)
}

// GetByID retrieves a card by ID.
func (r *IDCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.IDCard, error) {
	return scanCard(r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM id_cards WHERE id = $1`, id))
}

// GetCurrent returns the user's most recently issued card.
func (r *IDCardRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*model.IDCard, error) {
	return scanCard(r.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM id_cards WHERE user_id = $1 ORDER BY issued_at DESC LIMIT 1`, userID))
}

// RevokeCurrent revokes the user's current card.
func (r *IDCardRepository) RevokeCurrent(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE id_cards SET revoked_at = $1
		 WHERE id = (SELECT id FROM id_cards WHERE user_id = $2 ORDER BY issued_at DESC LIMIT 1)
		   AND revoked_at IS NULL`,
		at, userID))
}

// GetHolder assembles the printable holder details of a user.
func (r *IDCardRepository) GetHolder(ctx context.Context, userID uuid.UUID) (*model.IDCardHolder, error) {
	h := &model.IDCardHolder{}
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.avatar_url, u.designation,
		        COALESCE(d.name, sd.name, ''), COALESCE(s.roll_number, ''), COALESCE(c.name, ''),
		        COALESCE(s.blood_group, ''), COALESCE(s.guardian_phone, '')
		 FROM users u
		 LEFT JOIN departments d ON d.id = u.department_id
		 LEFT JOIN students s ON s.user_id = u.id
		 LEFT JOIN classes c ON c.id = s.class_id
		 LEFT JOIN departments sd ON sd.id = c.department_id
		 WHERE u.id = $1`, userID,
	).Scan(&h.UserID, &h.Name, &h.Email, &h.Role, &h.PhotoURL, &h.Designation,
		&h.Department, &h.RollNumber, &h.ClassName, &h.BloodGroup, &h.GuardianPhone)
	if err != nil {
		return nil, err
	}
	return h, nil
}
