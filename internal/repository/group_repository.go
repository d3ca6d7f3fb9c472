package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vconnect/portal-backend/internal/model"
)

// ErrLastGroupAdmin is returned when an operation would leave a group without an admin.
var ErrLastGroupAdmin = errors.New("group must keep at least one admin")

// GroupRepository handles groups and their memberships.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

const groupSelect = `SELECT g.id, g.name, g.description, g.class_id, g.created_by,
	       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id),
	       COALESCE((SELECT m.role FROM group_members m WHERE m.group_id = g.id AND m.user_id = $1), ''),
	       g.created_at, g.updated_at
	FROM groups g`

func scanGroup(row pgx.Row) (*model.Group, error) {
	g := &model.Group{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.ClassID, &g.CreatedBy, &g.MemberCount, &g.MyRole,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a group, makes the creator its admin and adds initial members.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group, memberIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO groups (name, description, class_id, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		g.Name, g.Description, g.ClassID, g.CreatedBy,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, 'ADMIN')`,
		g.ID, g.CreatedBy); err != nil {
		return err
	}

	if len(memberIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id, role)
			 SELECT $1::uuid, u.id, 'MEMBER' FROM users u WHERE u.id = ANY($2)
			 ON CONFLICT DO NOTHING`,
			g.ID, memberIDs); err != nil {
			return err
		}
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, g.ID).Scan(&g.MemberCount); err != nil {
		return err
	}
	g.MyRole = model.GroupRoleAdmin

	return tx.Commit(ctx)
}

// GetByID retrieves a group as seen by viewerID (MyRole empty for non-members).
func (r *GroupRepository) GetByID(ctx context.Context, id, viewerID uuid.UUID) (*model.Group, error) {
	return scanGroup(r.pool.QueryRow(ctx, groupSelect+` WHERE g.id = $2`, viewerID, id))
}

// ListForUser returns every group the user belongs to, most recently active first.
func (r *GroupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		groupSelect+` JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		 ORDER BY COALESCE((SELECT MAX(created_at) FROM messages WHERE group_id = g.id), g.created_at) DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// Update renames a group.
func (r *GroupRepository) Update(ctx context.Context, g *model.Group) error {
	return execAffected(r.pool.Exec(ctx,
		`UPDATE groups SET name = $1, description = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		g.Name, g.Description, g.ID))
}

// Delete removes a group with its members, messages and calls.
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id))
}

// GetMemberRole returns the user's role in the group or pgx.ErrNoRows if not a member.
func (r *GroupRepository) GetMemberRole(ctx context.Context, groupID, userID uuid.UUID) (model.GroupRole, error) {
	var role model.GroupRole
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&role)
	return role, err
}

// ListMembers returns the members of a group, admins first.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]model.GroupMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.group_id, m.user_id, u.name, u.email, u.role, m.role, u.avatar_url, m.joined_at
		 FROM group_members m JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = $1
		 ORDER BY m.role, u.name`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.GroupMember{}
	for rows.Next() {
		var m model.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Name, &m.Email, &m.UserRole, &m.Role, &m.AvatarURL, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMembers adds existing users as plain members and returns the ids that
// were inserted. Unknown and already-present users are skipped.
func (r *GroupRepository) AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`INSERT INTO group_members (group_id, user_id, role)
		 SELECT $1::uuid, u.id, 'MEMBER' FROM users u WHERE u.id = ANY($2)
		 ON CONFLICT DO NOTHING
		 RETURNING user_id`,
		groupID, userIDs)
	if err != nil {
		return nil, mapWriteError(err)
	}
	defer rows.Close()

	added := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		added = append(added, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteError(err)
	}
	return added, nil
}

// RemoveMember removes a user from a group. The last admin may only leave when
// nobody else remains, in which case the group is deleted. groupDeleted reports that.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (groupDeleted bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return false, err
	}

	var role model.GroupRole
	if err := tx.QueryRow(ctx,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&role); err != nil {
		return false, err
	}

	var admins, members int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE role = 'ADMIN'), COUNT(*) FROM group_members WHERE group_id = $1`,
		groupID).Scan(&admins, &members); err != nil {
		return false, err
	}

	if members == 1 {
		if _, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID); err != nil {
			return false, err
		}
		return true, tx.Commit(ctx)
	}
	if role == model.GroupRoleAdmin && admins == 1 {
		return false, ErrLastGroupAdmin
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID); err != nil {
		return false, err
	}
	return false, tx.Commit(ctx)
}

// SetMemberRole promotes or demotes a member. Demoting the last admin is rejected.
func (r *GroupRepository) SetMemberRole(ctx context.Context, groupID, userID uuid.UUID, role model.GroupRole) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return err
	}

	var current model.GroupRole
	if err := tx.QueryRow(ctx,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&current); err != nil {
		return err
	}

	if current == model.GroupRoleAdmin && role == model.GroupRoleMember {
		var admins int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND role = 'ADMIN'`, groupID).Scan(&admins); err != nil {
			return err
		}
		if admins == 1 {
			return ErrLastGroupAdmin
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE group_members SET role = $1 WHERE group_id = $2 AND user_id = $3`, role, groupID, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
