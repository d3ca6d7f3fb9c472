package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
)

// User management errors.
var (
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	ErrStudentAccount   = errors.New("student accounts are managed through the students module")
)

// UserService handles staff account management. It runs on the service-role pool.
type UserService struct {
	userRepo    *repository.UserRepository
	authService *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, authService *AuthService) *UserService {
	return &UserService{userRepo: userRepo, authService: authService}
}

// List retrieves users with pagination.
func (s *UserService) List(ctx context.Context, f repository.UserFilter, page, perPage int) ([]model.User, *response.Pagination, error) {
	page, perPage, offset := response.NormalizePage(page, perPage)
	f.Search = strings.TrimSpace(f.Search)

	users, total, err := s.userRepo.ListPaginated(ctx, f, perPage, offset)
	if err != nil {
		return nil, nil, err
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// GetByID retrieves a user.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Create inserts a staff account with a hashed password.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		DepartmentID: parseOptionalUUID(req.DepartmentID),
		Designation:  strings.TrimSpace(req.Designation),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update modifies a staff account; a non-empty password replaces the old one.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == model.RoleStudent {
		return nil, ErrStudentAccount
	}

	u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u.Name = strings.TrimSpace(req.Name)
	u.Role = req.Role
	u.DepartmentID = parseOptionalUUID(req.DepartmentID)
	u.Designation = strings.TrimSpace(req.Designation)
	u.Phone = strings.TrimSpace(req.Phone)

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := s.authService.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
		// Force re-login with the new password.
		_ = s.authService.Logout(ctx, id)
	}
	return u, nil
}

// Delete removes an account and its session.
func (s *UserService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	if id == callerID {
		return ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.authService.Logout(ctx, id)
	return nil
}

// UpdateAvatar sets the caller's photo URL.
func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return s.userRepo.UpdateAvatar(ctx, id, url)
}

// parseOptionalUUID returns nil for empty or malformed input.
func parseOptionalUUID(raw string) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
