package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// ErrInvalidFaculty is returned when a HOD, coordinator or mentor reference is not
// a well-formed UUID of an existing FACULTY user.
var ErrInvalidFaculty = errors.New("reference must be the id of a faculty user")

type roleLookup interface {
	GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
}

// resolveFaculty validates an optional faculty reference. Empty input yields nil.
func resolveFaculty(ctx context.Context, users roleLookup, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidFaculty
	}
	role, err := users.GetRole(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidFaculty
		}
		return nil, fmt.Errorf("lookup faculty: %w", err)
	}
	if role != model.RoleFaculty {
		return nil, ErrInvalidFaculty
	}
	return &id, nil
}

// DepartmentService handles department business logic.
type DepartmentService struct {
	deptRepo *repository.DepartmentRepository
	users    roleLookup
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(deptRepo *repository.DepartmentRepository, users roleLookup) *DepartmentService {
	return &DepartmentService{deptRepo: deptRepo, users: users}
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]model.Department, error) {
	return s.deptRepo.List(ctx)
}

// GetByID retrieves a department.
func (s *DepartmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	return s.deptRepo.GetByID(ctx, id)
}

// Create inserts a department after validating its HOD.
func (s *DepartmentService) Create(ctx context.Context, req *model.DepartmentRequest) (*model.Department, error) {
	hodID, err := resolveFaculty(ctx, s.users, req.HodID)
	if err != nil {
		return nil, err
	}
	d := &model.Department{
		Code:  strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:  strings.TrimSpace(req.Name),
		HodID: hodID,
	}
	if err := s.deptRepo.Create(ctx, d); err != nil {
		return nil, err
	}
	return s.deptRepo.GetByID(ctx, d.ID)
}

// Update modifies a department after validating its HOD.
func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, req *model.DepartmentRequest) (*model.Department, error) {
	hodID, err := resolveFaculty(ctx, s.users, req.HodID)
	if err != nil {
		return nil, err
	}
	d := &model.Department{
		ID:    id,
		Code:  strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:  strings.TrimSpace(req.Name),
		HodID: hodID,
	}
	if err := s.deptRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	return s.deptRepo.GetByID(ctx, id)
}

// Delete removes a department. Returns repository.ErrReferenced while classes use it.
func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deptRepo.Delete(ctx, id)
}
