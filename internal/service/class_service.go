package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
)

// ClassService handles class business logic.
type ClassService struct {
	classRepo   *repository.ClassRepository
	studentRepo *repository.StudentRepository
	users       roleLookup
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo *repository.ClassRepository, studentRepo *repository.StudentRepository, users roleLookup) *ClassService {
	return &ClassService{classRepo: classRepo, studentRepo: studentRepo, users: users}
}

// List returns classes, optionally for one department.
func (s *ClassService) List(ctx context.Context, departmentID *uuid.UUID) ([]model.Class, error) {
	return s.classRepo.List(ctx, departmentID)
}

// GetByID retrieves a class.
func (s *ClassService) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

// Roster returns the students of a class ordered by roll number.
func (s *ClassService) Roster(ctx context.Context, id uuid.UUID) ([]model.Student, error) {
	if _, err := s.classRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.studentRepo.ListByClass(ctx, id)
}

// Create inserts a class after validating its coordinator.
func (s *ClassService) Create(ctx context.Context, req *model.ClassRequest) (*model.Class, error) {
	c, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.classRepo.GetByID(ctx, c.ID)
}

// Update modifies a class after validating its coordinator.
func (s *ClassService) Update(ctx context.Context, id uuid.UUID, req *model.ClassRequest) (*model.Class, error) {
	c, err := s.fromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.classRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.classRepo.GetByID(ctx, id)
}

// Delete removes a class. Returns repository.ErrReferenced while students belong to it.
func (s *ClassService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.classRepo.Delete(ctx, id)
}

func (s *ClassService) fromRequest(ctx context.Context, req *model.ClassRequest) (*model.Class, error) {
	coordinatorID, err := resolveFaculty(ctx, s.users, req.CoordinatorID)
	if err != nil {
		return nil, err
	}
	deptID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, err
	}
	return &model.Class{
		DepartmentID:  deptID,
		Name:          strings.TrimSpace(req.Name),
		Year:          req.Year,
		Section:       strings.ToUpper(strings.TrimSpace(req.Section)),
		Semester:      req.Semester,
		CoordinatorID: coordinatorID,
	}, nil
}
