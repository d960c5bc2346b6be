package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pqrsd-service/internal/domain"
	"github.com/spec-kit/pqrsd-service/internal/repository"
	apperrors "github.com/spec-kit/pqrsd-service/pkg/util/errorutil"
)

// DepartmentService manages organizational units. Departments are
// soft-deleted so historical assignments keep resolving.
type DepartmentService struct {
	departments repository.DepartmentRepository
}

// NewDepartmentService builds the service.
func NewDepartmentService(departments repository.DepartmentRepository) *DepartmentService {
	return &DepartmentService{departments: departments}
}

// Create registers a new active department.
func (s *DepartmentService) Create(ctx context.Context, name, description string) (*domain.Department, error) {
	dept := &domain.Department{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Active:      true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("department name already exists", map[string]any{"name": dept.Name})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// Get fetches an active department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.Active {
		return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
	}
	return dept, nil
}

// List returns all active departments ordered by name.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// Update modifies a department's name and description.
func (s *DepartmentService) Update(ctx context.Context, id, name, description string) (*domain.Department, error) {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.Name = strings.TrimSpace(name)
	dept.Description = strings.TrimSpace(description)
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// Deactivate soft-deletes a department.
func (s *DepartmentService) Deactivate(ctx context.Context, id string) error {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	dept.Active = false
	if err := s.departments.Update(ctx, dept); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
