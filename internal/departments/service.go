package departments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

type Service interface {
	CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*Department, error)
	GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	UpdateDepartment(ctx context.Context, id uuid.UUID, req UpdateDepartmentRequest) (*Department, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
}

type departmentService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &departmentService{repo: repo}
}

func (s *departmentService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperrors.NewNotFoundError("department", req.ParentID.String())
		}
	}

	now := time.Now()
	dep := &Department{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		HeadUserID:  req.HeadUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *departmentService) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	dep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, apperrors.NewNotFoundError("department", id.String())
	}
	return dep, nil
}

func (s *departmentService) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

func (s *departmentService) UpdateDepartment(ctx context.Context, id uuid.UUID, req UpdateDepartmentRequest) (*Department, error) {
	dep, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		dep.Name = *req.Name
	}
	if req.Description != nil {
		dep.Description = *req.Description
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, apperrors.NewValidationError("parent_id", "department cannot be its own parent")
		}
		dep.ParentID = req.ParentID
	}
	if req.HeadUserID != nil {
		dep.HeadUserID = req.HeadUserID
	}

	if err := s.repo.Update(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *departmentService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
