package roles

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
)

type Service interface {
	CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
}

type roleService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &roleService{repo: repo}
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	now := time.Now()
	role := &Role{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, apperrors.NewNotFoundError("role", id.String())
	}
	return role, nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

func (s *roleService) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Permissions != nil {
		role.Permissions = req.Permissions
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetRole(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
