package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docuflow/approval-portal/approval-portal-backend/internal/auth"
	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[User], error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Directory implements workflows.UserDirectory.
	GetUserRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]workflows.UserRef, error)
	// CredentialStore implements auth.CredentialStore.
	GetCredentials(ctx context.Context, login string) (*auth.Credentials, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type userService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &userService{repo: repo}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		FullName:     req.FullName,
		Email:        req.Email,
		Login:        req.Login,
		PasswordHash: string(hash),
		RoleID:       req.RoleID,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user", id.String())
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[User], error) {
	items, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[User]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.RoleID != nil {
		user.RoleID = *req.RoleID
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *userService) GetUserRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]workflows.UserRef, error) {
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	refs := make(map[uuid.UUID]workflows.UserRef, len(found))
	for _, u := range found {
		refs[u.ID] = workflows.UserRef{ID: u.ID, FullName: u.FullName, Email: u.Email}
	}
	return refs, nil
}

func (s *userService) GetCredentials(ctx context.Context, login string) (*auth.Credentials, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &auth.Credentials{
		UserID:       user.ID,
		Login:        user.Login,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
	}, nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}
