package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByLogin(ctx context.Context, login string) (*User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter, p pagination.Params) ([]User, int64, error) {
	args := m.Called(ctx, filter, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]User), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*users.User")).Return(nil)

	user, err := service.CreateUser(context.Background(), CreateUserRequest{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
		Login:    "dreyes",
		Password: "correct horse battery",
		RoleID:   uuid.New(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))
	assert.True(t, user.IsActive)
	repo.AssertExpectations(t)
}

func TestGetUserNotFound(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := service.GetUser(context.Background(), id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateUserAppliesPartialChanges(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	id := uuid.New()
	existing := &User{ID: id, FullName: "Old Name", Email: "old@example.com", IsActive: true}
	repo.On("GetByID", mock.Anything, id).Return(existing, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	newName := "New Name"
	inactive := false
	user, err := service.UpdateUser(context.Background(), id, UpdateUserRequest{
		FullName: &newName,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", user.FullName)
	assert.Equal(t, "old@example.com", user.Email)
	assert.False(t, user.IsActive)
}

func TestGetCredentials(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	id := uuid.New()
	repo.On("GetByLogin", mock.Anything, "dreyes").Return(&User{
		ID:           id,
		Login:        "dreyes",
		PasswordHash: "hash",
		IsActive:     true,
	}, nil)
	repo.On("GetByLogin", mock.Anything, "ghost").Return(nil, nil)

	creds, err := service.GetCredentials(context.Background(), "dreyes")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, id, creds.UserID)
	assert.True(t, creds.IsActive)

	creds, err = service.GetCredentials(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestGetUserRefs(t *testing.T) {
	repo := new(mockRepository)
	service := NewService(repo)

	u1, u2 := uuid.New(), uuid.New()
	repo.On("GetByIDs", mock.Anything, []uuid.UUID{u1, u2}).Return([]User{
		{ID: u1, FullName: "Dana Reyes", Email: "dana@example.com"},
	}, nil)

	refs, err := service.GetUserRefs(context.Background(), []uuid.UUID{u1, u2})
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, "Dana Reyes", refs[u1].FullName)
	_, ok := refs[u2]
	assert.False(t, ok, "missing users are absent from the map")
}
