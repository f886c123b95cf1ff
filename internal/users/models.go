package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	Login        string     `json:"login" db:"login"`
	PasswordHash string     `json:"-" db:"password_hash"`
	RoleID       uuid.UUID  `json:"role_id" db:"role_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	FullName     string     `json:"full_name" binding:"required"`
	Email        string     `json:"email" binding:"required,email"`
	Login        string     `json:"login" binding:"required"`
	Password     string     `json:"password" binding:"required,min=8"`
	RoleID       uuid.UUID  `json:"role_id" binding:"required"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
}

type UpdateUserRequest struct {
	FullName     *string    `json:"full_name,omitempty"`
	Email        *string    `json:"email,omitempty"`
	RoleID       *uuid.UUID `json:"role_id,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// ListFilter narrows user listings.
type ListFilter struct {
	DepartmentID *uuid.UUID
	RoleID       *uuid.UUID
	ActiveOnly   bool
	Search       string
}
