package departments

import (
	"time"

	"github.com/google/uuid"
)

type Department struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	HeadUserID  *uuid.UUID `json:"head_user_id,omitempty" db:"head_user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateDepartmentRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	HeadUserID  *uuid.UUID `json:"head_user_id,omitempty"`
}

type UpdateDepartmentRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	HeadUserID  *uuid.UUID `json:"head_user_id,omitempty"`
}
