package roles

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Permission keys checked by handlers and the workflow engine policy.
const (
	PermManageUsers     = "users:manage"
	PermManageDocuments = "documents:manage"
	PermManageWorkflows = "workflows:manage"
	PermViewStats       = "stats:view"
)

type Role struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Permissions pq.StringArray `json:"permissions" db:"permissions"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

func (r *Role) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type UpdateRoleRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}
