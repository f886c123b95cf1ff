package notifications

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindStepAssigned       Kind = "step_assigned"
	KindStepCompleted      Kind = "step_completed"
	KindStepRejected       Kind = "step_rejected"
	KindWorkflowRolledBack Kind = "workflow_rolled_back"
	KindWorkflowCompleted  Kind = "workflow_completed"
	KindWorkflowCancelled  Kind = "workflow_cancelled"
	KindStepOverdue        Kind = "step_overdue"
)

type Notification struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Kind       Kind       `json:"kind" db:"kind"`
	Title      string     `json:"title" db:"title"`
	Body       string     `json:"body" db:"body"`
	WorkflowID *uuid.UUID `json:"workflow_id,omitempty" db:"workflow_id"`
	StepID     *uuid.UUID `json:"step_id,omitempty" db:"step_id"`
	DocumentID *uuid.UUID `json:"document_id,omitempty" db:"document_id"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
