package workflows

import (
	"time"

	"github.com/google/uuid"
)

type WorkflowType string

const (
	TypeSequential WorkflowType = "sequential"
	TypeParallel   WorkflowType = "parallel"
)

type WorkflowStatus string

const (
	WorkflowDraft     WorkflowStatus = "draft"
	WorkflowActive    WorkflowStatus = "active"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowCancelled WorkflowStatus = "cancelled"
)

type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepRejected   StepStatus = "rejected"
)

// StepActionType is the semantic meaning of completing a step. The engine
// does not branch on it; it must round-trip for display and filtering.
type StepActionType string

const (
	ActionApproval    StepActionType = "approval"
	ActionReview      StepActionType = "review"
	ActionSign        StepActionType = "sign"
	ActionQRCode      StepActionType = "qr_code"
	ActionAcknowledge StepActionType = "acknowledge"
)

// ActionLogType classifies append-only audit entries.
type ActionLogType string

const (
	LogStarted    ActionLogType = "started"
	LogApproved   ActionLogType = "approved"
	LogRejected   ActionLogType = "rejected"
	LogRolledBack ActionLogType = "rolled_back"
	LogCancelled  ActionLogType = "cancelled"
)

type Workflow struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	DocumentID       uuid.UUID      `json:"document_id" db:"document_id"`
	WorkflowType     WorkflowType   `json:"workflow_type" db:"workflow_type"`
	Status           WorkflowStatus `json:"status" db:"status"`
	CurrentStepOrder int            `json:"current_step_order" db:"current_step_order"`
	CreatedBy        uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
	Steps            []WorkflowStep `json:"steps" db:"-"`
}

type WorkflowStep struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	WorkflowID       uuid.UUID      `json:"workflow_id" db:"workflow_id"`
	Order            int            `json:"order" db:"step_order"`
	ActionType       StepActionType `json:"action_type" db:"action_type"`
	AssignedToUserID uuid.UUID      `json:"assigned_to_user_id" db:"assigned_to_user_id"`
	Status           StepStatus     `json:"status" db:"status"`
	StartedAt        *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	RejectedAt       *time.Time     `json:"rejected_at,omitempty" db:"rejected_at"`
	DueDate          *time.Time     `json:"due_date,omitempty" db:"due_date"`
	IsRejected       bool           `json:"is_rejected" db:"is_rejected"`
	RejectionReason  *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Actions          []StepAction   `json:"actions" db:"-"`
}

// StepAction is one audit-trail entry. Entries are append-only and ordered by
// Seq, a per-workflow monotonic counter, so audit order stays well-defined
// even when two entries share a wall-clock timestamp.
type StepAction struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	WorkflowID  uuid.UUID     `json:"workflow_id" db:"workflow_id"`
	StepID      uuid.UUID     `json:"step_id" db:"step_id"`
	Seq         int           `json:"seq" db:"seq"`
	ActionType  ActionLogType `json:"action_type" db:"action_type"`
	PerformedBy uuid.UUID     `json:"performed_by" db:"performed_by"`
	Comment     string        `json:"comment" db:"comment"`
	PerformedAt time.Time     `json:"performed_at" db:"performed_at"`
}

// StepSpec describes one step in a create or update request. Order is
// optional: when no spec carries an order, list position decides.
type StepSpec struct {
	AssignedToUserID uuid.UUID      `json:"assigned_to_user_id" binding:"required"`
	ActionType       StepActionType `json:"action_type" binding:"required"`
	Order            *int           `json:"order,omitempty"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
}

type CreateWorkflowRequest struct {
	DocumentID   uuid.UUID    `json:"document_id" binding:"required"`
	WorkflowType WorkflowType `json:"workflow_type" binding:"required"`
	Steps        []StepSpec   `json:"steps"`
}

type UpdateStepsRequest struct {
	Steps []StepSpec `json:"steps"`
}

type RejectStepRequest struct {
	RejectionReason  string     `json:"rejection_reason"`
	RollbackToUserID *uuid.UUID `json:"rollback_to_user_id,omitempty"`
	Comment          string     `json:"comment,omitempty"`
}

// RollbackTarget is one eligible prior assignee for a rejection rollback.
type RollbackTarget struct {
	UserID    uuid.UUID `json:"user_id"`
	StepOrder int       `json:"step_order"`
}

// ListFilter narrows workflow listings.
type ListFilter struct {
	DocumentID *uuid.UUID
	Status     *WorkflowStatus
}

// TaskFilter narrows the my-tasks listing.
type TaskFilter struct {
	Status     *StepStatus
	ActionType *StepActionType
}

// AssignedStep is a task-list row: a step enriched with its workflow.
type AssignedStep struct {
	Step     WorkflowStep `json:"step"`
	Workflow Workflow     `json:"workflow"`
}

func (w *Workflow) findStep(stepID uuid.UUID) *WorkflowStep {
	for i := range w.Steps {
		if w.Steps[i].ID == stepID {
			return &w.Steps[i]
		}
	}
	return nil
}

func (w *Workflow) stepByOrder(order int) *WorkflowStep {
	for i := range w.Steps {
		if w.Steps[i].Order == order {
			return &w.Steps[i]
		}
	}
	return nil
}

func (w *Workflow) maxActionSeq() int {
	max := 0
	for i := range w.Steps {
		for _, a := range w.Steps[i].Actions {
			if a.Seq > max {
				max = a.Seq
			}
		}
	}
	return max
}
