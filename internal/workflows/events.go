package workflows

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStepReady          EventType = "step_ready"
	EventStepStarted        EventType = "step_started"
	EventStepCompleted      EventType = "step_completed"
	EventStepRejected       EventType = "step_rejected"
	EventWorkflowRolledBack EventType = "workflow_rolled_back"
	EventWorkflowCompleted  EventType = "workflow_completed"
	EventWorkflowCancelled  EventType = "workflow_cancelled"
)

// Event is a step lifecycle notification. TargetUserID is the user the event
// concerns (the assignee of the affected step, or the workflow creator for
// workflow-level events).
type Event struct {
	Type         EventType      `json:"type"`
	WorkflowID   uuid.UUID      `json:"workflow_id"`
	DocumentID   uuid.UUID      `json:"document_id"`
	StepID       *uuid.UUID     `json:"step_id,omitempty"`
	StepOrder    int            `json:"step_order,omitempty"`
	ActionType   StepActionType `json:"action_type,omitempty"`
	TargetUserID uuid.UUID      `json:"target_user_id"`
	ActorUserID  uuid.UUID      `json:"actor_user_id"`
	Detail       string         `json:"detail,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// EventSink receives lifecycle events after the owning transaction committed.
// Sinks must not block; slow consumers should buffer internally.
type EventSink interface {
	Publish(ctx context.Context, evt Event)
}

func stepEvent(t EventType, wf *Workflow, step *WorkflowStep, actor uuid.UUID, detail string, at time.Time) Event {
	id := step.ID
	return Event{
		Type:         t,
		WorkflowID:   wf.ID,
		DocumentID:   wf.DocumentID,
		StepID:       &id,
		StepOrder:    step.Order,
		ActionType:   step.ActionType,
		TargetUserID: step.AssignedToUserID,
		ActorUserID:  actor,
		Detail:       detail,
		OccurredAt:   at,
	}
}
