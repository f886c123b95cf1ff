package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
)

// Subscriber turns workflow lifecycle events into user notifications.
// It implements workflows.EventSink.
type Subscriber struct {
	service Service
	logger  *zap.Logger
}

func NewSubscriber(service Service, logger *zap.Logger) *Subscriber {
	return &Subscriber{service: service, logger: logger}
}

func (s *Subscriber) Publish(ctx context.Context, evt workflows.Event) {
	n := s.translate(evt)
	if n == nil {
		return
	}
	if err := s.service.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to deliver workflow notification",
			zap.String("event_type", string(evt.Type)),
			zap.String("workflow_id", evt.WorkflowID.String()),
			zap.Error(err))
	}
}

func (s *Subscriber) translate(evt workflows.Event) *Notification {
	base := Notification{
		UserID:     evt.TargetUserID,
		WorkflowID: &evt.WorkflowID,
		StepID:     evt.StepID,
		DocumentID: &evt.DocumentID,
		Body:       evt.Detail,
	}

	switch evt.Type {
	case workflows.EventStepReady:
		base.Kind = KindStepAssigned
		base.Title = fmt.Sprintf("Step %d is waiting for your %s", evt.StepOrder, evt.ActionType)
	case workflows.EventStepCompleted:
		base.Kind = KindStepCompleted
		base.Title = fmt.Sprintf("Step %d completed", evt.StepOrder)
	case workflows.EventStepRejected:
		base.Kind = KindStepRejected
		base.Title = fmt.Sprintf("Step %d was rejected", evt.StepOrder)
	case workflows.EventWorkflowRolledBack:
		base.Kind = KindWorkflowRolledBack
		base.Title = fmt.Sprintf("Workflow returned to step %d", evt.StepOrder)
	case workflows.EventWorkflowCompleted:
		base.Kind = KindWorkflowCompleted
		base.Title = "Approval workflow completed"
	case workflows.EventWorkflowCancelled:
		base.Kind = KindWorkflowCancelled
		base.Title = "Approval workflow cancelled"
	default:
		return nil
	}
	return &base
}
