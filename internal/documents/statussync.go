package documents

import (
	"context"

	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
)

// StatusSync keeps document status in line with the approval lifecycle.
// It subscribes to workflow events and is intentionally notify-style:
// a failed status write is logged and retried on the next event.
type StatusSync struct {
	repo   Repository
	logger *zap.Logger
}

func NewStatusSync(repo Repository, logger *zap.Logger) *StatusSync {
	return &StatusSync{repo: repo, logger: logger}
}

func (s *StatusSync) Publish(ctx context.Context, evt workflows.Event) {
	var status DocumentStatus
	switch evt.Type {
	case workflows.EventStepReady, workflows.EventWorkflowRolledBack:
		status = StatusOnApproval
	case workflows.EventStepRejected:
		status = StatusRejected
	case workflows.EventWorkflowCompleted:
		status = StatusApproved
	case workflows.EventWorkflowCancelled:
		status = StatusDraft
	default:
		return
	}

	if err := s.repo.UpdateStatus(ctx, evt.DocumentID, status); err != nil {
		s.logger.Warn("failed to sync document status",
			zap.String("document_id", evt.DocumentID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
