package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/internal/workflows"
)

// OverdueSource lists steps whose due date has passed and that still
// await action.
type OverdueSource interface {
	ListOverdueSteps(ctx context.Context, asOf time.Time) ([]workflows.AssignedStep, error)
}

// OverdueScanner periodically reminds assignees about overdue steps.
type OverdueScanner struct {
	source  OverdueSource
	service Service
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger
}

func NewOverdueScanner(source OverdueSource, service Service, spec string, logger *zap.Logger) *OverdueScanner {
	return &OverdueScanner{
		source:  source,
		service: service,
		cron:    cron.New(),
		spec:    spec,
		logger:  logger,
	}
}

func (s *OverdueScanner) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Scan(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid overdue scan schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("overdue scanner started", zap.String("schedule", s.spec))
	return nil
}

func (s *OverdueScanner) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *OverdueScanner) Scan(ctx context.Context) {
	now := time.Now()
	steps, err := s.source.ListOverdueSteps(ctx, now)
	if err != nil {
		s.logger.Error("overdue scan failed", zap.Error(err))
		return
	}

	for _, item := range steps {
		step := item.Step
		stepID := step.ID
		body := ""
		if step.DueDate != nil {
			body = fmt.Sprintf("The step was due on %s.", step.DueDate.Format("2006-01-02"))
		}
		n := &Notification{
			UserID:     step.AssignedToUserID,
			Kind:       KindStepOverdue,
			Title:      fmt.Sprintf("Step %d is overdue", step.Order),
			Body:       body,
			WorkflowID: &step.WorkflowID,
			StepID:     &stepID,
			DocumentID: &item.Workflow.DocumentID,
		}
		if err := s.service.Notify(ctx, n); err != nil {
			s.logger.Warn("failed to send overdue reminder",
				zap.String("step_id", step.ID.String()),
				zap.Error(err))
		}
	}

	if len(steps) > 0 {
		s.logger.Info("overdue scan finished", zap.Int("overdue_steps", len(steps)))
	}
}
