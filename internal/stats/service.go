package stats

import (
	"context"
	"time"
)

type Service interface {
	GetOverview(ctx context.Context) (*Overview, error)
	ExportOverview(ctx context.Context) ([]byte, error)
}

type statsService struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &statsService{repo: repo, now: time.Now}
}

func (s *statsService) GetOverview(ctx context.Context) (*Overview, error) {
	documents, err := s.repo.DocumentsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	workflows, err := s.repo.WorkflowsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.StepsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.repo.DepartmentLoads(ctx)
	if err != nil {
		return nil, err
	}
	avgHours, err := s.repo.AvgStepHours(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := s.repo.OverdueStepCount(ctx, s.now())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalDocuments(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Documents:      documents,
		Workflows:      workflows,
		Steps:          steps,
		Departments:    departments,
		AvgStepHours:   avgHours,
		OverdueSteps:   overdue,
		TotalDocuments: total,
	}, nil
}

func (s *statsService) ExportOverview(ctx context.Context) ([]byte, error) {
	overview, err := s.GetOverview(ctx)
	if err != nil {
		return nil, err
	}
	return renderWorkbook(overview)
}
