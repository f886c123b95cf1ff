package stats

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	DocumentsByStatus(ctx context.Context) ([]StatusCount, error)
	WorkflowsByStatus(ctx context.Context) ([]StatusCount, error)
	StepsByStatus(ctx context.Context) ([]StatusCount, error)
	DepartmentLoads(ctx context.Context) ([]DepartmentLoad, error)
	AvgStepHours(ctx context.Context) (float64, error)
	OverdueStepCount(ctx context.Context, asOf time.Time) (int64, error)
	TotalDocuments(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) DocumentsByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(*) AS count FROM documents GROUP BY status ORDER BY status")
	return counts, err
}

func (r *postgresRepository) WorkflowsByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(*) AS count FROM workflows GROUP BY status ORDER BY status")
	return counts, err
}

func (r *postgresRepository) StepsByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(*) AS count FROM workflow_steps GROUP BY status ORDER BY status")
	return counts, err
}

func (r *postgresRepository) DepartmentLoads(ctx context.Context) ([]DepartmentLoad, error) {
	var loads []DepartmentLoad
	err := r.db.SelectContext(ctx, &loads, `
		SELECT d.id AS department_id,
		       d.name AS department_name,
		       COUNT(*) FILTER (WHERE s.status IN ('pending', 'in_progress')) AS open_steps,
		       COUNT(*) FILTER (WHERE s.status = 'completed') AS completed_steps
		FROM departments d
		JOIN users u ON u.department_id = d.id
		JOIN workflow_steps s ON s.assigned_to_user_id = u.id
		GROUP BY d.id, d.name
		ORDER BY d.name`)
	return loads, err
}

func (r *postgresRepository) AvgStepHours(ctx context.Context) (float64, error) {
	var hours float64
	err := r.db.GetContext(ctx, &hours, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM completed_at - started_at) / 3600), 0)
		FROM workflow_steps
		WHERE started_at IS NOT NULL AND completed_at IS NOT NULL`)
	return hours, err
}

func (r *postgresRepository) OverdueStepCount(ctx context.Context, asOf time.Time) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM workflow_steps s
		JOIN workflows w ON w.id = s.workflow_id
		WHERE s.due_date IS NOT NULL
		  AND s.due_date < $1
		  AND s.status IN ('pending', 'in_progress')
		  AND w.status = 'active'`, asOf)
	return count, err
}

func (r *postgresRepository) TotalDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM documents")
	return count, err
}
