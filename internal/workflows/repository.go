package workflows

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

type Repository interface {
	CreateWorkflow(ctx context.Context, wf *Workflow) error
	GetWorkflow(ctx context.Context, id uuid.UUID) (*Workflow, error)
	GetWorkflowByDocument(ctx context.Context, documentID uuid.UUID) (*Workflow, error)
	FindWorkflowIDByStep(ctx context.Context, stepID uuid.UUID) (uuid.UUID, error)
	ListWorkflows(ctx context.Context, filter ListFilter, p pagination.Params) ([]Workflow, int64, error)
	ListAssignedSteps(ctx context.Context, userID uuid.UUID, filter TaskFilter, p pagination.Params) ([]AssignedStep, int64, error)
	ListOverdueSteps(ctx context.Context, asOf time.Time) ([]AssignedStep, error)

	// UpdateWorkflow loads the aggregate under a row lock, applies mutate and
	// persists the result in the same transaction. Advancement recompute is
	// therefore atomic with the step write. The mutation stamps UpdatedAt so
	// it stays on the same clock as the transition timestamps.
	UpdateWorkflow(ctx context.Context, id uuid.UUID, mutate func(wf *Workflow) error) (*Workflow, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateWorkflow(ctx context.Context, wf *Workflow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO workflows (id, document_id, workflow_type, status, current_step_order, created_by, created_at, updated_at)
		VALUES (:id, :document_id, :workflow_type, :status, :current_step_order, :created_by, :created_at, :updated_at)`, wf)
	if err != nil {
		return translateConstraint(err)
	}

	for i := range wf.Steps {
		if err := insertStep(ctx, tx, &wf.Steps[i]); err != nil {
			return translateConstraint(err)
		}
	}

	return tx.Commit()
}

func insertStep(ctx context.Context, tx *sqlx.Tx, step *WorkflowStep) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO workflow_steps (
			id, workflow_id, step_order, action_type, assigned_to_user_id, status,
			started_at, completed_at, rejected_at, due_date, is_rejected, rejection_reason
		) VALUES (
			:id, :workflow_id, :step_order, :action_type, :assigned_to_user_id, :status,
			:started_at, :completed_at, :rejected_at, :due_date, :is_rejected, :rejection_reason
		)`, step)
	return err
}

func (r *postgresRepository) GetWorkflow(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	var wf Workflow
	err := r.db.GetContext(ctx, &wf, "SELECT * FROM workflows WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSteps(ctx, r.db, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *postgresRepository) GetWorkflowByDocument(ctx context.Context, documentID uuid.UUID) (*Workflow, error) {
	var wf Workflow
	err := r.db.GetContext(ctx, &wf, "SELECT * FROM workflows WHERE document_id = $1", documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSteps(ctx, r.db, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *postgresRepository) FindWorkflowIDByStep(ctx context.Context, stepID uuid.UUID) (uuid.UUID, error) {
	var wfID uuid.UUID
	err := r.db.GetContext(ctx, &wfID, "SELECT workflow_id FROM workflow_steps WHERE id = $1", stepID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, nil
	}
	return wfID, err
}

func (r *postgresRepository) ListWorkflows(ctx context.Context, filter ListFilter, p pagination.Params) ([]Workflow, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	argCount := 1

	if filter.DocumentID != nil {
		where += fmt.Sprintf(" AND document_id = $%d", argCount)
		args = append(args, *filter.DocumentID)
		argCount++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filter.Status)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM workflows"+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT * FROM workflows%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", where, argCount, argCount+1)
	args = append(args, p.Limit, p.Offset())

	var wfs []Workflow
	if err := r.db.SelectContext(ctx, &wfs, query, args...); err != nil {
		return nil, 0, err
	}
	for i := range wfs {
		if err := r.loadSteps(ctx, r.db, &wfs[i]); err != nil {
			return nil, 0, err
		}
	}
	return wfs, total, nil
}

func (r *postgresRepository) ListAssignedSteps(ctx context.Context, userID uuid.UUID, filter TaskFilter, p pagination.Params) ([]AssignedStep, int64, error) {
	where := " WHERE assigned_to_user_id = $1"
	args := []interface{}{userID}
	argCount := 2

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filter.Status)
		argCount++
	}
	if filter.ActionType != nil {
		where += fmt.Sprintf(" AND action_type = $%d", argCount)
		args = append(args, *filter.ActionType)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM workflow_steps"+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT * FROM workflow_steps%s ORDER BY due_date NULLS LAST, step_order LIMIT $%d OFFSET $%d", where, argCount, argCount+1)
	args = append(args, p.Limit, p.Offset())

	var steps []WorkflowStep
	if err := r.db.SelectContext(ctx, &steps, query, args...); err != nil {
		return nil, 0, err
	}
	tasks, err := r.attachWorkflows(ctx, steps)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *postgresRepository) ListOverdueSteps(ctx context.Context, asOf time.Time) ([]AssignedStep, error) {
	var steps []WorkflowStep
	err := r.db.SelectContext(ctx, &steps, `
		SELECT s.* FROM workflow_steps s
		JOIN workflows w ON w.id = s.workflow_id
		WHERE s.due_date IS NOT NULL
		  AND s.due_date < $1
		  AND s.status NOT IN ('completed', 'rejected')
		  AND w.status = 'active'
		ORDER BY s.due_date`, asOf)
	if err != nil {
		return nil, err
	}
	return r.attachWorkflows(ctx, steps)
}

func (r *postgresRepository) attachWorkflows(ctx context.Context, steps []WorkflowStep) ([]AssignedStep, error) {
	tasks := make([]AssignedStep, 0, len(steps))
	if len(steps) == 0 {
		return tasks, nil
	}

	idSet := make(map[uuid.UUID]bool)
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		if !idSet[s.WorkflowID] {
			idSet[s.WorkflowID] = true
			ids = append(ids, s.WorkflowID.String())
		}
	}

	var wfs []Workflow
	if err := r.db.SelectContext(ctx, &wfs, "SELECT * FROM workflows WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Workflow, len(wfs))
	for _, wf := range wfs {
		byID[wf.ID] = wf
	}

	for _, s := range steps {
		tasks = append(tasks, AssignedStep{Step: s, Workflow: byID[s.WorkflowID]})
	}
	return tasks, nil
}

func (r *postgresRepository) UpdateWorkflow(ctx context.Context, id uuid.UUID, mutate func(wf *Workflow) error) (*Workflow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var wf Workflow
	err = tx.GetContext(ctx, &wf, "SELECT * FROM workflows WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("workflow", id.String())
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSteps(ctx, tx, &wf); err != nil {
		return nil, err
	}

	loadedSteps := make(map[uuid.UUID]bool, len(wf.Steps))
	for _, s := range wf.Steps {
		loadedSteps[s.ID] = true
	}
	loadedMaxSeq := wf.maxActionSeq()

	if err := mutate(&wf); err != nil {
		return nil, err
	}

	_, err = tx.NamedExecContext(ctx, `
		UPDATE workflows SET
			status = :status,
			current_step_order = :current_step_order,
			updated_at = :updated_at
		WHERE id = :id`, &wf)
	if err != nil {
		return nil, err
	}

	kept := make(map[uuid.UUID]bool, len(wf.Steps))
	for i := range wf.Steps {
		kept[wf.Steps[i].ID] = true
	}
	// Removed rows go first so a replacement step list can reuse their
	// orders and assignees without tripping the unique step constraints,
	// which postgres checks per statement.
	for stepID := range loadedSteps {
		if !kept[stepID] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM workflow_steps WHERE id = $1", stepID); err != nil {
				return nil, err
			}
		}
	}
	for i := range wf.Steps {
		step := &wf.Steps[i]
		if loadedSteps[step.ID] {
			_, err = tx.NamedExecContext(ctx, `
				UPDATE workflow_steps SET
					step_order = :step_order,
					action_type = :action_type,
					assigned_to_user_id = :assigned_to_user_id,
					status = :status,
					started_at = :started_at,
					completed_at = :completed_at,
					rejected_at = :rejected_at,
					due_date = :due_date,
					is_rejected = :is_rejected,
					rejection_reason = :rejection_reason
				WHERE id = :id`, step)
		} else {
			err = insertStep(ctx, tx, step)
		}
		if err != nil {
			return nil, translateConstraint(err)
		}
	}
	for i := range wf.Steps {
		for _, a := range wf.Steps[i].Actions {
			if a.Seq <= loadedMaxSeq {
				continue
			}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO workflow_step_actions (id, workflow_id, step_id, seq, action_type, performed_by, comment, performed_at)
				VALUES (:id, :workflow_id, :step_id, :seq, :action_type, :performed_by, :comment, :performed_at)`, &a)
			if err != nil {
				return nil, translateConstraint(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &wf, nil
}

type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *postgresRepository) loadSteps(ctx context.Context, q queryer, wf *Workflow) error {
	var steps []WorkflowStep
	if err := q.SelectContext(ctx, &steps, "SELECT * FROM workflow_steps WHERE workflow_id = $1 ORDER BY step_order", wf.ID); err != nil {
		return err
	}

	var actions []StepAction
	if err := q.SelectContext(ctx, &actions, "SELECT * FROM workflow_step_actions WHERE workflow_id = $1 ORDER BY seq", wf.ID); err != nil {
		return err
	}
	byStep := make(map[uuid.UUID][]StepAction)
	for _, a := range actions {
		byStep[a.StepID] = append(byStep[a.StepID], a)
	}
	for i := range steps {
		steps[i].Actions = byStep[steps[i].ID]
	}

	wf.Steps = steps
	return nil
}

// translateConstraint maps postgres unique violations onto the error
// taxonomy so handlers surface them as conflicts, not 500s.
func translateConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case "workflows_document_id_key":
		return apperrors.NewConflictError("workflow", "document already has a workflow")
	case "workflow_steps_workflow_id_step_order_key":
		return apperrors.NewConflictError("workflow step", "duplicate step order")
	case "workflow_steps_workflow_id_assigned_to_user_id_key":
		return apperrors.NewConflictError("workflow step", "duplicate assignee")
	}
	return apperrors.NewConflictError("workflow", pqErr.Detail)
}
