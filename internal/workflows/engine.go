package workflows

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

// DocumentRef is the document summary the engine needs from the documents
// module: existence plus display fields for enrichment.
type DocumentRef struct {
	ID                 uuid.UUID `json:"id"`
	RegistrationNumber string    `json:"registration_number"`
	Title              string    `json:"title"`
}

type DocumentDirectory interface {
	// GetDocumentRef returns nil when the document does not exist.
	GetDocumentRef(ctx context.Context, id uuid.UUID) (*DocumentRef, error)
}

// UserRef is the assignee summary resolved through the users module.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

type UserDirectory interface {
	// GetUserRefs resolves the given ids. Missing ids are absent from the map.
	GetUserRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserRef, error)
}

// Policy carries the configurable business rules of the engine.
type Policy struct {
	MinRejectionReasonLength     int
	RequireStartedBeforeComplete bool
}

// Engine owns workflow and step state transitions. Every mutation runs inside
// a single repository transaction that locks the workflow aggregate, so
// advancement recompute is atomic with the step write.
type Engine struct {
	repo   Repository
	docs   DocumentDirectory
	users  UserDirectory
	policy Policy
	sinks  []EventSink
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(repo Repository, docs DocumentDirectory, users UserDirectory, policy Policy, logger *zap.Logger, sinks ...EventSink) *Engine {
	if policy.MinRejectionReasonLength <= 0 {
		policy.MinRejectionReasonLength = 10
	}
	return &Engine{
		repo:   repo,
		docs:   docs,
		users:  users,
		policy: policy,
		sinks:  sinks,
		logger: logger,
		now:    time.Now,
	}
}

// WorkflowDetail is a workflow enriched with its document and assignee
// summaries, as returned by the get endpoint.
type WorkflowDetail struct {
	Workflow
	Document  *DocumentRef          `json:"document,omitempty"`
	Assignees map[uuid.UUID]UserRef `json:"assignees"`
}

// CreateWorkflow validates and persists a new workflow for a document.
// Validation order: document exists, document not yet workflowed, step list
// non-empty, assignees exist, no duplicate assignee, no duplicate order.
func (e *Engine) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest, createdBy uuid.UUID) (*Workflow, error) {
	if req.WorkflowType != TypeSequential && req.WorkflowType != TypeParallel {
		return nil, apperrors.NewValidationError("workflow_type", "must be sequential or parallel")
	}

	doc, err := e.docs.GetDocumentRef(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.NewNotFoundError("document", req.DocumentID.String())
	}

	existing, err := e.repo.GetWorkflowByDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("workflow", "document already has a workflow")
	}

	steps, err := e.buildSteps(ctx, req.Steps)
	if err != nil {
		return nil, err
	}

	now := e.now()
	wf := &Workflow{
		ID:               uuid.New(),
		DocumentID:       req.DocumentID,
		WorkflowType:     req.WorkflowType,
		Status:           WorkflowActive,
		CurrentStepOrder: steps[0].Order,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
		Steps:            steps,
	}
	for i := range wf.Steps {
		wf.Steps[i].WorkflowID = wf.ID
	}
	// Seed the first step so its assignee sees an actionable task right away.
	wf.Steps[0].Status = StepPending

	if err := e.repo.CreateWorkflow(ctx, wf); err != nil {
		return nil, err
	}

	e.logger.Info("workflow created",
		zap.String("workflow_id", wf.ID.String()),
		zap.String("document_id", wf.DocumentID.String()),
		zap.String("type", string(wf.WorkflowType)),
		zap.Int("steps", len(wf.Steps)))

	e.publish(ctx, stepEvent(EventStepReady, wf, &wf.Steps[0], createdBy, "", now))
	return wf, nil
}

// buildSteps validates step specs and returns normalized steps, ordered and
// renumbered 1..N, all NOT_STARTED.
func (e *Engine) buildSteps(ctx context.Context, specs []StepSpec) ([]WorkflowStep, error) {
	if len(specs) == 0 {
		return nil, apperrors.NewValidationError("steps", "at least one step required")
	}

	ids := make([]uuid.UUID, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, s.AssignedToUserID)
	}
	refs, err := e.users.GetUserRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range ids {
		if _, ok := refs[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewNotFoundError("assigned user", strings.Join(missing, ", "))
	}

	seen := make(map[uuid.UUID]bool, len(specs))
	for _, s := range specs {
		if seen[s.AssignedToUserID] {
			return nil, apperrors.NewValidationError("steps", fmt.Sprintf("duplicate assignee: %s", s.AssignedToUserID))
		}
		seen[s.AssignedToUserID] = true
	}

	ordered := make([]StepSpec, len(specs))
	copy(ordered, specs)
	seenOrder := make(map[int]bool, len(specs))
	explicit := false
	for _, s := range ordered {
		if s.Order == nil {
			continue
		}
		explicit = true
		if seenOrder[*s.Order] {
			return nil, apperrors.NewConflictError("workflow step", fmt.Sprintf("duplicate step order %d", *s.Order))
		}
		seenOrder[*s.Order] = true
	}
	if explicit {
		sort.SliceStable(ordered, func(i, j int) bool {
			oi, oj := 0, 0
			if ordered[i].Order != nil {
				oi = *ordered[i].Order
			}
			if ordered[j].Order != nil {
				oj = *ordered[j].Order
			}
			return oi < oj
		})
	}

	steps := make([]WorkflowStep, len(ordered))
	for i, s := range ordered {
		steps[i] = WorkflowStep{
			ID:               uuid.New(),
			Order:            i + 1,
			ActionType:       s.ActionType,
			AssignedToUserID: s.AssignedToUserID,
			Status:           StepNotStarted,
			DueDate:          s.DueDate,
		}
	}
	return steps, nil
}

// StartStep moves a NOT_STARTED or PENDING step to IN_PROGRESS. Under
// sequential execution every prior step must already be COMPLETED.
func (e *Engine) StartStep(ctx context.Context, stepID, actorID uuid.UUID) (*WorkflowStep, error) {
	var evts []Event
	wf, err := e.mutateByStep(ctx, stepID, func(wf *Workflow, step *WorkflowStep) error {
		if wf.Status != WorkflowActive {
			return apperrors.NewInvalidStateError("workflow", string(wf.Status), "workflow is not active")
		}
		if step.Status != StepNotStarted && step.Status != StepPending {
			return apperrors.NewInvalidStateError("workflow step", string(step.Status), "step already started or finished")
		}
		if err := sequentialGate(wf, step); err != nil {
			return err
		}
		now := e.now()
		wf.UpdatedAt = now
		step.Status = StepInProgress
		step.StartedAt = &now
		if wf.WorkflowType == TypeSequential {
			wf.CurrentStepOrder = step.Order
		}
		e.appendAction(wf, step, LogStarted, actorID, "", now)
		evts = append(evts, stepEvent(EventStepStarted, wf, step, actorID, "", now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, evts...)
	return wf.findStep(stepID), nil
}

// CompleteStep finishes a step and recomputes workflow advancement in the
// same transaction. With the strict policy the step must be IN_PROGRESS; the
// relaxed policy lets task-list callers complete without an explicit start.
func (e *Engine) CompleteStep(ctx context.Context, stepID, actorID uuid.UUID, comment string) (*Workflow, error) {
	var evts []Event
	wf, err := e.mutateByStep(ctx, stepID, func(wf *Workflow, step *WorkflowStep) error {
		if wf.Status != WorkflowActive {
			return apperrors.NewInvalidStateError("workflow", string(wf.Status), "workflow is not active")
		}
		if err := e.checkActionable(step); err != nil {
			return err
		}
		if err := sequentialGate(wf, step); err != nil {
			return err
		}
		now := e.now()
		wf.UpdatedAt = now
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		step.Status = StepCompleted
		step.CompletedAt = &now
		e.appendAction(wf, step, LogApproved, actorID, comment, now)
		evts = append(evts, stepEvent(EventStepCompleted, wf, step, actorID, comment, now))
		e.advance(wf, &evts, actorID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, evts...)
	return wf, nil
}

// RejectStep terminates a step with a mandatory justification. When a
// rollback target is given, forward progress is undone back to that
// assignee's step: the target resets to PENDING, everything strictly between
// target and rejected step resets to NOT_STARTED, and currentStepOrder moves
// back. The rejected step itself stays REJECTED.
func (e *Engine) RejectStep(ctx context.Context, stepID, actorID uuid.UUID, req RejectStepRequest) (*Workflow, error) {
	reason := strings.TrimSpace(req.RejectionReason)
	if utf8.RuneCountInString(reason) < e.policy.MinRejectionReasonLength {
		return nil, apperrors.NewValidationError("rejection_reason",
			fmt.Sprintf("must be at least %d characters", e.policy.MinRejectionReasonLength))
	}

	var evts []Event
	wf, err := e.mutateByStep(ctx, stepID, func(wf *Workflow, step *WorkflowStep) error {
		if wf.Status != WorkflowActive {
			return apperrors.NewInvalidStateError("workflow", string(wf.Status), "workflow is not active")
		}
		if err := e.checkActionable(step); err != nil {
			return err
		}

		var target *WorkflowStep
		if req.RollbackToUserID != nil {
			if wf.WorkflowType != TypeSequential {
				return apperrors.NewValidationError("rollback_to_user_id", "rollback requires a sequential workflow")
			}
			for i := range wf.Steps {
				s := &wf.Steps[i]
				if s.AssignedToUserID == *req.RollbackToUserID && s.Order < step.Order {
					target = s
					break
				}
			}
			if target == nil {
				return apperrors.NewValidationError("rollback_to_user_id", "rollback target must be a prior assignee")
			}
		}

		now := e.now()
		wf.UpdatedAt = now
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		step.Status = StepRejected
		step.IsRejected = true
		step.RejectionReason = &reason
		step.RejectedAt = &now
		e.appendAction(wf, step, LogRejected, actorID, firstNonEmpty(req.Comment, reason), now)
		evts = append(evts, stepEvent(EventStepRejected, wf, step, actorID, reason, now))

		if target != nil {
			for i := range wf.Steps {
				s := &wf.Steps[i]
				if s.Order > target.Order && s.Order < step.Order {
					resetStep(s, StepNotStarted)
				}
			}
			resetStep(target, StepPending)
			wf.CurrentStepOrder = target.Order
			e.appendAction(wf, target, LogRolledBack, actorID,
				fmt.Sprintf("rolled back from step %d", step.Order), now)
			evts = append(evts,
				stepEvent(EventWorkflowRolledBack, wf, target, actorID, reason, now),
				stepEvent(EventStepReady, wf, target, actorID, "", now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, evts...)
	return wf, nil
}

// UpdateSteps replaces the whole step list of a workflow that has not made
// progress yet. Step identity is not preserved across a replacement.
func (e *Engine) UpdateSteps(ctx context.Context, workflowID uuid.UUID, req UpdateStepsRequest, actorID uuid.UUID) (*Workflow, error) {
	steps, err := e.buildSteps(ctx, req.Steps)
	if err != nil {
		return nil, err
	}

	var evts []Event
	wf, err := e.repo.UpdateWorkflow(ctx, workflowID, func(wf *Workflow) error {
		if wf.Status != WorkflowActive && wf.Status != WorkflowDraft {
			return apperrors.NewInvalidStateError("workflow", string(wf.Status), "workflow is not editable")
		}
		for i := range wf.Steps {
			s := wf.Steps[i].Status
			if s != StepNotStarted && s != StepPending {
				return apperrors.NewInvalidStateError("workflow", string(wf.Status), "cannot replace steps after execution started")
			}
		}
		for i := range steps {
			steps[i].WorkflowID = wf.ID
		}
		steps[0].Status = StepPending
		now := e.now()
		wf.Steps = steps
		wf.CurrentStepOrder = steps[0].Order
		wf.UpdatedAt = now
		evts = append(evts, stepEvent(EventStepReady, wf, &wf.Steps[0], actorID, "", now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, evts...)
	return wf, nil
}

// CancelWorkflow stops an active or draft workflow explicitly.
func (e *Engine) CancelWorkflow(ctx context.Context, workflowID, actorID uuid.UUID, comment string) (*Workflow, error) {
	var evts []Event
	wf, err := e.repo.UpdateWorkflow(ctx, workflowID, func(wf *Workflow) error {
		if wf.Status != WorkflowActive && wf.Status != WorkflowDraft {
			return apperrors.NewInvalidStateError("workflow", string(wf.Status), "workflow already finished")
		}
		now := e.now()
		wf.UpdatedAt = now
		wf.Status = WorkflowCancelled
		step := CurrentStep(wf)
		if step == nil {
			step = &wf.Steps[0]
		}
		e.appendAction(wf, step, LogCancelled, actorID, comment, now)
		evts = append(evts, Event{
			Type:         EventWorkflowCancelled,
			WorkflowID:   wf.ID,
			DocumentID:   wf.DocumentID,
			TargetUserID: wf.CreatedBy,
			ActorUserID:  actorID,
			Detail:       comment,
			OccurredAt:   now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, evts...)
	return wf, nil
}

// GetWorkflow returns a workflow with steps and action log.
func (e *Engine) GetWorkflow(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	wf, err := e.repo.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, apperrors.NewNotFoundError("workflow", id.String())
	}
	return wf, nil
}

// GetWorkflowDetail enriches a workflow with its document and assignee
// summaries for the detail view.
func (e *Engine) GetWorkflowDetail(ctx context.Context, id uuid.UUID) (*WorkflowDetail, error) {
	wf, err := e.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := e.docs.GetDocumentRef(ctx, wf.DocumentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(wf.Steps))
	for _, s := range wf.Steps {
		ids = append(ids, s.AssignedToUserID)
	}
	refs, err := e.users.GetUserRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &WorkflowDetail{Workflow: *wf, Document: doc, Assignees: refs}, nil
}

// ListWorkflows returns a filtered page of workflows with steps.
func (e *Engine) ListWorkflows(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[Workflow], error) {
	items, total, err := e.repo.ListWorkflows(ctx, filter, p)
	if err != nil {
		return pagination.Page[Workflow]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// ListMyTasks returns the steps assigned to a user, enriched with their
// workflows, for the task-list surface.
func (e *Engine) ListMyTasks(ctx context.Context, userID uuid.UUID, filter TaskFilter, p pagination.Params) (pagination.Page[AssignedStep], error) {
	items, total, err := e.repo.ListAssignedSteps(ctx, userID, filter, p)
	if err != nil {
		return pagination.Page[AssignedStep]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// RollbackTargets returns the eligible rollback assignees for a step.
func (e *Engine) RollbackTargets(ctx context.Context, stepID uuid.UUID) ([]RollbackTarget, error) {
	wfID, err := e.findWorkflowID(ctx, stepID)
	if err != nil {
		return nil, err
	}
	wf, err := e.GetWorkflow(ctx, wfID)
	if err != nil {
		return nil, err
	}
	step := wf.findStep(stepID)
	if step == nil {
		return nil, apperrors.NewNotFoundError("workflow step", stepID.String())
	}
	return EligibleRollbackTargets(wf, step), nil
}

// checkActionable enforces the strict/relaxed source-state policy for
// complete and reject.
func (e *Engine) checkActionable(step *WorkflowStep) error {
	switch step.Status {
	case StepInProgress:
		return nil
	case StepNotStarted, StepPending:
		if e.policy.RequireStartedBeforeComplete {
			return apperrors.NewInvalidStateError("workflow step", string(step.Status), "step has not been started")
		}
		return nil
	default:
		return apperrors.NewInvalidStateError("workflow step", string(step.Status), "step already finished")
	}
}

// advance recomputes currentStepOrder after a completion and closes the
// workflow once every step is COMPLETED.
func (e *Engine) advance(wf *Workflow, evts *[]Event, actorID uuid.UUID, now time.Time) {
	allCompleted := true
	nextOrder := 0
	for i := range wf.Steps {
		s := &wf.Steps[i]
		if s.Status == StepCompleted {
			continue
		}
		allCompleted = false
		if nextOrder == 0 || s.Order < nextOrder {
			nextOrder = s.Order
		}
	}

	if allCompleted {
		wf.Status = WorkflowCompleted
		*evts = append(*evts, Event{
			Type:         EventWorkflowCompleted,
			WorkflowID:   wf.ID,
			DocumentID:   wf.DocumentID,
			TargetUserID: wf.CreatedBy,
			ActorUserID:  actorID,
			OccurredAt:   now,
		})
		return
	}

	if wf.WorkflowType != TypeSequential {
		return
	}
	wf.CurrentStepOrder = nextOrder
	next := wf.stepByOrder(nextOrder)
	if next != nil && next.Status == StepNotStarted {
		next.Status = StepPending
		*evts = append(*evts, stepEvent(EventStepReady, wf, next, actorID, "", now))
	}
}

func (e *Engine) appendAction(wf *Workflow, step *WorkflowStep, t ActionLogType, actorID uuid.UUID, comment string, at time.Time) {
	step.Actions = append(step.Actions, StepAction{
		ID:          uuid.New(),
		WorkflowID:  wf.ID,
		StepID:      step.ID,
		Seq:         wf.maxActionSeq() + 1,
		ActionType:  t,
		PerformedBy: actorID,
		Comment:     comment,
		PerformedAt: at,
	})
}

// mutateByStep resolves a step id to its workflow and runs the mutation under
// the aggregate lock.
func (e *Engine) mutateByStep(ctx context.Context, stepID uuid.UUID, mutate func(wf *Workflow, step *WorkflowStep) error) (*Workflow, error) {
	wfID, err := e.findWorkflowID(ctx, stepID)
	if err != nil {
		return nil, err
	}
	return e.repo.UpdateWorkflow(ctx, wfID, func(wf *Workflow) error {
		step := wf.findStep(stepID)
		if step == nil {
			return apperrors.NewNotFoundError("workflow step", stepID.String())
		}
		return mutate(wf, step)
	})
}

func (e *Engine) findWorkflowID(ctx context.Context, stepID uuid.UUID) (uuid.UUID, error) {
	wfID, err := e.repo.FindWorkflowIDByStep(ctx, stepID)
	if err != nil {
		return uuid.Nil, err
	}
	if wfID == uuid.Nil {
		return uuid.Nil, apperrors.NewNotFoundError("workflow step", stepID.String())
	}
	return wfID, nil
}

func (e *Engine) publish(ctx context.Context, evts ...Event) {
	for _, evt := range evts {
		for _, sink := range e.sinks {
			sink.Publish(ctx, evt)
		}
	}
}

func sequentialGate(wf *Workflow, step *WorkflowStep) error {
	if wf.WorkflowType != TypeSequential {
		return nil
	}
	for i := range wf.Steps {
		s := &wf.Steps[i]
		if s.Order < step.Order && s.Status != StepCompleted {
			return apperrors.NewInvalidStateError("workflow step", string(step.Status), "prior steps incomplete")
		}
	}
	return nil
}

func resetStep(s *WorkflowStep, to StepStatus) {
	s.Status = to
	s.StartedAt = nil
	s.CompletedAt = nil
	s.RejectedAt = nil
	s.IsRejected = false
	s.RejectionReason = nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
