package workflows

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docuflow/approval-portal/approval-portal-backend/pkg/apperrors"
	"docuflow/approval-portal/approval-portal-backend/pkg/pagination"
)

// memRepo keeps workflow aggregates in memory and applies mutations the way
// the postgres repository does: load under the lock, mutate a working copy,
// then replay the step writes statement by statement with the unique
// step-order and assignee constraints checked after each one.
type memRepo struct {
	byID map[uuid.UUID]*Workflow
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*Workflow)}
}

func (r *memRepo) CreateWorkflow(_ context.Context, wf *Workflow) error {
	r.byID[wf.ID] = wf
	return nil
}

func (r *memRepo) GetWorkflow(_ context.Context, id uuid.UUID) (*Workflow, error) {
	return r.byID[id], nil
}

func (r *memRepo) GetWorkflowByDocument(_ context.Context, documentID uuid.UUID) (*Workflow, error) {
	for _, wf := range r.byID {
		if wf.DocumentID == documentID {
			return wf, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindWorkflowIDByStep(_ context.Context, stepID uuid.UUID) (uuid.UUID, error) {
	for _, wf := range r.byID {
		for i := range wf.Steps {
			if wf.Steps[i].ID == stepID {
				return wf.ID, nil
			}
		}
	}
	return uuid.Nil, nil
}

func (r *memRepo) ListWorkflows(_ context.Context, _ ListFilter, _ pagination.Params) ([]Workflow, int64, error) {
	var out []Workflow
	for _, wf := range r.byID {
		out = append(out, *wf)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) ListAssignedSteps(_ context.Context, userID uuid.UUID, _ TaskFilter, _ pagination.Params) ([]AssignedStep, int64, error) {
	var out []AssignedStep
	for _, wf := range r.byID {
		for i := range wf.Steps {
			if wf.Steps[i].AssignedToUserID == userID {
				out = append(out, AssignedStep{Step: wf.Steps[i], Workflow: *wf})
			}
		}
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) ListOverdueSteps(_ context.Context, asOf time.Time) ([]AssignedStep, error) {
	var out []AssignedStep
	for _, wf := range r.byID {
		if wf.Status != WorkflowActive {
			continue
		}
		for i := range wf.Steps {
			if IsOverdue(&wf.Steps[i], asOf) {
				out = append(out, AssignedStep{Step: wf.Steps[i], Workflow: *wf})
			}
		}
	}
	return out, nil
}

func (r *memRepo) UpdateWorkflow(_ context.Context, id uuid.UUID, mutate func(wf *Workflow) error) (*Workflow, error) {
	stored, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("workflow", id.String())
	}

	work := *stored
	work.Steps = make([]WorkflowStep, len(stored.Steps))
	copy(work.Steps, stored.Steps)
	if err := mutate(&work); err != nil {
		return nil, err
	}

	// Same write order as the SQL layer: removed rows deleted first, then
	// kept rows updated and new rows inserted one at a time.
	live := make(map[uuid.UUID]WorkflowStep, len(stored.Steps))
	for _, s := range stored.Steps {
		live[s.ID] = s
	}
	kept := make(map[uuid.UUID]bool, len(work.Steps))
	for i := range work.Steps {
		kept[work.Steps[i].ID] = true
	}
	for stepID := range live {
		if !kept[stepID] {
			delete(live, stepID)
		}
	}
	for i := range work.Steps {
		live[work.Steps[i].ID] = work.Steps[i]
		if err := checkStepConstraints(live); err != nil {
			return nil, err
		}
	}

	r.byID[id] = &work
	return &work, nil
}

func checkStepConstraints(live map[uuid.UUID]WorkflowStep) error {
	orders := make(map[int]bool, len(live))
	assignees := make(map[uuid.UUID]bool, len(live))
	for _, s := range live {
		if orders[s.Order] {
			return apperrors.NewConflictError("workflow step", "duplicate step order")
		}
		if assignees[s.AssignedToUserID] {
			return apperrors.NewConflictError("workflow step", "duplicate assignee")
		}
		orders[s.Order] = true
		assignees[s.AssignedToUserID] = true
	}
	return nil
}

type memDocs struct {
	docs map[uuid.UUID]DocumentRef
}

func (d *memDocs) GetDocumentRef(_ context.Context, id uuid.UUID) (*DocumentRef, error) {
	if ref, ok := d.docs[id]; ok {
		return &ref, nil
	}
	return nil, nil
}

type memUsers struct {
	users map[uuid.UUID]UserRef
}

func (u *memUsers) GetUserRefs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]UserRef, error) {
	refs := make(map[uuid.UUID]UserRef)
	for _, id := range ids {
		if ref, ok := u.users[id]; ok {
			refs[id] = ref
		}
	}
	return refs, nil
}

type capturedEvents struct {
	events []Event
}

func (c *capturedEvents) Publish(_ context.Context, evt Event) {
	c.events = append(c.events, evt)
}

type fixture struct {
	engine *Engine
	repo   *memRepo
	events *capturedEvents
	doc    uuid.UUID
	users  []uuid.UUID
	clock  *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()

	docID := uuid.New()
	userIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	users := make(map[uuid.UUID]UserRef, len(userIDs))
	for i, id := range userIDs {
		users[id] = UserRef{ID: id, FullName: "User " + string(rune('A'+i)), Email: "user@example.com"}
	}

	repo := newMemRepo()
	events := &capturedEvents{}
	engine := NewEngine(repo,
		&memDocs{docs: map[uuid.UUID]DocumentRef{docID: {ID: docID, Title: "Contract"}}},
		&memUsers{users: users},
		policy,
		zap.NewNop(),
		events,
	)
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	engine.now = clock.Now

	return &fixture{engine: engine, repo: repo, events: events, doc: docID, users: userIDs, clock: clock}
}

func (f *fixture) createWorkflow(t *testing.T, wfType WorkflowType) *Workflow {
	t.Helper()
	specs := make([]StepSpec, len(f.users))
	for i, id := range f.users {
		specs[i] = StepSpec{AssignedToUserID: id, ActionType: ActionApproval}
	}
	wf, err := f.engine.CreateWorkflow(context.Background(), CreateWorkflowRequest{
		DocumentID:   f.doc,
		WorkflowType: wfType,
		Steps:        specs,
	}, f.users[0])
	require.NoError(t, err)
	return wf
}

func TestCreateWorkflowSeedsFirstStep(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)

	assert.Equal(t, WorkflowActive, wf.Status)
	assert.Equal(t, 1, wf.CurrentStepOrder)
	require.Len(t, wf.Steps, 3)
	assert.Equal(t, StepPending, wf.Steps[0].Status)
	assert.Equal(t, StepNotStarted, wf.Steps[1].Status)
	assert.Equal(t, StepNotStarted, wf.Steps[2].Status)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventStepReady, f.events.events[0].Type)
	assert.Equal(t, f.users[0], f.events.events[0].TargetUserID)
}

func TestCreateWorkflowNormalizesExplicitOrders(t *testing.T) {
	f := newFixture(t, Policy{})
	five, two, nine := 5, 2, 9
	wf, err := f.engine.CreateWorkflow(context.Background(), CreateWorkflowRequest{
		DocumentID:   f.doc,
		WorkflowType: TypeSequential,
		Steps: []StepSpec{
			{AssignedToUserID: f.users[0], ActionType: ActionReview, Order: &five},
			{AssignedToUserID: f.users[1], ActionType: ActionApproval, Order: &two},
			{AssignedToUserID: f.users[2], ActionType: ActionSign, Order: &nine},
		},
	}, f.users[0])
	require.NoError(t, err)

	require.Len(t, wf.Steps, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{wf.Steps[0].Order, wf.Steps[1].Order, wf.Steps[2].Order})
	assert.Equal(t, f.users[1], wf.Steps[0].AssignedToUserID)
	assert.Equal(t, f.users[0], wf.Steps[1].AssignedToUserID)
	assert.Equal(t, f.users[2], wf.Steps[2].AssignedToUserID)
}

func TestCreateWorkflowValidation(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	spec := StepSpec{AssignedToUserID: f.users[0], ActionType: ActionApproval}

	t.Run("invalid type", func(t *testing.T) {
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: "circular", Steps: []StepSpec{spec},
		}, f.users[0])
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: uuid.New(), WorkflowType: TypeSequential, Steps: []StepSpec{spec},
		}, f.users[0])
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("empty steps", func(t *testing.T) {
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: TypeSequential,
		}, f.users[0])
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown assignee", func(t *testing.T) {
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: TypeSequential,
			Steps: []StepSpec{{AssignedToUserID: uuid.New(), ActionType: ActionApproval}},
		}, f.users[0])
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("duplicate assignee", func(t *testing.T) {
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: TypeSequential,
			Steps: []StepSpec{spec, spec},
		}, f.users[0])
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("duplicate explicit order", func(t *testing.T) {
		one := 1
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: TypeSequential,
			Steps: []StepSpec{
				{AssignedToUserID: f.users[0], ActionType: ActionApproval, Order: &one},
				{AssignedToUserID: f.users[1], ActionType: ActionApproval, Order: &one},
			},
		}, f.users[0])
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("second workflow for same document", func(t *testing.T) {
		f.createWorkflow(t, TypeSequential)
		_, err := f.engine.CreateWorkflow(ctx, CreateWorkflowRequest{
			DocumentID: f.doc, WorkflowType: TypeSequential, Steps: []StepSpec{spec},
		}, f.users[0])
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestStartStep(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	step, err := f.engine.StartStep(ctx, wf.Steps[0].ID, f.users[0])
	require.NoError(t, err)
	assert.Equal(t, StepInProgress, step.Status)
	require.NotNil(t, step.StartedAt)
	require.Len(t, step.Actions, 1)
	assert.Equal(t, LogStarted, step.Actions[0].ActionType)

	t.Run("prior steps incomplete", func(t *testing.T) {
		_, err := f.engine.StartStep(ctx, wf.Steps[1].ID, f.users[1])
		assert.True(t, apperrors.IsInvalidState(err))
	})

	t.Run("already in progress", func(t *testing.T) {
		_, err := f.engine.StartStep(ctx, wf.Steps[0].ID, f.users[0])
		assert.True(t, apperrors.IsInvalidState(err))
	})

	t.Run("unknown step", func(t *testing.T) {
		_, err := f.engine.StartStep(ctx, uuid.New(), f.users[0])
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestCompleteStepAdvancesSequentialWorkflow(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	_, err := f.engine.StartStep(ctx, wf.Steps[0].ID, f.users[0])
	require.NoError(t, err)
	updated, err := f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "looks good")
	require.NoError(t, err)

	assert.Equal(t, StepCompleted, updated.Steps[0].Status)
	assert.NotNil(t, updated.Steps[0].CompletedAt)
	assert.Equal(t, 2, updated.CurrentStepOrder)
	assert.Equal(t, StepPending, updated.Steps[1].Status)
	assert.Equal(t, WorkflowActive, updated.Status)
}

func TestCompleteAllStepsFinishesWorkflow(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	for i, userID := range f.users {
		_, err := f.engine.StartStep(ctx, wf.Steps[i].ID, userID)
		require.NoError(t, err)
		updated, err := f.engine.CompleteStep(ctx, wf.Steps[i].ID, userID, "")
		require.NoError(t, err)
		wf = updated
	}

	assert.Equal(t, WorkflowCompleted, wf.Status)
	for _, s := range wf.Steps {
		assert.Equal(t, StepCompleted, s.Status)
	}

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, EventWorkflowCompleted, last.Type)
}

func TestCompleteStepStrictPolicyRequiresStart(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: true})
	wf := f.createWorkflow(t, TypeSequential)

	_, err := f.engine.CompleteStep(context.Background(), wf.Steps[0].ID, f.users[0], "")
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestCompleteStepRelaxedPolicyStampsStart(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)

	updated, err := f.engine.CompleteStep(context.Background(), wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, updated.Steps[0].Status)
	assert.NotNil(t, updated.Steps[0].StartedAt)
	assert.NotNil(t, updated.Steps[0].CompletedAt)
}

func TestCompleteStepSequentialGate(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)

	_, err := f.engine.CompleteStep(context.Background(), wf.Steps[1].ID, f.users[1], "")
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestParallelWorkflowCompletesInAnyOrder(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeParallel)
	ctx := context.Background()

	updated, err := f.engine.CompleteStep(ctx, wf.Steps[2].ID, f.users[2], "")
	require.NoError(t, err)
	assert.Equal(t, WorkflowActive, updated.Status)

	_, err = f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	updated, err = f.engine.CompleteStep(ctx, wf.Steps[1].ID, f.users[1], "")
	require.NoError(t, err)
	assert.Equal(t, WorkflowCompleted, updated.Status)
}

func TestRejectStepRequiresReason(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	cases := []struct {
		name   string
		reason string
	}{
		{"empty", ""},
		{"too short", "bad"},
		{"whitespace padding", "   short    "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.RejectStep(ctx, wf.Steps[0].ID, f.users[0], RejectStepRequest{RejectionReason: tc.reason})
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestRejectStepWithoutRollbackFreezesWorkflow(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)

	updated, err := f.engine.RejectStep(context.Background(), wf.Steps[0].ID, f.users[0], RejectStepRequest{
		RejectionReason: "missing the budget attachment",
	})
	require.NoError(t, err)

	step := updated.Steps[0]
	assert.Equal(t, StepRejected, step.Status)
	assert.True(t, step.IsRejected)
	require.NotNil(t, step.RejectionReason)
	assert.Equal(t, "missing the budget attachment", *step.RejectionReason)
	assert.NotNil(t, step.RejectedAt)
	assert.Equal(t, WorkflowActive, updated.Status)
}

func TestRejectStepWithRollback(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	_, err := f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	_, err = f.engine.CompleteStep(ctx, wf.Steps[1].ID, f.users[1], "")
	require.NoError(t, err)

	updated, err := f.engine.RejectStep(ctx, wf.Steps[2].ID, f.users[2], RejectStepRequest{
		RejectionReason:  "signature block references the wrong entity",
		RollbackToUserID: &f.users[0],
	})
	require.NoError(t, err)

	assert.Equal(t, StepPending, updated.Steps[0].Status)
	assert.Nil(t, updated.Steps[0].CompletedAt)
	assert.Equal(t, StepNotStarted, updated.Steps[1].Status)
	assert.Nil(t, updated.Steps[1].CompletedAt)
	assert.Equal(t, StepRejected, updated.Steps[2].Status)
	assert.Equal(t, 1, updated.CurrentStepOrder)
	assert.Equal(t, WorkflowActive, updated.Status)
}

func TestRejectStepRollbackValidation(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	ctx := context.Background()

	t.Run("target must be prior assignee", func(t *testing.T) {
		wf := f.createWorkflow(t, TypeSequential)
		_, err := f.engine.RejectStep(ctx, wf.Steps[0].ID, f.users[0], RejectStepRequest{
			RejectionReason:  "a sufficiently long rejection reason",
			RollbackToUserID: &f.users[2],
		})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("parallel workflows cannot roll back", func(t *testing.T) {
		f2 := newFixture(t, Policy{RequireStartedBeforeComplete: false})
		wf := f2.createWorkflow(t, TypeParallel)
		_, err := f2.engine.RejectStep(ctx, wf.Steps[1].ID, f2.users[1], RejectStepRequest{
			RejectionReason:  "a sufficiently long rejection reason",
			RollbackToUserID: &f2.users[0],
		})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestRollbackThenReapprove(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	_, err := f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	_, err = f.engine.RejectStep(ctx, wf.Steps[1].ID, f.users[1], RejectStepRequest{
		RejectionReason:  "numbers in section two do not add up",
		RollbackToUserID: &f.users[0],
	})
	require.NoError(t, err)

	// The rejected step stays terminal; the workflow cannot reach
	// completion through it again.
	updated, err := f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "fixed")
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, updated.Steps[0].Status)
	assert.Equal(t, 2, updated.CurrentStepOrder)
	assert.Equal(t, StepRejected, updated.Steps[1].Status)

	_, err = f.engine.CompleteStep(ctx, updated.Steps[1].ID, f.users[1], "")
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestActionLogSeqIsMonotonic(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	_, err := f.engine.StartStep(ctx, wf.Steps[0].ID, f.users[0])
	require.NoError(t, err)
	_, err = f.engine.CompleteStep(ctx, wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	_, err = f.engine.StartStep(ctx, wf.Steps[1].ID, f.users[1])
	require.NoError(t, err)
	updated, err := f.engine.RejectStep(ctx, wf.Steps[1].ID, f.users[1], RejectStepRequest{
		RejectionReason:  "needs another pass from the author",
		RollbackToUserID: &f.users[0],
	})
	require.NoError(t, err)

	var seqs []int
	for _, s := range updated.Steps {
		for _, a := range s.Actions {
			seqs = append(seqs, a.Seq)
		}
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, seqs)
}

func TestUpdateSteps(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	updated, err := f.engine.UpdateSteps(ctx, wf.ID, UpdateStepsRequest{
		Steps: []StepSpec{
			{AssignedToUserID: f.users[2], ActionType: ActionReview},
			{AssignedToUserID: f.users[0], ActionType: ActionSign},
		},
	}, f.users[0])
	require.NoError(t, err)
	require.Len(t, updated.Steps, 2)
	assert.Equal(t, f.users[2], updated.Steps[0].AssignedToUserID)
	assert.Equal(t, StepPending, updated.Steps[0].Status)
	assert.Equal(t, 1, updated.CurrentStepOrder)

	t.Run("rejected after execution started", func(t *testing.T) {
		_, err := f.engine.StartStep(ctx, updated.Steps[0].ID, f.users[2])
		require.NoError(t, err)
		_, err = f.engine.UpdateSteps(ctx, wf.ID, UpdateStepsRequest{
			Steps: []StepSpec{{AssignedToUserID: f.users[1], ActionType: ActionApproval}},
		}, f.users[0])
		assert.True(t, apperrors.IsInvalidState(err))
	})
}

func TestUpdateStepsReplacementReusesOrdersAndAssignees(t *testing.T) {
	// A full replacement assigns fresh IDs but reuses the old orders and
	// assignees, so the write only succeeds when the removed rows are
	// deleted before the new ones are inserted.
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)

	updated, err := f.engine.UpdateSteps(context.Background(), wf.ID, UpdateStepsRequest{
		Steps: []StepSpec{
			{AssignedToUserID: f.users[0], ActionType: ActionApproval},
			{AssignedToUserID: f.users[1], ActionType: ActionSign},
		},
	}, f.users[0])
	require.NoError(t, err)
	require.Len(t, updated.Steps, 2)

	oldIDs := map[uuid.UUID]bool{}
	for _, s := range wf.Steps {
		oldIDs[s.ID] = true
	}
	for _, s := range updated.Steps {
		assert.False(t, oldIDs[s.ID])
	}
	assert.Equal(t, []int{1, 2}, []int{updated.Steps[0].Order, updated.Steps[1].Order})
	assert.Equal(t, f.users[0], updated.Steps[0].AssignedToUserID)
	assert.Equal(t, f.users[1], updated.Steps[1].AssignedToUserID)
}

func TestMutationsStampUpdatedAtFromEngineClock(t *testing.T) {
	f := newFixture(t, Policy{RequireStartedBeforeComplete: false})
	wf := f.createWorkflow(t, TypeSequential)

	updated, err := f.engine.CompleteStep(context.Background(), wf.Steps[0].ID, f.users[0], "")
	require.NoError(t, err)
	require.NotNil(t, updated.Steps[0].CompletedAt)
	assert.Equal(t, *updated.Steps[0].CompletedAt, updated.UpdatedAt)
}

func TestCancelWorkflow(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)
	ctx := context.Background()

	updated, err := f.engine.CancelWorkflow(ctx, wf.ID, f.users[0], "document withdrawn")
	require.NoError(t, err)
	assert.Equal(t, WorkflowCancelled, updated.Status)

	t.Run("already finished", func(t *testing.T) {
		_, err := f.engine.CancelWorkflow(ctx, wf.ID, f.users[0], "")
		assert.True(t, apperrors.IsInvalidState(err))
	})

	t.Run("no further actions", func(t *testing.T) {
		_, err := f.engine.StartStep(ctx, updated.Steps[0].ID, f.users[0])
		assert.True(t, apperrors.IsInvalidState(err))
	})
}

func TestRollbackTargets(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)

	targets, err := f.engine.RollbackTargets(context.Background(), wf.Steps[2].ID)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 2, targets[0].StepOrder)
	assert.Equal(t, f.users[1], targets[0].UserID)
	assert.Equal(t, 1, targets[1].StepOrder)
	assert.Equal(t, f.users[0], targets[1].UserID)
}

func TestGetWorkflowDetail(t *testing.T) {
	f := newFixture(t, Policy{})
	wf := f.createWorkflow(t, TypeSequential)

	detail, err := f.engine.GetWorkflowDetail(context.Background(), wf.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Document)
	assert.Equal(t, "Contract", detail.Document.Title)
	assert.Len(t, detail.Assignees, 3)

	_, err = f.engine.GetWorkflowDetail(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
