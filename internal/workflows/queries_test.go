package workflows

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func ts(hour int) *time.Time {
	t := time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestProgress(t *testing.T) {
	cases := []struct {
		name     string
		statuses []StepStatus
		want     int
	}{
		{"no steps", nil, 0},
		{"none completed", []StepStatus{StepPending, StepNotStarted}, 0},
		{"one of three", []StepStatus{StepCompleted, StepInProgress, StepNotStarted}, 33},
		{"two of three", []StepStatus{StepCompleted, StepCompleted, StepPending}, 67},
		{"all completed", []StepStatus{StepCompleted, StepCompleted}, 100},
		{"rejected counts as incomplete", []StepStatus{StepCompleted, StepRejected}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf := &Workflow{}
			for i, s := range tc.statuses {
				wf.Steps = append(wf.Steps, WorkflowStep{Order: i + 1, Status: s})
			}
			assert.Equal(t, tc.want, Progress(wf))
		})
	}
}

func TestCurrentStepFallsBackToLowestOrder(t *testing.T) {
	wf := &Workflow{
		CurrentStepOrder: 0,
		Steps: []WorkflowStep{
			{ID: uuid.New(), Order: 2},
			{ID: uuid.New(), Order: 1},
		},
	}
	step := CurrentStep(wf)
	assert.Equal(t, 1, step.Order)

	wf.CurrentStepOrder = 2
	assert.Equal(t, 2, CurrentStep(wf).Order)
}

func TestEligibleRollbackTargetsNewestFirst(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	wf := &Workflow{
		WorkflowType: TypeSequential,
		Steps: []WorkflowStep{
			{Order: 1, AssignedToUserID: u1},
			{Order: 2, AssignedToUserID: u2},
			{Order: 3, AssignedToUserID: u3},
		},
	}

	targets := EligibleRollbackTargets(wf, &wf.Steps[2])
	assert.Equal(t, []RollbackTarget{
		{UserID: u2, StepOrder: 2},
		{UserID: u1, StepOrder: 1},
	}, targets)

	assert.Empty(t, EligibleRollbackTargets(wf, &wf.Steps[0]))

	wf.WorkflowType = TypeParallel
	assert.Empty(t, EligibleRollbackTargets(wf, &wf.Steps[2]))
}

func TestStepDuration(t *testing.T) {
	step := &WorkflowStep{}
	_, ok := StepDuration(step)
	assert.False(t, ok)

	step.StartedAt = ts(9)
	_, ok = StepDuration(step)
	assert.False(t, ok)

	step.CompletedAt = ts(11)
	d, ok := StepDuration(step)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Hour, d)
}

func TestWorkflowDuration(t *testing.T) {
	wf := &Workflow{Steps: []WorkflowStep{{Order: 1}, {Order: 2}}}
	_, ok := WorkflowDuration(wf)
	assert.False(t, ok)

	wf.Steps[0].StartedAt = ts(9)
	wf.Steps[0].CompletedAt = ts(10)
	wf.Steps[1].StartedAt = ts(10)
	wf.Steps[1].CompletedAt = ts(14)

	d, ok := WorkflowDuration(wf)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Hour, d)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	step := &WorkflowStep{Status: StepPending}
	assert.False(t, IsOverdue(step, now), "no due date")

	step.DueDate = ts(9)
	assert.True(t, IsOverdue(step, now))

	step.Status = StepCompleted
	assert.False(t, IsOverdue(step, now), "finished steps are never overdue")

	step.Status = StepRejected
	assert.False(t, IsOverdue(step, now))

	step.Status = StepInProgress
	step.DueDate = ts(15)
	assert.False(t, IsOverdue(step, now), "not yet due")
}
