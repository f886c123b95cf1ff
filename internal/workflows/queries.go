package workflows

import (
	"math"
	"sort"
	"time"
)

// CurrentStep returns the step whose order equals the workflow's
// currentStepOrder. When no step carries that order (the not-started case
// where currentStepOrder is 0) it falls back to the lowest-order step.
func CurrentStep(wf *Workflow) *WorkflowStep {
	if s := wf.stepByOrder(wf.CurrentStepOrder); s != nil {
		return s
	}
	var first *WorkflowStep
	for i := range wf.Steps {
		if first == nil || wf.Steps[i].Order < first.Order {
			first = &wf.Steps[i]
		}
	}
	return first
}

// Progress returns completed steps as a percentage rounded to the nearest
// integer. A workflow with zero steps is 0%, not a division error.
func Progress(wf *Workflow) int {
	if len(wf.Steps) == 0 {
		return 0
	}
	completed := 0
	for i := range wf.Steps {
		if wf.Steps[i].Status == StepCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(wf.Steps)) * 100))
}

// EligibleRollbackTargets lists the assignees of all steps strictly before
// the given step, newest-step-first. Rollback has no meaning without
// ordering, so parallel workflows get an empty list.
func EligibleRollbackTargets(wf *Workflow, step *WorkflowStep) []RollbackTarget {
	targets := []RollbackTarget{}
	if wf.WorkflowType != TypeSequential {
		return targets
	}
	for i := range wf.Steps {
		s := &wf.Steps[i]
		if s.Order < step.Order {
			targets = append(targets, RollbackTarget{UserID: s.AssignedToUserID, StepOrder: s.Order})
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].StepOrder > targets[j].StepOrder })
	return targets
}

// StepDuration returns the time a step spent between start and completion.
// The second return is false when either timestamp is missing.
func StepDuration(step *WorkflowStep) (time.Duration, bool) {
	if step.StartedAt == nil || step.CompletedAt == nil {
		return 0, false
	}
	return step.CompletedAt.Sub(*step.StartedAt), true
}

// WorkflowDuration returns the span between the earliest step start and the
// latest step completion. False when the workflow has not both started and
// completed at least one step.
func WorkflowDuration(wf *Workflow) (time.Duration, bool) {
	var earliest, latest *time.Time
	for i := range wf.Steps {
		s := &wf.Steps[i]
		if s.StartedAt != nil && (earliest == nil || s.StartedAt.Before(*earliest)) {
			earliest = s.StartedAt
		}
		if s.CompletedAt != nil && (latest == nil || s.CompletedAt.After(*latest)) {
			latest = s.CompletedAt
		}
	}
	if earliest == nil || latest == nil {
		return 0, false
	}
	return latest.Sub(*earliest), true
}

// IsOverdue reports whether an unfinished step is past its due date. Due
// dates are advisory: nothing ever transitions state because of them.
func IsOverdue(step *WorkflowStep, now time.Time) bool {
	if step.DueDate == nil {
		return false
	}
	switch step.Status {
	case StepCompleted, StepRejected:
		return false
	}
	return now.After(*step.DueDate)
}
