package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/roster/core/roster"
)

// PlanEvent is emitted once per successful planning run.
type PlanEvent struct {
	PlanID  string
	Plan    *roster.Plan
	Elapsed time.Duration
	Time    time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// Failure reasons used as labels.
const (
	ReasonInvalidInput = "invalid_input"
	ReasonCapacity     = "capacity_violation"
	ReasonSolver       = "solver_anomaly"
	ReasonSource       = "source"
	ReasonOther        = "other"
)

// FailureEvent is emitted when a run aborts.
type FailureEvent struct {
	Reason string
	Err    error
	Time   time.Time
}

// FailureRecorder records aborted runs.
type FailureRecorder interface {
	RecordPlanFailure(ev FailureEvent) error
}

// FailureReason classifies err into one of the Reason constants.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, roster.ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, roster.ErrCapacityViolation):
		return ReasonCapacity
	case errors.Is(err, roster.ErrSolverAnomaly):
		return ReasonSolver
	default:
		return ReasonOther
	}
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error           { return nil }
func (NopSink) RecordPlanFailure(FailureEvent) error { return nil }
