package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/roster/core/model"
)

var (
	// ErrInvalidInput marks a run rejected before solving.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCapacityViolation marks a commit that would take a ledger entry
	// below zero after eligibility checks passed.
	ErrCapacityViolation = errors.New("capacity violation")
	// ErrSolverAnomaly marks an infeasible or inconsistent day solve.
	ErrSolverAnomaly = errors.New("solver anomaly")

	// ErrUnknownDriver is returned by the ledger for drivers it does not track.
	ErrUnknownDriver = errors.New("unknown driver")
	// ErrInsufficientHours is returned by the ledger when a commit exceeds the
	// remaining hours.
	ErrInsufficientHours = errors.New("insufficient remaining hours")
)

// InputError describes one problem found while validating a run's input.
type InputError struct {
	Kind   string
	Ref    string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Ref, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// CapacityViolationError reports the driver and date of a rejected commit.
type CapacityViolationError struct {
	DriverID  string
	RouteID   string
	Date      model.Date
	Requested time.Duration
	Remaining time.Duration
	Err       error
}

func (e *CapacityViolationError) Error() string {
	return fmt.Sprintf("capacity violation for driver %s on %s (route %s): requested %s, remaining %s: %v",
		e.DriverID, e.Date, e.RouteID, model.FormatHours(e.Requested), model.FormatHours(e.Remaining), e.Err)
}

func (e *CapacityViolationError) Is(target error) bool { return target == ErrCapacityViolation }

func (e *CapacityViolationError) Unwrap() error { return e.Err }

// SolverAnomalyError reports the date whose solve failed.
type SolverAnomalyError struct {
	Date model.Date
	Err  error
}

func (e *SolverAnomalyError) Error() string {
	return fmt.Sprintf("solver anomaly on %s: %v", e.Date, e.Err)
}

func (e *SolverAnomalyError) Is(target error) bool { return target == ErrSolverAnomaly }

func (e *SolverAnomalyError) Unwrap() error { return e.Err }

// RuleConflict is an informational finding: several fixed rules target the
// same route with the same priority. The rule with the lowest Seq wins.
type RuleConflict struct {
	RouteID   string
	RouteName string
	Date      model.Date
	Priority  int
	RuleIDs   []string
}

func (c RuleConflict) String() string {
	return fmt.Sprintf("route %s (%s) on %s: rules %s share priority %d",
		c.RouteID, c.RouteName, c.Date, strings.Join(c.RuleIDs, ","), c.Priority)
}
