// Package store defines where planning inputs come from and where committed
// plans are kept.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/pkg/export"
)

var (
	// ErrNotFound is returned when a plan does not exist.
	ErrNotFound = errors.New("plan not found")
	// ErrNoSource is returned when planning a window without a configured
	// source.
	ErrNoSource = errors.New("no input source configured")
)

// Source loads the drivers, routes, availability records and fixed rules of
// a planning window. Zero bounds leave the window open on that side.
type Source interface {
	Load(ctx context.Context, from, to model.Date) (model.Input, error)
}

// PlanStore persists committed plans.
type PlanStore interface {
	SavePlan(ctx context.Context, doc export.Document) error
	GetPlan(ctx context.Context, id string) (export.Document, error)
	// ListPlans returns at most limit plans, newest first.
	ListPlans(ctx context.Context, limit int) ([]PlanSummary, error)
}

// DefaultListLimit applies when ListPlans gets a non-positive limit.
const DefaultListLimit = 50

// PlanSummary describes a stored plan without its body. It is also the
// payload of plan events.
type PlanSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Assigned   int       `json:"assigned"`
	Unassigned int       `json:"unassigned"`
	Conflicts  int       `json:"conflicts"`
}

// Summarize builds the summary of doc.
func Summarize(doc export.Document) PlanSummary {
	return PlanSummary{
		ID:         doc.ID,
		CreatedAt:  doc.CreatedAt,
		Assigned:   len(doc.Assignments),
		Unassigned: len(doc.Unassigned),
		Conflicts:  len(doc.Conflicts),
	}
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, from, to model.Date) (model.Input, error)

func (f SourceFunc) Load(ctx context.Context, from, to model.Date) (model.Input, error) {
	return f(ctx, from, to)
}
