package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/roster/core/logger"
	"github.com/kilianp07/roster/core/model"
)

// Phase is the progress of one date inside a run.
type Phase int

const (
	PhasePending Phase = iota
	PhaseFixedResolved
	PhaseSolved
	PhaseCommitted
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseFixedResolved:
		return "fixed_resolved"
	case PhaseSolved:
		return "solved"
	case PhaseCommitted:
		return "committed"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// DayReport summarises the work done on one date.
type DayReport struct {
	Date       model.Date
	Weekday    time.Weekday
	Routes     int
	Assigned   int
	Fixed      int
	Optimized  int
	Unassigned int
	Rate       float64
	Status     SolveStatus
	Nodes      int
	Elapsed    time.Duration
}

// DriverUsage summarises one driver's hours over the horizon.
type DriverUsage struct {
	DriverID    string
	Name        string
	Budget      time.Duration
	Used        time.Duration
	Remaining   time.Duration
	Routes      int
	Utilisation float64
}

// Plan is the result of a completed run.
type Plan struct {
	Horizon     []model.Date
	Assignments []model.Assignment
	Unassigned  []model.Route
	Grid        model.Grid
	Days        []DayReport
	Drivers     []DriverUsage
	Remaining   map[string]time.Duration
	Conflicts   []RuleConflict
	// Phase is PhaseComplete once every date has been committed.
	Phase Phase
}

// Engine runs the sequential planning loop: dates are processed in order,
// fixed rules first, then the day solver, and every decision is committed to
// the ledger before the next date starts.
type Engine struct {
	cfg    Config
	log    logger.Logger
	solver *DaySolver
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config, log logger.Logger) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{cfg: cfg, log: log, solver: NewDaySolver(cfg.Solver, log)}, nil
}

// Run plans in from fresh ledger entries at each driver's monthly budget.
// Any error aborts the run and no plan is returned.
func (e *Engine) Run(in model.Input) (*Plan, error) {
	return e.RunWithLedger(in, NewLedger(in.Drivers))
}

// RunWithLedger plans in starting from a copy of ledger. The ledger passed in
// is left untouched.
func (e *Engine) RunWithLedger(in model.Input, ledger *Ledger) (*Plan, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	s := newRunState(e.cfg, in, ledger.Clone())
	resolver := NewResolver(in.Rules, e.log)

	byDate := make(map[model.Date][]model.Route, len(in.Horizon))
	for _, r := range in.Routes {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	plan := &Plan{Horizon: append([]model.Date(nil), in.Horizon...)}
	for _, date := range in.Horizon {
		day, conflicts, err := e.runDay(s, resolver, date, byDate[date])
		if err != nil {
			return nil, err
		}
		plan.Days = append(plan.Days, day.report)
		plan.Conflicts = append(plan.Conflicts, conflicts...)
	}

	e.finish(plan, s, in)
	plan.Phase = PhaseComplete
	e.log.Infof("plan complete: %d dates, %d routes, %d assigned, %d unassigned, %d conflicts",
		len(plan.Horizon), len(in.Routes), len(plan.Assignments), len(plan.Unassigned), len(plan.Conflicts))
	return plan, nil
}

type dayRun struct {
	phase  Phase
	report DayReport
}

func (d *dayRun) advance(next Phase) {
	if next != d.phase+1 {
		panic(fmt.Sprintf("roster: illegal phase transition %s -> %s", d.phase, next))
	}
	d.phase = next
}

func (e *Engine) runDay(s *runState, resolver *Resolver, date model.Date, routes []model.Route) (*dayRun, []RuleConflict, error) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Name != routes[j].Name {
			return routes[i].Name < routes[j].Name
		}
		return routes[i].ID < routes[j].ID
	})
	day := &dayRun{phase: PhasePending, report: DayReport{Date: date, Weekday: date.Weekday(), Routes: len(routes)}}
	before := len(s.commits)

	open, conflicts, err := resolver.resolveDay(s, routes)
	if err != nil {
		return nil, nil, err
	}
	day.report.Fixed = len(s.commits) - before
	day.advance(PhaseFixedResolved)

	var cands []Candidate
	for _, id := range s.order {
		if !s.available(id, date) || s.ledger.Remaining(id) <= 0 {
			continue
		}
		hours, count := s.allowance(id, date)
		cands = append(cands, Candidate{DriverID: id, Remaining: s.ledger.Remaining(id), Hours: hours, Routes: count})
	}
	res, err := e.solver.Solve(date, open, cands)
	if err != nil {
		e.log.Errorf("solve %s: %v", date, err)
		return nil, nil, err
	}
	day.advance(PhaseSolved)

	for _, a := range res.Assignments {
		if err := s.commit(a); err != nil {
			return nil, nil, err
		}
	}
	day.advance(PhaseCommitted)

	day.report.Optimized = len(res.Assignments)
	day.report.Assigned = day.report.Fixed + day.report.Optimized
	day.report.Unassigned = day.report.Routes - day.report.Assigned
	day.report.Status = res.Status
	day.report.Nodes = res.Nodes
	day.report.Elapsed = res.Elapsed
	if day.report.Routes > 0 {
		day.report.Rate = float64(day.report.Assigned) / float64(day.report.Routes)
	}
	e.log.Debugw("date committed", map[string]any{
		"date":      date.String(),
		"routes":    day.report.Routes,
		"fixed":     day.report.Fixed,
		"optimized": day.report.Optimized,
		"status":    string(res.Status),
	})
	return day, conflicts, nil
}

func (e *Engine) finish(plan *Plan, s *runState, in model.Input) {
	plan.Assignments = s.commits
	assigned := make(map[string]bool, len(s.commits))
	used := make(map[string]time.Duration)
	count := make(map[string]int)
	for _, a := range s.commits {
		assigned[a.RouteID] = true
		used[a.DriverID] += a.Hours
		count[a.DriverID]++
	}
	for _, r := range in.Routes {
		if !assigned[r.ID] {
			plan.Unassigned = append(plan.Unassigned, r)
		}
	}
	sort.SliceStable(plan.Unassigned, func(i, j int) bool {
		a, b := plan.Unassigned[i], plan.Unassigned[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.Name < b.Name
	})

	for _, id := range s.order {
		d := s.drivers[id]
		u := DriverUsage{
			DriverID:  id,
			Name:      d.DisplayName(),
			Budget:    s.ledger.Budget(id),
			Used:      used[id],
			Remaining: s.ledger.Remaining(id),
			Routes:    count[id],
		}
		if u.Budget > 0 {
			u.Utilisation = float64(u.Used) / float64(u.Budget)
		}
		plan.Drivers = append(plan.Drivers, u)
	}
	plan.Remaining = s.ledger.Snapshot()
	plan.Grid = FormatGrid(plan.Horizon, s.order, s.commits, func(id string, d model.Date) bool {
		return !s.available(id, d)
	})
}
