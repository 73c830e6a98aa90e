package roster

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/logger"
)

func assignedTo(res DayResult) map[string]string {
	out := make(map[string]string, len(res.Assignments))
	for _, a := range res.Assignments {
		out[a.RouteID] = a.DriverID
	}
	return out
}

// Greedy assignment of the longest route to the richest driver covers two
// routes; the optimum covers three.
func packingInstance() ([]model.Route, []Candidate) {
	d := day0
	routes := []model.Route{route("r6b", d, 6), route("r8", d, 8), route("r6a", d, 6)}
	cands := []Candidate{
		{DriverID: "B", Remaining: 50 * time.Hour, Hours: 8 * time.Hour, Routes: 1},
		{DriverID: "A", Remaining: 100 * time.Hour, Hours: 12 * time.Hour, Routes: 2},
	}
	return routes, cands
}

func TestDaySolver_FindsOptimum(t *testing.T) {
	for _, disable := range []bool{false, true} {
		routes, cands := packingInstance()
		s := NewDaySolver(SolverConfig{MaxNodes: 10000, DisableLPBound: disable}, logger.NopLogger{})
		res, err := s.Solve(day0, routes, cands)
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if res.Status != StatusOptimal {
			t.Fatalf("expected optimal got %s", res.Status)
		}
		got := assignedTo(res)
		if len(got) != 3 {
			t.Fatalf("expected 3 routes assigned, got %v", got)
		}
		if got["r8"] != "B" || got["r6a"] != "A" || got["r6b"] != "A" {
			t.Fatalf("unexpected assignment %v", got)
		}
		for _, a := range res.Assignments {
			if a.Origin != model.OriginOptimized || a.Date != day0 {
				t.Fatalf("unexpected assignment fields %+v", a)
			}
		}
	}
}

func TestDaySolver_NodeBudget(t *testing.T) {
	routes, cands := packingInstance()
	s := NewDaySolver(SolverConfig{MaxNodes: 1, DisableLPBound: true}, logger.NopLogger{})
	res, err := s.Solve(day0, routes, cands)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusFeasible {
		t.Fatalf("expected feasible got %s", res.Status)
	}
	if len(res.Assignments) != 2 {
		t.Fatalf("expected the first incumbent with 2 routes, got %d", len(res.Assignments))
	}
}

func TestDaySolver_TieBreakByDriverID(t *testing.T) {
	cands := []Candidate{
		{DriverID: "b", Remaining: 40 * time.Hour, Hours: 40 * time.Hour, Routes: 1},
		{DriverID: "a", Remaining: 40 * time.Hour, Hours: 40 * time.Hour, Routes: 1},
	}
	s := NewDaySolver(SolverConfig{MaxNodes: 100}, logger.NopLogger{})
	res, err := s.Solve(day0, []model.Route{route("R", day0, 8)}, cands)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(res.Assignments) != 1 || res.Assignments[0].DriverID != "a" {
		t.Fatalf("expected driver a, got %+v", res.Assignments)
	}
}

func TestDaySolver_NoRoutesOrDrivers(t *testing.T) {
	s := NewDaySolver(SolverConfig{MaxNodes: 100}, logger.NopLogger{})
	res, err := s.Solve(day0, nil, nil)
	if err != nil || res.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s %v", res.Status, err)
	}
	res, err = s.Solve(day0, []model.Route{route("R", day0, 8)}, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal || len(res.Assignments) != 0 {
		t.Fatalf("expected empty optimal result, got %+v", res)
	}
}

func TestDayProblem_VerifyRejectsOverload(t *testing.T) {
	routes, cands := packingInstance()
	p := newDayProblem(day0, routes, cands)
	// Driver index 1 is B (sorted by ID) with a single route allowed.
	if err := p.verify([]int{1, 1, -1}); err == nil {
		t.Fatalf("expected verify to reject two routes for B")
	}
	if err := p.verify([]int{-1}); err == nil {
		t.Fatalf("expected verify to reject a short solution")
	}
	if err := p.verify([]int{1, 0, 0}); err != nil {
		t.Fatalf("valid solution rejected: %v", err)
	}
}

func TestRelaxationBound(t *testing.T) {
	routes, cands := packingInstance()
	p := newDayProblem(day0, routes, cands)
	bound, err := relaxationBound(p)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}
	// Three routes covered is the most any assignment can reach.
	var best int64
	for _, w := range p.weight {
		if w > best {
			best = w
		}
	}
	if bound < float64(3*p.weight[1]) || bound > float64(3*best)+1e-6 {
		t.Fatalf("bound %v outside [%d, %d]", bound, 3*p.weight[1], 3*best)
	}
}

func TestDaySolver_SkipsLPAboveMaxPairs(t *testing.T) {
	orig := lpSolve
	lpSolve = func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error) {
		t.Fatalf("simplex called for a model above lp_max_pairs")
		return 0, nil, nil
	}
	defer func() { lpSolve = orig }()

	routes, cands := packingInstance()
	// Both drivers can take each of the 3 routes: 6 pairs.
	s := NewDaySolver(SolverConfig{MaxNodes: 10000, LPMaxPairs: 4}, logger.NopLogger{})
	res, err := s.Solve(day0, routes, cands)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal || len(res.Assignments) != 3 {
		t.Fatalf("expected optimal with 3 routes, got %s with %d", res.Status, len(res.Assignments))
	}
}
