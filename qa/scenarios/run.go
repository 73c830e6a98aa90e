package scenarios

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/roster"
	"github.com/kilianp07/roster/infra/logger"
	"github.com/kilianp07/roster/infra/metrics"
	"github.com/kilianp07/roster/infra/scenario"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	engine, err := roster.NewEngine(sc.Engine.ToConfig(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	in := sc.Input(scenario.DefaultOptions())
	plan, err := engine.Run(in)
	if sc.Expected.Error != "" {
		if err == nil {
			t.Fatalf("scenario %s expected %s failure", sc.Name, sc.Expected.Error)
		}
		if got := coremetrics.FailureReason(err); got != sc.Expected.Error {
			t.Fatalf("scenario %s expected %s failure, got %s: %v", sc.Name, sc.Expected.Error, got, err)
		}
		_ = sink.RecordPlanFailure(coremetrics.FailureEvent{Reason: coremetrics.FailureReason(err), Err: err})
		if v := counterValue(t, reg, "roster_runs_total", sc.Expected.Error); v != 1 {
			t.Errorf("failure counter %v", v)
		}
		return
	}
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	if err := sink.RecordPlan(coremetrics.PlanEvent{PlanID: sc.Name, Plan: plan, Time: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}

	fixed := 0
	for _, a := range plan.Assignments {
		if a.Origin == model.OriginFixed {
			fixed++
		}
	}
	if len(plan.Assignments) != sc.Expected.Assigned {
		t.Errorf("scenario %s expected %d assigned, got %d", sc.Name, sc.Expected.Assigned, len(plan.Assignments))
	}
	if len(plan.Unassigned) != sc.Expected.Unassigned {
		t.Errorf("scenario %s expected %d unassigned, got %d", sc.Name, sc.Expected.Unassigned, len(plan.Unassigned))
	}
	if fixed != sc.Expected.Fixed {
		t.Errorf("scenario %s expected %d fixed, got %d", sc.Name, sc.Expected.Fixed, fixed)
	}
	if len(plan.Conflicts) != sc.Expected.Conflicts {
		t.Errorf("scenario %s expected %d conflicts, got %d", sc.Name, sc.Expected.Conflicts, len(plan.Conflicts))
	}
	for _, p := range sc.Expected.Pairs {
		if !hasPair(plan, p) {
			t.Errorf("scenario %s missing %s on %s for %s", sc.Name, p.Route, p.Date, p.Driver)
		}
	}
	for id, want := range sc.Expected.Remaining {
		if got := model.FormatHours(plan.Remaining[id]); got != want {
			t.Errorf("scenario %s driver %s remaining %s, want %s", sc.Name, id, got, want)
		}
	}
	checkInvariants(t, in, plan)

	if v := counterValue(t, reg, "roster_routes_unassigned_total", ""); int(v) != len(plan.Unassigned) {
		t.Errorf("unassigned counter %v", v)
	}
}

func hasPair(plan *roster.Plan, p Pair) bool {
	for _, a := range plan.Assignments {
		if a.RouteName == p.Route && a.Date.String() == p.Date && a.DriverID == p.Driver {
			return true
		}
	}
	return false
}

// checkInvariants verifies that no driver exceeds the budget and that every
// route is either assigned once or listed as unassigned.
func checkInvariants(t *testing.T, in model.Input, plan *roster.Plan) {
	t.Helper()
	used := map[string]time.Duration{}
	seen := map[string]int{}
	for _, a := range plan.Assignments {
		used[a.DriverID] += a.Hours
		seen[a.RouteID]++
	}
	for _, r := range plan.Unassigned {
		seen[r.ID]++
	}
	for _, d := range in.Drivers {
		if used[d.ID] > d.MonthlyBudget {
			t.Errorf("driver %s uses %s of %s", d.ID, used[d.ID], d.MonthlyBudget)
		}
		if plan.Remaining[d.ID] != d.MonthlyBudget-used[d.ID] {
			t.Errorf("driver %s remaining %s", d.ID, plan.Remaining[d.ID])
		}
	}
	for _, r := range in.Routes {
		if seen[r.ID] != 1 {
			t.Errorf("route %s accounted %d times", r.ID, seen[r.ID])
		}
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label == "" || (len(m.GetLabel()) > 0 && m.GetLabel()[0].GetValue() == label) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
