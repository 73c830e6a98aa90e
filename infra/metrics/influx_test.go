package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/roster"
)

func samplePlan() *roster.Plan {
	d := model.NewDate(2025, time.March, 8)
	return &roster.Plan{
		Horizon: []model.Date{d},
		Assignments: []model.Assignment{
			{DriverID: "a", RouteID: "r1", Date: d, Hours: 8 * time.Hour, Origin: model.OriginFixed},
			{DriverID: "b", RouteID: "r2", Date: d, Hours: 6 * time.Hour, Origin: model.OriginOptimized},
		},
		Unassigned: []model.Route{{ID: "r3", Name: "r3", Date: d, Duration: time.Hour}},
		Days: []roster.DayReport{{
			Date: d, Weekday: time.Saturday, Routes: 3, Assigned: 2, Fixed: 1, Optimized: 1,
			Unassigned: 1, Rate: 2.0 / 3.0, Status: roster.StatusOptimal, Nodes: 12, Elapsed: 1500 * time.Microsecond,
		}},
		Drivers: []roster.DriverUsage{
			{DriverID: "a", Budget: 40 * time.Hour, Used: 8 * time.Hour, Remaining: 32 * time.Hour, Routes: 1, Utilisation: 0.2},
		},
		Conflicts: []roster.RuleConflict{{RouteID: "r1"}},
	}
}

func TestInfluxSink_RecordPlan(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	plan := samplePlan()
	if err := sink.RecordPlan(coremetrics.PlanEvent{PlanID: "p1", Plan: plan, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	day := write.NewPointWithMeasurement("roster_day").
		AddTag("plan_id", "p1").
		AddTag("weekday", "saturday").
		AddTag("status", "optimal").
		AddField("routes", 3).
		AddField("assigned", 2).
		AddField("fixed", 1).
		AddField("optimized", 1).
		AddField("unassigned", 1).
		AddField("rate", 0.667).
		AddField("nodes", 12).
		AddField("elapsed_ms", 1.5).
		SetTime(plan.Horizon[0].Time())
	drv := write.NewPointWithMeasurement("roster_driver").
		AddTag("plan_id", "p1").
		AddTag("driver_id", "a").
		AddField("budget_hours", 40.0).
		AddField("used_hours", 8.0).
		AddField("remaining_hours", 32.0).
		AddField("routes", 1).
		AddField("utilisation", 0.2).
		SetTime(now)
	want := []string{
		strings.TrimSpace(write.PointToLineProtocol(day, time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(drv, time.Nanosecond)),
	}
	if len(bodies) != 1 {
		t.Fatalf("expected a single batch, got %d", len(bodies))
	}
	lines := strings.Split(bodies[0], "\n")
	if len(lines) != 2 || lines[0] != want[0] || lines[1] != want[1] {
		t.Errorf("unexpected body:\n%s\nwant:\n%s", bodies[0], strings.Join(want, "\n"))
	}
}

func TestInfluxSink_RecordPlanFailure(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = strings.TrimSpace(string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.FailureEvent{Reason: coremetrics.ReasonSolver, Err: errors.New("infeasible"), Time: now}
	if err := sink.RecordPlanFailure(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("roster_failure").
		AddTag("reason", "solver_anomaly").
		AddField("error", "infeasible").
		SetTime(now)
	if want := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)); body != want {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
