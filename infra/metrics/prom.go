package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/core/model"
)

// PromSink exposes planning runs as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	routes      *prometheus.CounterVec
	unassigned  prometheus.Counter
	conflicts   prometheus.Counter
	daySolve    *prometheus.HistogramVec
	utilisation *prometheus.GaugeVec
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// NewPromSink registers the roster metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_runs_total",
		Help: "Planning runs by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if s.routes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_routes_assigned_total",
		Help: "Routes assigned by origin",
	}, []string{"origin"})); err != nil {
		return nil, err
	}
	if s.unassigned, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_routes_unassigned_total",
		Help: "Routes left without a driver",
	})); err != nil {
		return nil, err
	}
	if s.conflicts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_rule_conflicts_total",
		Help: "Fixed rule conflicts found",
	})); err != nil {
		return nil, err
	}
	if s.daySolve, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_day_solve_seconds",
		Help:    "Time spent in the day solver",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.utilisation, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_driver_utilisation_ratio",
		Help: "Share of the monthly budget used by the last plan",
	}, []string{"driver_id"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordPlan updates the counters from a completed plan.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.runs.WithLabelValues("success").Inc()
	if ev.Plan == nil {
		return nil
	}
	for _, a := range ev.Plan.Assignments {
		s.routes.WithLabelValues(string(a.Origin)).Inc()
	}
	// Keep both label values visible even when a plan has none of one origin.
	s.routes.WithLabelValues(string(model.OriginFixed)).Add(0)
	s.routes.WithLabelValues(string(model.OriginOptimized)).Add(0)
	s.unassigned.Add(float64(len(ev.Plan.Unassigned)))
	s.conflicts.Add(float64(len(ev.Plan.Conflicts)))
	for _, d := range ev.Plan.Days {
		s.daySolve.WithLabelValues(string(d.Status)).Observe(d.Elapsed.Seconds())
	}
	for _, u := range ev.Plan.Drivers {
		s.utilisation.WithLabelValues(u.DriverID).Set(u.Utilisation)
	}
	return nil
}

// RecordPlanFailure counts an aborted run under its reason.
func (s *PromSink) RecordPlanFailure(ev coremetrics.FailureEvent) error {
	s.runs.WithLabelValues(ev.Reason).Inc()
	return nil
}
