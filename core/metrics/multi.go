package metrics

import "errors"

// MultiSink fans events out to several sinks. Every sink is called even when
// an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards ev to all sinks.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordPlanFailure forwards ev to the sinks that record failures.
func (m *MultiSink) RecordPlanFailure(ev FailureEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FailureRecorder); ok {
			if err := rec.RecordPlanFailure(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
