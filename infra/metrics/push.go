package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/infra/logger"
)

// DefaultPushJob is the Pushgateway job name used when none is configured.
const DefaultPushJob = "roster"

// PushSink records runs on a private registry and pushes it to a Prometheus
// Pushgateway after every run. It suits one-shot `roster plan` invocations
// that never live long enough to be scraped.
type PushSink struct {
	prom   *PromSink
	pusher *push.Pusher
	log    logger.Logger
}

func NewPushSink(url, job string) (*PushSink, error) {
	if url == "" {
		return nil, fmt.Errorf("pushgateway: url is required")
	}
	if job == "" {
		job = DefaultPushJob
	}
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	return &PushSink{
		prom:   prom,
		pusher: push.New(url, job).Gatherer(reg),
		log:    logger.New("pushgateway"),
	}, nil
}

func (s *PushSink) RecordPlan(ev coremetrics.PlanEvent) error {
	if err := s.prom.RecordPlan(ev); err != nil {
		return err
	}
	return s.push()
}

func (s *PushSink) RecordPlanFailure(ev coremetrics.FailureEvent) error {
	if err := s.prom.RecordPlanFailure(ev); err != nil {
		return err
	}
	return s.push()
}

func (s *PushSink) push() error {
	if err := s.pusher.Push(); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	s.log.Debugf("metrics pushed")
	return nil
}
