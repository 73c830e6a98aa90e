package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/roster/config"
	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/monitoring"
	"github.com/kilianp07/roster/core/notify"
	"github.com/kilianp07/roster/core/roster"
	"github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/infra/logger"
	_ "github.com/kilianp07/roster/infra/metrics"
	inframon "github.com/kilianp07/roster/infra/monitoring"
	_ "github.com/kilianp07/roster/infra/mqtt"
	"github.com/kilianp07/roster/infra/scenario"
	_ "github.com/kilianp07/roster/infra/sheets"
	infrastore "github.com/kilianp07/roster/infra/store"
	"github.com/kilianp07/roster/internal/eventbus"
	"github.com/kilianp07/roster/pkg/export"
)

// flushTimeout bounds the wait for buffered error reports on Close.
const flushTimeout = 2 * time.Second

// Deps are the collaborators of a Service. Nil fields get in-memory or
// no-op implementations.
type Deps struct {
	Source   store.Source
	Plans    store.PlanStore
	Sink     coremetrics.MetricsSink
	Notifier notify.Notifier
	Monitor  monitoring.Monitor
	Log      logger.Logger
	Now      func() time.Time
}

// Service loads inputs, runs the engine, stores the committed plan and
// publishes it.
type Service struct {
	engine   *roster.Engine
	source   store.Source
	plans    store.PlanStore
	sink     coremetrics.MetricsSink
	notifier notify.Notifier
	monitor  monitoring.Monitor
	events   *eventbus.Bus[store.PlanSummary]
	log      logger.Logger
	now      func() time.Time
	closers  []func() error
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	var deps Deps
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	if cfg.Database.DSN != "" {
		pg, err := infrastore.NewPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		closers = append(closers, pg.Close)
		if cfg.Database.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				closeAll()
				return nil, err
			}
		}
		deps.Source, deps.Plans = pg, pg
	} else {
		if cfg.Input.Path != "" {
			deps.Source = &scenario.FileSource{
				Path:    cfg.Input.Path,
				Options: scenario.Options{DefaultDuration: model.HoursToDuration(cfg.Input.DefaultRouteHours)},
			}
		}
		if cfg.Database.SQLitePath != "" {
			lite, err := infrastore.NewSQLite(ctx, cfg.Database.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("sqlite: %w", err)
			}
			closers = append(closers, lite.Close)
			deps.Plans = lite
		}
	}

	mon, err := inframon.NewSentryMonitor(cfg.Monitoring.Sentry)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	deps.Monitor = mon

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	deps.Sink = sink

	notifiers, err := notify.New(cfg.Notifiers)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, notifiers.Close)
	deps.Notifier = notifiers

	svc, err := NewWithDeps(cfg.Engine, deps)
	if err != nil {
		closeAll()
		return nil, err
	}
	svc.closers = closers
	return svc, nil
}

// NewWithDeps creates a Service around explicit collaborators.
func NewWithDeps(cfg roster.Config, deps Deps) (*Service, error) {
	if deps.Log == nil {
		deps.Log = logger.New("service")
	}
	engine, err := roster.NewEngine(cfg, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if deps.Plans == nil {
		deps.Plans = infrastore.NewMemory()
	}
	if deps.Sink == nil {
		deps.Sink = coremetrics.NopSink{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewMulti()
	}
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NopMonitor{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		engine:   engine,
		source:   deps.Source,
		plans:    deps.Plans,
		sink:     deps.Sink,
		notifier: deps.Notifier,
		monitor:  deps.Monitor,
		events:   eventbus.New[store.PlanSummary](eventbus.DefaultBuffer),
		log:      deps.Log,
		now:      deps.Now,
	}, nil
}

// Plan loads the window [from, to] from the configured source and plans it.
// Zero bounds are open.
func (s *Service) Plan(ctx context.Context, from, to model.Date) (export.Document, error) {
	if s.source == nil {
		return export.Document{}, store.ErrNoSource
	}
	in, err := s.source.Load(ctx, from, to)
	if err != nil {
		s.recordFailure(coremetrics.ReasonSource, err)
		return export.Document{}, fmt.Errorf("load input: %w", err)
	}
	return s.RunInput(ctx, in)
}

// RunInput plans in, stores the result and notifies subscribers. A failed
// notification is logged; the stored plan is still returned.
func (s *Service) RunInput(ctx context.Context, in model.Input) (export.Document, error) {
	if err := ctx.Err(); err != nil {
		return export.Document{}, err
	}
	start := s.now()
	plan, err := s.engine.Run(in)
	if err != nil {
		s.recordFailure(coremetrics.FailureReason(err), err)
		return export.Document{}, err
	}
	id := uuid.NewString()
	doc := export.NewDocument(id, start, plan)

	if err := s.plans.SavePlan(ctx, doc); err != nil {
		return export.Document{}, fmt.Errorf("save plan %s: %w", id, err)
	}
	elapsed := s.now().Sub(start)
	if err := s.sink.RecordPlan(coremetrics.PlanEvent{PlanID: id, Plan: plan, Elapsed: elapsed, Time: start}); err != nil {
		s.log.Warnf("metrics: %v", err)
	}
	s.events.Publish(store.Summarize(doc))
	if err := s.notifier.Notify(ctx, doc); err != nil {
		s.log.Errorf("notify plan %s: %v", id, err)
		s.monitor.CaptureError(err, map[string]string{"stage": "notify", "plan_id": id})
	}
	s.log.Infof("plan %s: %d assigned, %d unassigned over %d days in %s",
		id, len(plan.Assignments), len(plan.Unassigned), len(plan.Horizon), elapsed)
	return doc, nil
}

// GetPlan returns a stored plan.
func (s *Service) GetPlan(ctx context.Context, id string) (export.Document, error) {
	return s.plans.GetPlan(ctx, id)
}

// ListPlans returns summaries of the latest stored plans.
func (s *Service) ListPlans(ctx context.Context, limit int) ([]store.PlanSummary, error) {
	return s.plans.ListPlans(ctx, limit)
}

// Subscribe returns a channel receiving a summary of every committed plan.
func (s *Service) Subscribe() <-chan store.PlanSummary { return s.events.Subscribe() }

func (s *Service) Unsubscribe(ch <-chan store.PlanSummary) { s.events.Unsubscribe(ch) }

func (s *Service) recordFailure(reason string, err error) {
	s.monitor.CaptureError(err, map[string]string{"stage": "plan", "reason": reason})
	rec, ok := s.sink.(coremetrics.FailureRecorder)
	if !ok {
		return
	}
	if rerr := rec.RecordPlanFailure(coremetrics.FailureEvent{Reason: reason, Err: err, Time: s.now()}); rerr != nil {
		s.log.Warnf("metrics: %v", rerr)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.events.Close()
	s.monitor.Flush(flushTimeout)
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return errors.Join(errs...)
}
