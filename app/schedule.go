package app

import (
	"context"
	"time"

	"github.com/kilianp07/roster/config"
	"github.com/kilianp07/roster/core/model"
)

// ScheduledWindow returns the dates planned by a scheduled run at now.
func ScheduledWindow(cfg config.ScheduleConfig, now time.Time) (model.Date, model.Date) {
	from := model.DateOf(now).AddDays(cfg.OffsetDays)
	return from, from.AddDays(cfg.Days - 1)
}

// RunSchedule plans the configured window every cfg.Interval until ctx is
// cancelled. Failed runs are logged and retried at the next tick.
func (s *Service) RunSchedule(ctx context.Context, cfg config.ScheduleConfig) {
	if cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		from, to := ScheduledWindow(cfg, s.now())
		doc, err := s.Plan(ctx, from, to)
		if err != nil {
			s.log.Errorf("scheduled plan %s..%s: %v", from, to, err)
			continue
		}
		s.log.Infof("scheduled plan %s for %s..%s", doc.ID, from, to)
	}
}
