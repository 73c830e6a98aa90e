package roster

import (
	"time"

	"github.com/kilianp07/roster/core/model"
)

// runState is everything that crosses dates within one run: the ledger, the
// work log and the committed assignments. It is created per run and dropped
// when the run ends.
type runState struct {
	cfg     Config
	drivers map[string]model.Driver
	order   []string
	avail   map[dayKey]model.Availability
	ledger  *Ledger
	work    *workLog
	commits []model.Assignment
}

func newRunState(cfg Config, in model.Input, ledger *Ledger) *runState {
	s := &runState{
		cfg:     cfg,
		drivers: make(map[string]model.Driver, len(in.Drivers)),
		order:   make([]string, 0, len(in.Drivers)),
		avail:   make(map[dayKey]model.Availability, len(in.Availability)),
		ledger:  ledger,
		work:    newWorkLog(),
	}
	for _, d := range in.Drivers {
		s.drivers[d.ID] = d
		s.order = append(s.order, d.ID)
	}
	for _, a := range in.Availability {
		s.avail[dayKey{a.DriverID, a.Date}] = a
	}
	return s
}

// available resolves the availability of driverID on date, falling back to
// the configured default when no record exists.
func (s *runState) available(driverID string, date model.Date) bool {
	if a, ok := s.avail[dayKey{driverID, date}]; ok {
		return a.Available
	}
	return s.cfg.defaultAvailable()
}

// dateCeiling returns the date-specific hour ceiling after the configured
// floor, or false when the date has none.
func (s *runState) dateCeiling(driverID string, date model.Date) (time.Duration, bool) {
	a, ok := s.avail[dayKey{driverID, date}]
	if !ok || a.Hours <= 0 {
		return 0, false
	}
	if floor, below := s.cfg.hoursFloor(); floor > 0 && a.Hours < below {
		return floor, true
	}
	return a.Hours, true
}

// maxRoutes resolves the per-date route limit: the date-specific value, then
// the driver's own limit, then the configured default.
func (s *runState) maxRoutes(driverID string, date model.Date) int {
	if a, ok := s.avail[dayKey{driverID, date}]; ok && a.MaxRoutes > 0 {
		if floor, below := s.cfg.routesFloor(); floor > 0 && a.MaxRoutes < below {
			return floor
		}
		return a.MaxRoutes
	}
	if d := s.drivers[driverID]; d.MaxRoutesPerDay > 0 {
		return d.MaxRoutesPerDay
	}
	return s.cfg.DefaultMaxRoutes
}

// allowance returns the hours and number of routes driverID can still take
// on date given the ledger, the date ceiling and the work limits.
func (s *runState) allowance(driverID string, date model.Date) (time.Duration, int) {
	day := s.work.day(driverID, date)
	hours := s.ledger.Remaining(driverID)
	if c, ok := s.dateCeiling(driverID, date); ok {
		hours = min(hours, c-day.hours)
	}
	if lim := s.cfg.weeklyLimit(); lim > 0 {
		hours = min(hours, lim-s.work.week(driverID, date))
	}
	if lim := s.cfg.consecutiveLimit(); lim > 0 {
		prev := s.work.consecutive(driverID, date, s.cfg.Limits.ConsecutiveLookbackDays)
		hours = min(hours, lim-prev-day.hours)
	}
	return max(hours, 0), max(s.maxRoutes(driverID, date)-day.routes, 0)
}

// commit records a decision against the ledger and the work log.
func (s *runState) commit(a model.Assignment) error {
	rem := s.ledger.Remaining(a.DriverID)
	if err := s.ledger.Commit(a.DriverID, a.Hours); err != nil {
		return &CapacityViolationError{
			DriverID:  a.DriverID,
			RouteID:   a.RouteID,
			Date:      a.Date,
			Requested: a.Hours,
			Remaining: rem,
			Err:       err,
		}
	}
	s.work.add(a.DriverID, a.Date, a.Hours)
	s.commits = append(s.commits, a)
	return nil
}
