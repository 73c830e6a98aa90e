package roster

import (
	"time"

	"github.com/kilianp07/roster/core/model"
)

type dayKey struct {
	driverID string
	date     model.Date
}

type dayWork struct {
	hours  time.Duration
	routes int
}

// workLog records committed work per driver and date. It backs the per-date
// route counts and the weekly and consecutive work limits.
type workLog struct {
	days map[dayKey]dayWork
}

func newWorkLog() *workLog { return &workLog{days: make(map[dayKey]dayWork)} }

func (w *workLog) add(driverID string, date model.Date, hours time.Duration) {
	k := dayKey{driverID, date}
	d := w.days[k]
	d.hours += hours
	d.routes++
	w.days[k] = d
}

func (w *workLog) day(driverID string, date model.Date) dayWork {
	return w.days[dayKey{driverID, date}]
}

// week sums the hours recorded for driverID in date's Monday-based week.
func (w *workLog) week(driverID string, date model.Date) time.Duration {
	start := date.WeekStart()
	var total time.Duration
	for i := 0; i < 7; i++ {
		total += w.days[dayKey{driverID, start.AddDays(i)}].hours
	}
	return total
}

// consecutive sums the hours worked on the unbroken run of days immediately
// before date, looking back at most lookback days.
func (w *workLog) consecutive(driverID string, date model.Date, lookback int) time.Duration {
	var total time.Duration
	for i := 1; i <= lookback; i++ {
		d, ok := w.days[dayKey{driverID, date.AddDays(-i)}]
		if !ok || d.hours == 0 {
			break
		}
		total += d.hours
	}
	return total
}
