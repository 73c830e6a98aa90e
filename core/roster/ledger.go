package roster

import (
	"fmt"
	"time"

	"github.com/kilianp07/roster/core/model"
)

// Ledger tracks the hours each driver still has available in the current
// run. Entries start at the monthly budget and only ever decrease.
type Ledger struct {
	budget    map[string]time.Duration
	remaining map[string]time.Duration
}

// NewLedger opens one entry per driver at its monthly budget.
func NewLedger(drivers []model.Driver) *Ledger {
	l := &Ledger{
		budget:    make(map[string]time.Duration, len(drivers)),
		remaining: make(map[string]time.Duration, len(drivers)),
	}
	for _, d := range drivers {
		l.budget[d.ID] = d.MonthlyBudget
		l.remaining[d.ID] = d.MonthlyBudget
	}
	return l
}

// Remaining returns the hours driverID can still take. Unknown drivers have
// none.
func (l *Ledger) Remaining(driverID string) time.Duration { return l.remaining[driverID] }

// Budget returns the opening balance of driverID.
func (l *Ledger) Budget(driverID string) time.Duration { return l.budget[driverID] }

// Commit consumes hours from driverID's entry. It is rejected, leaving the
// entry untouched, when hours exceed the remaining balance.
func (l *Ledger) Commit(driverID string, hours time.Duration) error {
	rem, ok := l.remaining[driverID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDriver, driverID)
	}
	if hours <= 0 {
		return fmt.Errorf("commit for %s: hours must be positive, got %s", driverID, hours)
	}
	if hours > rem {
		return fmt.Errorf("%w: %s needs %s, has %s", ErrInsufficientHours, driverID,
			model.FormatHours(hours), model.FormatHours(rem))
	}
	l.remaining[driverID] = rem - hours
	return nil
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	cp := &Ledger{
		budget:    make(map[string]time.Duration, len(l.budget)),
		remaining: make(map[string]time.Duration, len(l.remaining)),
	}
	for k, v := range l.budget {
		cp.budget[k] = v
	}
	for k, v := range l.remaining {
		cp.remaining[k] = v
	}
	return cp
}

// Snapshot returns the remaining hours keyed by driver.
func (l *Ledger) Snapshot() map[string]time.Duration {
	out := make(map[string]time.Duration, len(l.remaining))
	for k, v := range l.remaining {
		out[k] = v
	}
	return out
}
