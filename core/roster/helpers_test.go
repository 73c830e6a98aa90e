package roster

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/logger"
)

// Monday.
var day0 = model.NewDate(2025, time.March, 3)

func days(n int) []model.Date {
	out := make([]model.Date, n)
	for i := range out {
		out[i] = day0.AddDays(i)
	}
	return out
}

func driver(id string, hours float64) model.Driver {
	return model.Driver{ID: id, Name: "Driver " + id, MonthlyBudget: model.HoursToDuration(hours)}
}

func route(id string, d model.Date, hours float64) model.Route {
	return model.Route{ID: id, Name: id, Date: d, Duration: model.HoursToDuration(hours)}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func mustRun(t *testing.T, e *Engine, in model.Input) *Plan {
	t.Helper()
	p, err := e.Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return p
}

// randomInput builds a reproducible instance with some unavailability and
// fixed rules.
func randomInput(seed int64, nDrivers, nDays, routesPerDay int) model.Input {
	rng := rand.New(rand.NewSource(seed))
	in := model.Input{Horizon: days(nDays)}
	for i := 0; i < nDrivers; i++ {
		in.Drivers = append(in.Drivers, driver(fmt.Sprintf("d%02d", i), float64(10+rng.Intn(40))))
	}
	for di, d := range in.Horizon {
		for r := 0; r < routesPerDay; r++ {
			in.Routes = append(in.Routes, route(fmt.Sprintf("r%02d-%02d", di, r), d, float64(4+rng.Intn(6))+0.5*float64(rng.Intn(2))))
		}
		for _, drv := range in.Drivers {
			if rng.Intn(5) == 0 {
				in.Availability = append(in.Availability, model.Availability{DriverID: drv.ID, Date: d, Available: false})
			}
		}
	}
	for i := 0; i < nDrivers/2; i++ {
		in.Rules = append(in.Rules, model.FixedRule{
			ID:           fmt.Sprintf("rule%d", i),
			DriverID:     in.Drivers[rng.Intn(nDrivers)].ID,
			RoutePattern: fmt.Sprintf("r*-%02d", rng.Intn(routesPerDay)),
			Priority:     1 + rng.Intn(2),
			Weekday:      model.AnyWeekday,
			Active:       true,
			Seq:          i,
		})
	}
	return in
}
