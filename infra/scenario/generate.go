package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/roster/core/model"
)

// GenConfig holds parameters for synthetic scenario generation.
type GenConfig struct {
	Seed         int64
	From, To     model.Date
	Drivers      int
	RoutesPerDay int
	// MonthlyHours is the budget of every generated driver.
	MonthlyHours float64
	// UnavailableRate is the probability that a driver is off on a date.
	UnavailableRate float64
	// FixedRules pins the first drivers to the Saturday routes.
	FixedRules int
}

// Durations drawn for generated routes.
var routeDurations = []time.Duration{
	6 * time.Hour,
	7 * time.Hour,
	8 * time.Hour,
	8*time.Hour + 30*time.Minute,
	9 * time.Hour,
}

var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "DI",
	time.Wednesday: "MI",
	time.Thursday:  "DO",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SO",
}

// RouteName returns the name of the n-th route (from 0) on a weekday, e.g.
// "452SA".
func RouteName(n int, wd time.Weekday) string {
	return fmt.Sprintf("%d%s", 451+n, weekdayCodes[wd])
}

// Generate builds a scenario with cfg.RoutesPerDay routes on every date of
// [From, To]. The same seed yields the same file.
func Generate(cfg GenConfig) (*File, error) {
	if cfg.From.IsZero() || cfg.To.IsZero() || cfg.To.Before(cfg.From) {
		return nil, fmt.Errorf("generate: invalid date range %s..%s", cfg.From, cfg.To)
	}
	if cfg.Drivers <= 0 || cfg.RoutesPerDay <= 0 {
		return nil, fmt.Errorf("generate: drivers and routes per day must be positive")
	}
	if cfg.MonthlyHours <= 0 {
		cfg.MonthlyHours = 160
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &File{
		Name:        fmt.Sprintf("generated-%d", cfg.Seed),
		Description: fmt.Sprintf("%d drivers, %d routes per day", cfg.Drivers, cfg.RoutesPerDay),
		From:        cfg.From,
		To:          cfg.To,
	}
	budget := Hours(model.HoursToDuration(cfg.MonthlyHours))
	for i := 0; i < cfg.Drivers; i++ {
		f.Drivers = append(f.Drivers, Driver{
			ID:           fmt.Sprintf("drv%03d", i+1),
			Name:         fmt.Sprintf("Driver %d", i+1),
			MonthlyHours: budget,
		})
	}
	off := false
	for _, d := range model.DateRange(cfg.From, cfg.To) {
		for n := 0; n < cfg.RoutesPerDay; n++ {
			dur := Hours(routeDurations[rng.Intn(len(routeDurations))])
			f.Routes = append(f.Routes, Route{Name: RouteName(n, d.Weekday()), Date: d, Duration: &dur})
		}
		if cfg.UnavailableRate <= 0 {
			continue
		}
		for _, drv := range f.Drivers {
			if rng.Float64() < cfg.UnavailableRate {
				f.Availability = append(f.Availability, Availability{Driver: drv.ID, Date: d, Available: &off})
			}
		}
	}
	for i := 0; i < cfg.FixedRules && i < cfg.Drivers && i < cfg.RoutesPerDay; i++ {
		f.Rules = append(f.Rules, Rule{
			ID:       fmt.Sprintf("saturday-%d", i+1),
			Driver:   f.Drivers[i].ID,
			Route:    RouteName(i, time.Saturday),
			Priority: 1,
			Weekday:  "saturday",
		})
	}
	return f, nil
}
