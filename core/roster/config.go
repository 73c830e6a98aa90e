package roster

import (
	"fmt"
	"time"

	"github.com/kilianp07/roster/core/model"
)

const (
	DefaultAvailable   = "available"
	DefaultUnavailable = "unavailable"
)

// Config holds every default and policy value the engine applies. Nothing is
// inferred from sparse input data; a value missing from the input falls back
// to one of these fields.
type Config struct {
	// DefaultAvailability applies to (driver, date) pairs with no
	// availability record: "available" or "unavailable".
	DefaultAvailability string `json:"default_availability"`
	// DefaultMaxRoutes is the per-date route limit for drivers with neither
	// a date-specific nor a driver-level value.
	DefaultMaxRoutes int `json:"default_max_routes"`
	// AvailableHoursFloor replaces a date-specific hour ceiling below
	// AvailableHoursFloorBelow. 0 disables the floor.
	AvailableHoursFloor float64 `json:"available_hours_floor"`
	// AvailableHoursFloorBelow is the ceiling under which the floor applies.
	// 0 means the floor itself.
	AvailableHoursFloorBelow float64 `json:"available_hours_floor_below"`
	// MaxRoutesFloor replaces a date-specific route limit below
	// MaxRoutesFloorBelow. 0 disables the floor.
	MaxRoutesFloor int `json:"max_routes_floor"`
	// MaxRoutesFloorBelow is the limit under which the floor applies. 0 means
	// the floor itself.
	MaxRoutesFloorBelow int          `json:"max_routes_floor_below"`
	Limits              LimitsConfig `json:"limits"`
	Solver              SolverConfig `json:"solver"`
}

// LimitsConfig bounds the work a driver may accumulate inside the horizon
// beyond the monthly budget. Zero values disable a limit.
type LimitsConfig struct {
	MaxWeeklyHours          float64 `json:"max_weekly_hours"`
	MaxConsecutiveHours     float64 `json:"max_consecutive_hours"`
	ConsecutiveLookbackDays int     `json:"consecutive_lookback_days"`
}

// SolverConfig tunes the day solver.
type SolverConfig struct {
	// MaxNodes caps the branch and bound search per date. The cap is
	// deterministic, unlike a wall clock limit.
	MaxNodes int `json:"max_nodes"`
	// DisableLPBound skips the simplex relaxation used to certify
	// optimality early.
	DisableLPBound bool `json:"disable_lp_bound"`
	// LPMaxPairs is the largest number of (route, driver) pairs for which
	// the relaxation is solved. Simplex has no iteration limit, so bigger
	// days rely on the combinatorial bound and MaxNodes alone.
	LPMaxPairs int `json:"lp_max_pairs"`
}

// DefaultLPMaxPairs covers a handful of routes against a small pool.
const DefaultLPMaxPairs = 40

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.DefaultAvailability == "" {
		c.DefaultAvailability = DefaultAvailable
	}
	if c.DefaultMaxRoutes == 0 {
		c.DefaultMaxRoutes = 1
	}
	if c.Limits.ConsecutiveLookbackDays == 0 {
		c.Limits.ConsecutiveLookbackDays = 4
	}
	if c.Solver.MaxNodes == 0 {
		c.Solver.MaxNodes = 200000
	}
	if c.Solver.LPMaxPairs == 0 {
		c.Solver.LPMaxPairs = DefaultLPMaxPairs
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DefaultAvailability != DefaultAvailable && c.DefaultAvailability != DefaultUnavailable {
		return fmt.Errorf("default_availability must be %q or %q, got %q", DefaultAvailable, DefaultUnavailable, c.DefaultAvailability)
	}
	if c.DefaultMaxRoutes < 1 {
		return fmt.Errorf("default_max_routes must be positive")
	}
	if c.AvailableHoursFloor < 0 || c.MaxRoutesFloor < 0 || c.AvailableHoursFloorBelow < 0 || c.MaxRoutesFloorBelow < 0 {
		return fmt.Errorf("availability floors must not be negative")
	}
	if c.Limits.MaxWeeklyHours < 0 || c.Limits.MaxConsecutiveHours < 0 {
		return fmt.Errorf("work limits must not be negative")
	}
	if c.Limits.ConsecutiveLookbackDays < 1 {
		return fmt.Errorf("consecutive_lookback_days must be positive")
	}
	if c.Solver.MaxNodes < 1 {
		return fmt.Errorf("solver max_nodes must be positive")
	}
	if c.Solver.LPMaxPairs < 0 {
		return fmt.Errorf("solver lp_max_pairs must not be negative")
	}
	return nil
}

func (c Config) defaultAvailable() bool { return c.DefaultAvailability == DefaultAvailable }

// hoursFloor returns the floor and the ceiling under which it applies.
func (c Config) hoursFloor() (floor, below time.Duration) {
	floor = model.HoursToDuration(c.AvailableHoursFloor)
	below = model.HoursToDuration(c.AvailableHoursFloorBelow)
	if below == 0 {
		below = floor
	}
	return floor, below
}

func (c Config) routesFloor() (floor, below int) {
	floor, below = c.MaxRoutesFloor, c.MaxRoutesFloorBelow
	if below == 0 {
		below = floor
	}
	return floor, below
}

func (c Config) weeklyLimit() time.Duration { return model.HoursToDuration(c.Limits.MaxWeeklyHours) }

func (c Config) consecutiveLimit() time.Duration {
	return model.HoursToDuration(c.Limits.MaxConsecutiveHours)
}
