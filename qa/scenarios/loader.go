package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/roster/core/roster"
	"github.com/kilianp07/roster/infra/scenario"
)

// EngineDef overrides engine settings for one scenario. Unset fields keep the
// engine defaults.
type EngineDef struct {
	DefaultAvailability string  `yaml:"default_availability,omitempty"`
	DefaultMaxRoutes    int     `yaml:"default_max_routes,omitempty"`
	AvailableHoursFloor float64 `yaml:"available_hours_floor,omitempty"`
	HoursFloorBelow     float64 `yaml:"available_hours_floor_below,omitempty"`
	MaxRoutesFloor      int     `yaml:"max_routes_floor,omitempty"`
	MaxWeeklyHours      float64 `yaml:"max_weekly_hours,omitempty"`
	MaxConsecutiveHours float64 `yaml:"max_consecutive_hours,omitempty"`
	MaxNodes            int     `yaml:"max_nodes,omitempty"`
}

func (e EngineDef) ToConfig() roster.Config {
	cfg := roster.Config{
		DefaultAvailability: e.DefaultAvailability,
		DefaultMaxRoutes:    e.DefaultMaxRoutes,
		AvailableHoursFloor:      e.AvailableHoursFloor,
		AvailableHoursFloorBelow: e.HoursFloorBelow,
		MaxRoutesFloor:           e.MaxRoutesFloor,
	}
	cfg.Limits.MaxWeeklyHours = e.MaxWeeklyHours
	cfg.Limits.MaxConsecutiveHours = e.MaxConsecutiveHours
	cfg.Solver.MaxNodes = e.MaxNodes
	cfg.SetDefaults()
	return cfg
}

// Pair is an assignment the plan must contain.
type Pair struct {
	Route  string `yaml:"route"`
	Date   string `yaml:"date"`
	Driver string `yaml:"driver"`
}

type Expected struct {
	// Error names the failure reason when the run must abort.
	Error      string            `yaml:"error,omitempty"`
	Assigned   int               `yaml:"assigned"`
	Unassigned int               `yaml:"unassigned"`
	Fixed      int               `yaml:"fixed"`
	Conflicts  int               `yaml:"conflicts"`
	Pairs      []Pair            `yaml:"pairs,omitempty"`
	Remaining  map[string]string `yaml:"remaining,omitempty"`
}

type Scenario struct {
	scenario.File `yaml:",inline"`
	Engine        EngineDef `yaml:"engine,omitempty"`
	Expected      Expected  `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
