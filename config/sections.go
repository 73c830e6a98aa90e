package config

import (
	"fmt"
	"time"
)

// InputConfig names the scenario file read when no database is configured.
type InputConfig struct {
	Path string `json:"path"`
	// DefaultRouteHours applies to routes listed without a duration.
	DefaultRouteHours float64 `json:"default_route_hours"`
}

func (c *InputConfig) SetDefaults() {
	if c.DefaultRouteHours == 0 {
		c.DefaultRouteHours = 8
	}
}

func (c InputConfig) Validate() error {
	if c.DefaultRouteHours < 0 {
		return fmt.Errorf("default_route_hours must not be negative")
	}
	return nil
}

// DatabaseConfig enables the PostgreSQL source and plan store when DSN is set.
// Without a DSN, SQLitePath keeps plans in a local file instead of memory.
type DatabaseConfig struct {
	DSN        string `json:"dsn"`
	Migrate    bool   `json:"migrate"`
	SQLitePath string `json:"sqlite_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `json:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	// MaxBodyBytes caps inline planning requests.
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 2 * time.Minute
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 4 << 20
	}
}

// ScheduleConfig makes serve plan the upcoming window periodically. A zero
// Interval disables it.
type ScheduleConfig struct {
	Interval time.Duration `json:"interval"`
	// OffsetDays is the distance from today to the first planned date.
	OffsetDays int `json:"offset_days"`
	Days       int `json:"days"`
}

func (c *ScheduleConfig) SetDefaults() {
	if c.OffsetDays == 0 {
		c.OffsetDays = 1
	}
	if c.Days == 0 {
		c.Days = 31
	}
}

func (c ScheduleConfig) Validate() error {
	if c.Interval < 0 || c.OffsetDays < 0 || c.Days < 0 {
		return fmt.Errorf("schedule values must not be negative")
	}
	return nil
}
