package metrics

import "github.com/kilianp07/roster/core/factory"

// Config defines the metrics sinks to build.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
