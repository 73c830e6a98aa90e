package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/roster/core/factory"
	"github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/core/roster"
)

type Config struct {
	Engine     roster.Config          `json:"engine"`
	Input      InputConfig            `json:"input"`
	Database   DatabaseConfig         `json:"database"`
	Metrics    metrics.Config         `json:"metrics"`
	Notifiers  []factory.ModuleConfig `json:"notifiers"`
	Server     ServerConfig           `json:"server"`
	Schedule   ScheduleConfig         `json:"schedule"`
	Logging    LoggingConfig          `json:"logging"`
	Monitoring MonitoringConfig       `json:"monitoring"`
}

// Default returns a configuration with every section defaulted. It is used
// when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	c.Engine.SetDefaults()
	c.Input.SetDefaults()
	c.Server.SetDefaults()
	c.Schedule.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
