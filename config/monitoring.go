package config

import "fmt"

// MonitoringConfig configures error reporting of aborted runs.
type MonitoringConfig struct {
	Sentry SentryConfig `json:"sentry"`
}

// SentryConfig enables Sentry when DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

func (c MonitoringConfig) Validate() error {
	if r := c.Sentry.TracesSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("sentry traces_sample_rate must be within [0,1], got %v", r)
	}
	return nil
}
