package model

import "time"

// Origin tags the path that produced an assignment.
type Origin string

const (
	OriginFixed     Origin = "fixed"
	OriginOptimized Origin = "optimized"
)

// Assignment is a committed driver to route decision. Once committed it is
// final for the run.
type Assignment struct {
	DriverID  string
	RouteID   string
	RouteName string
	Date      Date
	Hours     time.Duration
	Origin    Origin
}

// Input bundles everything a planning run consumes. Horizon must be strictly
// ascending.
type Input struct {
	Horizon      []Date
	Drivers      []Driver
	Routes       []Route
	Availability []Availability
	Rules        []FixedRule
}
