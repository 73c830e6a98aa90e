package model

import "time"

// Driver is a member of the roster. MonthlyBudget caps the total hours the
// driver can be assigned over one planning horizon.
type Driver struct {
	ID            string
	Name          string
	MonthlyBudget time.Duration
	// MaxRoutesPerDay overrides the configured default when positive.
	MaxRoutesPerDay int
}

// DisplayName returns Name, falling back to ID.
func (d Driver) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Route is one delivery route to be driven on a given date.
type Route struct {
	ID       string
	Name     string
	Date     Date
	Duration time.Duration
}

// Availability states whether a driver can work on a date. Hours and
// MaxRoutes are optional date-specific ceilings; zero means not set.
type Availability struct {
	DriverID  string
	Date      Date
	Available bool
	Hours     time.Duration
	MaxRoutes int
}
