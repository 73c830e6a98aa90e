package model

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// AnyWeekday is the weekday scope matching every day.
const AnyWeekday = "any"

// FixedRule is a business-mandated preference pairing a driver with the
// routes matching RoutePattern. Lower Priority values are tried first and Seq
// orders rules created earlier before later ones.
type FixedRule struct {
	ID           string
	DriverID     string
	RoutePattern string
	Priority     int
	Weekday      string
	Active       bool
	ValidFrom    Date
	ValidTo      Date
	Seq          int
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdayScope validates a weekday scope. It returns anyDay=true for
// "any" (or an empty scope) and the weekday otherwise.
func ParseWeekdayScope(s string) (day time.Weekday, anyDay bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == AnyWeekday {
		return 0, true, nil
	}
	if d, ok := weekdays[s]; ok {
		return d, false, nil
	}
	return 0, false, fmt.Errorf("unknown weekday scope %q", s)
}

// ValidatePattern reports whether the rule's route pattern is well formed.
func (r FixedRule) ValidatePattern() error {
	if strings.TrimSpace(r.RoutePattern) == "" {
		return fmt.Errorf("empty route pattern")
	}
	if _, err := path.Match(r.RoutePattern, ""); err != nil {
		return fmt.Errorf("route pattern %q: %w", r.RoutePattern, err)
	}
	return nil
}

// AppliesTo reports whether the rule targets route: it must be active, its
// pattern must match the route name, its weekday scope must include the route
// date and the date must fall inside the optional validity range.
func (r FixedRule) AppliesTo(route Route) bool {
	if !r.Active {
		return false
	}
	ok, err := path.Match(r.RoutePattern, route.Name)
	if err != nil || !ok {
		return false
	}
	day, anyDay, err := ParseWeekdayScope(r.Weekday)
	if err != nil {
		return false
	}
	if !anyDay && day != route.Date.Weekday() {
		return false
	}
	if !r.ValidFrom.IsZero() && route.Date.Before(r.ValidFrom) {
		return false
	}
	if !r.ValidTo.IsZero() && route.Date.After(r.ValidTo) {
		return false
	}
	return true
}
