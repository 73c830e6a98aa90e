package roster

import (
	"errors"
	"strings"

	"github.com/kilianp07/roster/core/model"
)

// Validate checks in for structural problems and returns every issue found,
// joined. A nil result means the input can be planned.
func Validate(in model.Input) error {
	var errs []error
	bad := func(kind, ref, reason string) {
		errs = append(errs, &InputError{Kind: kind, Ref: ref, Reason: reason})
	}

	if len(in.Horizon) == 0 {
		bad("horizon", "", "no dates")
	}
	inHorizon := make(map[model.Date]bool, len(in.Horizon))
	for i, d := range in.Horizon {
		if d.IsZero() {
			bad("horizon", "", "zero date")
			continue
		}
		if inHorizon[d] {
			bad("horizon", d.String(), "duplicate date")
		} else if i > 0 && !in.Horizon[i-1].Before(d) {
			bad("horizon", d.String(), "dates must be strictly ascending")
		}
		inHorizon[d] = true
	}

	drivers := make(map[string]bool, len(in.Drivers))
	for _, d := range in.Drivers {
		switch {
		case strings.TrimSpace(d.ID) == "":
			bad("driver", d.Name, "empty id")
			continue
		case drivers[d.ID]:
			bad("driver", d.ID, "duplicate id")
		}
		drivers[d.ID] = true
		if d.MonthlyBudget < 0 {
			bad("driver", d.ID, "negative monthly budget")
		}
		if d.MaxRoutesPerDay < 0 {
			bad("driver", d.ID, "negative max routes per day")
		}
	}

	routes := make(map[string]bool, len(in.Routes))
	for _, r := range in.Routes {
		if strings.TrimSpace(r.ID) == "" {
			bad("route", r.Name, "empty id")
			continue
		}
		if routes[r.ID] {
			bad("route", r.ID, "duplicate id")
		}
		routes[r.ID] = true
		if r.Name == "" {
			bad("route", r.ID, "empty name")
		}
		if r.Duration <= 0 {
			bad("route", r.ID, "duration must be positive")
		}
		if !inHorizon[r.Date] {
			bad("route", r.ID, "date "+r.Date.String()+" outside the horizon")
		}
	}

	type availKey struct {
		driver string
		date   model.Date
	}
	avail := make(map[availKey]bool, len(in.Availability))
	for _, a := range in.Availability {
		ref := a.DriverID + "@" + a.Date.String()
		if !drivers[a.DriverID] {
			bad("availability", ref, "unknown driver")
		}
		k := availKey{a.DriverID, a.Date}
		if avail[k] {
			bad("availability", ref, "duplicate record")
		}
		avail[k] = true
		if a.Hours < 0 || a.MaxRoutes < 0 {
			bad("availability", ref, "negative ceiling")
		}
	}

	rules := make(map[string]bool, len(in.Rules))
	for _, r := range in.Rules {
		if rules[r.ID] {
			bad("rule", r.ID, "duplicate id")
		}
		rules[r.ID] = true
		if !drivers[r.DriverID] {
			bad("rule", r.ID, "unknown driver "+r.DriverID)
		}
		if r.Priority < 1 {
			bad("rule", r.ID, "priority must be at least 1")
		}
		if _, _, err := model.ParseWeekdayScope(r.Weekday); err != nil {
			bad("rule", r.ID, err.Error())
		}
		if err := r.ValidatePattern(); err != nil {
			bad("rule", r.ID, err.Error())
		}
		if !r.ValidFrom.IsZero() && !r.ValidTo.IsZero() && r.ValidFrom.After(r.ValidTo) {
			bad("rule", r.ID, "valid_from after valid_to")
		}
	}

	return errors.Join(errs...)
}
