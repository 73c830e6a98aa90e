package roster

import (
	"sort"

	"github.com/kilianp07/roster/core/logger"
	"github.com/kilianp07/roster/core/model"
)

// Rejection reasons reported when a candidate rule is skipped.
const (
	rejectUnavailable = "unavailable"
	rejectBudget      = "insufficient monthly hours"
	rejectAllowance   = "date or work limit reached"
	rejectRouteCount  = "max routes for the date reached"
)

// Resolver applies fixed rules to routes in priority order. Rules are
// preferences: a route whose candidates are all ineligible is left for the
// day solver.
type Resolver struct {
	rules []model.FixedRule
	log   logger.Logger
}

// NewResolver keeps the active rules of rules sorted by priority then Seq.
func NewResolver(rules []model.FixedRule, log logger.Logger) *Resolver {
	active := make([]model.FixedRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		if active[i].Seq != active[j].Seq {
			return active[i].Seq < active[j].Seq
		}
		return active[i].ID < active[j].ID
	})
	return &Resolver{rules: active, log: log}
}

// Candidates returns the rules targeting route, best first.
func (r *Resolver) Candidates(route model.Route) []model.FixedRule {
	var out []model.FixedRule
	for _, rule := range r.rules {
		if rule.AppliesTo(route) {
			out = append(out, rule)
		}
	}
	return out
}

// conflicts groups candidates sharing a priority.
func conflicts(route model.Route, cands []model.FixedRule) []RuleConflict {
	var out []RuleConflict
	for i := 0; i < len(cands); {
		j := i + 1
		for j < len(cands) && cands[j].Priority == cands[i].Priority {
			j++
		}
		if j-i > 1 {
			ids := make([]string, 0, j-i)
			for _, c := range cands[i:j] {
				ids = append(ids, c.ID)
			}
			out = append(out, RuleConflict{
				RouteID:   route.ID,
				RouteName: route.Name,
				Date:      route.Date,
				Priority:  cands[i].Priority,
				RuleIDs:   ids,
			})
		}
		i = j
	}
	return out
}

// resolveDay commits fixed assignments for routes of one date. It returns the
// routes left open and any rule conflicts found.
func (r *Resolver) resolveDay(s *runState, routes []model.Route) ([]model.Route, []RuleConflict, error) {
	var (
		open  []model.Route
		found []RuleConflict
	)
	for _, route := range routes {
		cands := r.Candidates(route)
		if len(cands) == 0 {
			open = append(open, route)
			continue
		}
		for _, c := range conflicts(route, cands) {
			r.log.Warnf("rule conflict: %s", c)
			found = append(found, c)
		}
		assigned := false
		for _, rule := range cands {
			if reason := r.reject(s, rule.DriverID, route); reason != "" {
				r.log.Debugw("fixed rule skipped", map[string]any{
					"rule":   rule.ID,
					"driver": rule.DriverID,
					"route":  route.Name,
					"date":   route.Date.String(),
					"reason": reason,
				})
				continue
			}
			a := model.Assignment{
				DriverID:  rule.DriverID,
				RouteID:   route.ID,
				RouteName: route.Name,
				Date:      route.Date,
				Hours:     route.Duration,
				Origin:    model.OriginFixed,
			}
			if err := s.commit(a); err != nil {
				return nil, nil, err
			}
			assigned = true
			break
		}
		if !assigned {
			open = append(open, route)
		}
	}
	return open, found, nil
}

func (r *Resolver) reject(s *runState, driverID string, route model.Route) string {
	if !s.available(driverID, route.Date) {
		return rejectUnavailable
	}
	if s.ledger.Remaining(driverID) < route.Duration {
		return rejectBudget
	}
	hours, count := s.allowance(driverID, route.Date)
	if count < 1 {
		return rejectRouteCount
	}
	if hours < route.Duration {
		return rejectAllowance
	}
	return ""
}
