package roster

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/roster/core/logger"
	"github.com/kilianp07/roster/core/model"
)

// SolveStatus describes how a day solve ended.
type SolveStatus string

const (
	// StatusOptimal means the assignment provably maximises the objective.
	StatusOptimal SolveStatus = "optimal"
	// StatusFeasible means the node budget ran out before optimality was
	// proven; the best assignment found is kept.
	StatusFeasible SolveStatus = "feasible"
	// StatusSkipped means no route was left for the solver on that date.
	StatusSkipped SolveStatus = "skipped"
)

// Candidate is a driver eligible for optimisation on one date.
type Candidate struct {
	DriverID string
	// Remaining is the monthly balance, used for the fairness tie-break.
	Remaining time.Duration
	// Hours and Routes are what the driver can still take on the date.
	Hours  time.Duration
	Routes int
}

// DayResult is the outcome of one day solve.
type DayResult struct {
	Assignments []model.Assignment
	Status      SolveStatus
	Nodes       int
	Elapsed     time.Duration
}

// DaySolver assigns the open routes of one date to candidate drivers,
// maximising the number of routes covered. Among maximal assignments it
// prefers drivers with more remaining monthly hours; remaining ties go to the
// canonical order of routes then driver IDs.
type DaySolver struct {
	cfg SolverConfig
	log logger.Logger
}

// NewDaySolver returns a solver using cfg.
func NewDaySolver(cfg SolverConfig, log logger.Logger) *DaySolver {
	if cfg.LPMaxPairs == 0 {
		cfg.LPMaxPairs = DefaultLPMaxPairs
	}
	return &DaySolver{cfg: cfg, log: log}
}

type dayProblem struct {
	date     model.Date
	routes   []model.Route
	drivers  []string
	capHours []time.Duration
	capCount []int
	weight   []int64
	// pairs[i] lists the drivers eligible for routes[i], highest weight first.
	pairs [][]int
}

func newDayProblem(date model.Date, routes []model.Route, cands []Candidate) *dayProblem {
	rs := append([]model.Route(nil), routes...)
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Duration != rs[j].Duration {
			return rs[i].Duration > rs[j].Duration
		}
		if rs[i].Name != rs[j].Name {
			return rs[i].Name < rs[j].Name
		}
		return rs[i].ID < rs[j].ID
	})
	cs := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Hours > 0 && c.Routes > 0 {
			cs = append(cs, c)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].DriverID < cs[j].DriverID })

	p := &dayProblem{
		date:     date,
		routes:   rs,
		drivers:  make([]string, len(cs)),
		capHours: make([]time.Duration, len(cs)),
		capCount: make([]int, len(cs)),
		weight:   make([]int64, len(cs)),
		pairs:    make([][]int, len(rs)),
	}
	var maxRem int64
	for i, c := range cs {
		p.drivers[i] = c.DriverID
		p.capHours[i] = c.Hours
		p.capCount[i] = c.Routes
		if m := int64(c.Remaining / time.Minute); m > maxRem {
			maxRem = m
		}
	}
	// One more route covered always outweighs any tie-break difference.
	big := int64(len(rs))*maxRem + 1
	for i, c := range cs {
		p.weight[i] = big + int64(c.Remaining/time.Minute)
	}
	for i, r := range rs {
		for d := range cs {
			if r.Duration <= p.capHours[d] {
				p.pairs[i] = append(p.pairs[i], d)
			}
		}
		sort.SliceStable(p.pairs[i], func(a, b int) bool {
			return p.weight[p.pairs[i][a]] > p.weight[p.pairs[i][b]]
		})
	}
	return p
}

func (p *dayProblem) pairCount() int {
	n := 0
	for _, ds := range p.pairs {
		n += len(ds)
	}
	return n
}

type search struct {
	p         *dayProblem
	limit     int
	nodes     int
	usedHours []time.Duration
	usedCount []int
	choice    []int
	best      int64
	bestPick  []int
	bound     float64
	hasBound  bool
	certified bool
	truncated bool
}

func (s *search) fits(d, i int) bool {
	return s.usedCount[d] < s.p.capCount[d] && s.usedHours[d]+s.p.routes[i].Duration <= s.p.capHours[d]
}

// optimistic sums, over routes i and later, the best weight still reachable
// for each route on its own.
func (s *search) optimistic(i int) int64 {
	var total int64
	for k := i; k < len(s.p.routes); k++ {
		for _, d := range s.p.pairs[k] {
			if s.fits(d, k) {
				total += s.p.weight[d]
				break
			}
		}
	}
	return total
}

// dfs returns true when the search must stop.
func (s *search) dfs(i int, cur int64) bool {
	s.nodes++
	if s.nodes > s.limit {
		s.truncated = true
		return true
	}
	if i == len(s.p.routes) {
		if cur > s.best {
			s.best = cur
			copy(s.bestPick, s.choice)
			if s.hasBound && certifies(s.best, s.bound) {
				s.certified = true
				return true
			}
		}
		return false
	}
	if cur+s.optimistic(i) <= s.best {
		return false
	}
	for _, d := range s.p.pairs[i] {
		if !s.fits(d, i) {
			continue
		}
		s.usedHours[d] += s.p.routes[i].Duration
		s.usedCount[d]++
		s.choice[i] = d
		stop := s.dfs(i+1, cur+s.p.weight[d])
		s.usedHours[d] -= s.p.routes[i].Duration
		s.usedCount[d]--
		if stop {
			return true
		}
	}
	s.choice[i] = -1
	return s.dfs(i+1, cur)
}

// Solve assigns routes of date to cands. It never commits anything; the
// caller commits the returned assignments.
func (ds *DaySolver) Solve(date model.Date, routes []model.Route, cands []Candidate) (DayResult, error) {
	start := time.Now()
	if len(routes) == 0 {
		return DayResult{Status: StatusSkipped}, nil
	}
	p := newDayProblem(date, routes, cands)

	s := &search{
		p:         p,
		limit:     max(ds.cfg.MaxNodes, len(p.routes)+1),
		usedHours: make([]time.Duration, len(p.drivers)),
		usedCount: make([]int, len(p.drivers)),
		choice:    make([]int, len(p.routes)),
		bestPick:  make([]int, len(p.routes)),
		best:      -1,
	}
	for i := range s.choice {
		s.choice[i] = -1
	}
	if n := p.pairCount(); n > ds.cfg.LPMaxPairs {
		ds.log.Debugf("%s: %d pairs exceed lp_max_pairs, searching without lp bound", date, n)
	} else if !ds.cfg.DisableLPBound {
		bound, err := relaxationBound(p)
		switch {
		case err == nil:
			s.bound, s.hasBound = bound, true
		case errors.Is(err, errNoBound):
			ds.log.Warnf("lp relaxation unusable on %s, searching without bound", date)
		default:
			return DayResult{}, &SolverAnomalyError{Date: date, Err: err}
		}
	}
	s.dfs(0, 0)

	if err := p.verify(s.bestPick); err != nil {
		return DayResult{}, &SolverAnomalyError{Date: date, Err: err}
	}

	res := DayResult{Status: StatusOptimal, Nodes: s.nodes}
	if s.truncated && !s.certified {
		res.Status = StatusFeasible
	}
	for i, d := range s.bestPick {
		if d < 0 {
			continue
		}
		r := p.routes[i]
		res.Assignments = append(res.Assignments, model.Assignment{
			DriverID:  p.drivers[d],
			RouteID:   r.ID,
			RouteName: r.Name,
			Date:      date,
			Hours:     r.Duration,
			Origin:    model.OriginOptimized,
		})
	}
	res.Elapsed = time.Since(start)
	ds.log.Debugw("day solved", map[string]any{
		"date":     date.String(),
		"routes":   len(p.routes),
		"drivers":  len(p.drivers),
		"assigned": len(res.Assignments),
		"status":   string(res.Status),
		"nodes":    s.nodes,
	})
	return res, nil
}

// verify checks a decoded solution against every model constraint.
func (p *dayProblem) verify(pick []int) error {
	if len(pick) != len(p.routes) {
		return fmt.Errorf("solution covers %d routes, model has %d", len(pick), len(p.routes))
	}
	hours := make([]time.Duration, len(p.drivers))
	count := make([]int, len(p.drivers))
	for i, d := range pick {
		if d < 0 {
			continue
		}
		eligible := false
		for _, e := range p.pairs[i] {
			if e == d {
				eligible = true
				break
			}
		}
		if !eligible {
			return fmt.Errorf("route %s given to ineligible driver index %d", p.routes[i].ID, d)
		}
		hours[d] += p.routes[i].Duration
		count[d]++
	}
	for d := range p.drivers {
		if hours[d] > p.capHours[d] {
			return fmt.Errorf("driver %s takes %s, capacity %s", p.drivers[d],
				model.FormatHours(hours[d]), model.FormatHours(p.capHours[d]))
		}
		if count[d] > p.capCount[d] {
			return fmt.Errorf("driver %s takes %d routes, limit %d", p.drivers[d], count[d], p.capCount[d])
		}
	}
	return nil
}
