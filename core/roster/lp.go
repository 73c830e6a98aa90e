package roster

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// lpSolve points to the simplex implementation. It can be overridden in tests
// to simulate solver failures.
var lpSolve = lp.Simplex

// errNoBound reports that the relaxation could not be used as a bound.
var errNoBound = errors.New("lp bound unavailable")

// relaxationBound solves the LP relaxation of p and returns an upper bound on
// the best objective value. The model is built directly in standard form:
// one column per pair plus one slack per row, so the slack basis is feasible.
//
// lp.ErrInfeasible is returned unchanged since x = 0 is always feasible for
// this model. Other solver failures are reported as errNoBound.
func relaxationBound(p *dayProblem) (float64, error) {
	type pair struct{ route, driver int }
	var pairs []pair
	for i := range p.routes {
		for _, d := range p.pairs[i] {
			pairs = append(pairs, pair{i, d})
		}
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	routeRow := make(map[int]int)
	hoursRow := make(map[int]int)
	countRow := make(map[int]int)
	rows := 0
	for _, pr := range pairs {
		if _, ok := routeRow[pr.route]; !ok {
			routeRow[pr.route] = rows
			rows++
		}
	}
	for _, pr := range pairs {
		if _, ok := hoursRow[pr.driver]; !ok {
			hoursRow[pr.driver] = rows
			countRow[pr.driver] = rows + 1
			rows += 2
		}
	}

	cols := len(pairs) + rows
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	for j, pr := range pairs {
		c[j] = -float64(p.weight[pr.driver])
		a.Set(routeRow[pr.route], j, 1)
		a.Set(hoursRow[pr.driver], j, p.routes[pr.route].Duration.Hours())
		a.Set(countRow[pr.driver], j, 1)
	}
	for _, row := range routeRow {
		b[row] = 1
	}
	for d, row := range hoursRow {
		b[row] = p.capHours[d].Hours()
		b[countRow[d]] = float64(p.capCount[d])
	}
	basic := make([]int, rows)
	for i := 0; i < rows; i++ {
		a.Set(i, len(pairs)+i, 1)
		basic[i] = len(pairs) + i
	}

	opt, _, err := lpSolve(c, a, b, 1e-9, basic)
	if errors.Is(err, lp.ErrInfeasible) {
		return 0, err
	}
	if err != nil {
		return 0, errNoBound
	}
	return -opt, nil
}

// certifies reports whether an integer objective value reaches the relaxation
// bound.
func certifies(best int64, bound float64) bool {
	return float64(best) >= math.Floor(bound+1e-6)
}
