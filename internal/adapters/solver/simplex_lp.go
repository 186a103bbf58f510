package solver

import (
	"errors"
	"fleet-route-optimizer/internal/milp"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const simplexTol = 1e-10

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

// relaxation is the LP relaxation of a model with per-variable bounds.
type relaxation struct {
	model *milp.Model
	// constrained[j] is true when variable j appears in at least one constraint.
	constrained []bool
}

func newRelaxation(m *milp.Model) *relaxation {
	constrained := make([]bool, len(m.Vars))
	for _, c := range m.Constraints {
		net := make(map[int]float64, len(c.Terms))
		for _, t := range c.Terms {
			net[t.Var] += t.Coef
		}
		for v, coef := range net {
			if coef != 0 {
				constrained[v] = true
			}
		}
	}
	return &relaxation{model: m, constrained: constrained}
}

// solve minimizes the objective over lo <= x <= hi and the model constraints.
//
// Variables are shifted to x = lo + x'. Inequality rows get their own slack
// column; equality rows are kept as a single row without one.
func (r *relaxation) solve(lo, hi []float64) (x []float64, f float64, status lpStatus, err error) {
	m := r.model
	n := len(m.Vars)

	objective := make([]float64, n)
	for _, t := range m.Objective {
		objective[t.Var] += t.Coef
	}

	x = make([]float64, n)
	col := make([]int, n)
	cols := 0
	for j := 0; j < n; j++ {
		if hi[j] < lo[j] {
			return nil, 0, lpInfeasible, nil
		}
		x[j] = lo[j]
		col[j] = -1

		if hi[j] == lo[j] {
			// Fixed: folded into the right-hand sides.
			continue
		}
		if r.constrained[j] || !math.IsInf(hi[j], 1) {
			col[j] = cols
			cols++
			continue
		}
		// Free of constraints and unbounded above: it sits at its lower bound
		// unless it makes the objective unbounded.
		if objective[j] < 0 {
			return nil, 0, lpUnbounded, nil
		}
	}

	// slack is +1 for <=, -1 for >= and 0 for equality rows.
	type row struct {
		coefs map[int]float64
		slack float64
		rhs   float64
	}
	rows := make([]row, 0, len(m.Constraints)+cols)

	for _, c := range m.Constraints {
		coefs := make(map[int]float64, len(c.Terms))
		rhs := c.RHS
		for _, t := range c.Terms {
			rhs -= t.Coef * lo[t.Var]
			if col[t.Var] >= 0 {
				coefs[col[t.Var]] += t.Coef
			}
		}
		switch c.Sense {
		case milp.LessOrEqual:
			rows = append(rows, row{coefs: coefs, slack: 1, rhs: rhs})
		case milp.GreaterOrEqual:
			rows = append(rows, row{coefs: coefs, slack: -1, rhs: rhs})
		case milp.Equal:
			if len(nonZeroCoefs(coefs)) == 0 {
				// Nothing left to adjust: the row holds at x = lo or never.
				if math.Abs(rhs) > simplexTol {
					return nil, 0, lpInfeasible, nil
				}
				continue
			}
			rows = append(rows, row{coefs: coefs, rhs: rhs})
		default:
			return nil, 0, 0, fmt.Errorf("simplex: constraint %s has unknown sense %v", c.Name, c.Sense)
		}
	}
	for j := 0; j < n; j++ {
		if col[j] < 0 || math.IsInf(hi[j], 1) {
			continue
		}
		rows = append(rows, row{coefs: map[int]float64{col[j]: 1}, slack: 1, rhs: hi[j] - lo[j]})
	}

	if cols == 0 {
		// Only slack columns remain: every row must already hold at x = lo.
		for _, rw := range rows {
			if rw.slack >= 0 && rw.rhs < -simplexTol || rw.slack <= 0 && rw.rhs > simplexTol {
				return nil, 0, lpInfeasible, nil
			}
		}
		return x, m.ObjectiveValue(x), lpOptimal, nil
	}

	slackCol := make([]int, len(rows))
	width := cols
	for i, rw := range rows {
		slackCol[i] = -1
		if rw.slack != 0 {
			slackCol[i] = width
			width++
		}
	}
	a := mat.NewDense(len(rows), width, nil)
	b := make([]float64, len(rows))
	c := make([]float64, width)
	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			c[col[j]] = objective[j]
		}
	}
	for i, rw := range rows {
		for k, v := range rw.coefs {
			a.Set(i, k, v)
		}
		if slackCol[i] >= 0 {
			a.Set(i, slackCol[i], rw.slack)
		}
		b[i] = rw.rhs
	}

	xOpt, err := runSimplex(c, a, b)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, 0, lpInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, lpUnbounded, nil
	case err != nil:
		return nil, 0, 0, err
	}

	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			x[j] = lo[j] + xOpt[col[j]]
		}
	}
	return x, m.ObjectiveValue(x), lpOptimal, nil
}

func nonZeroCoefs(coefs map[int]float64) map[int]float64 {
	for k, v := range coefs {
		if v == 0 {
			delete(coefs, k)
		}
	}
	return coefs
}

// runSimplex calls gonum's simplex and turns its input panics into errors.
func runSimplex(c []float64, a *mat.Dense, b []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()

	_, x, err = lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	return x, nil
}
