package solver

import (
	"context"
	"errors"
	"fleet-route-optimizer/internal/milp"
	"fmt"
	"math"
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// HiGHS treats bounds at or above this as infinite.
const highsInf = 1e30

// HiGHS solves models with the HiGHS provider of the nextmv sdk.
// A fresh sdk model and solver are built on every call.
type HiGHS struct {
	MaxDuration time.Duration
}

func NewHiGHS(maxDuration time.Duration) *HiGHS {
	return &HiGHS{MaxDuration: maxDuration}
}

func (h *HiGHS) Name() string { return "highs" }

func (h *HiGHS) Solve(ctx context.Context, m *milp.Model) (milp.Solution, error) {
	if err := m.Validate(); err != nil {
		return milp.Solution{}, fmt.Errorf("highs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return milp.Solution{}, fmt.Errorf("highs: %w", err)
	}

	model := mip.NewModel()

	vars := make([]mip.Var, len(m.Vars))
	for j, v := range m.Vars {
		switch v.Kind {
		case milp.Integer:
			ub := int64(math.MaxInt32)
			if !math.IsInf(v.Upper, 1) {
				ub = int64(math.Floor(v.Upper))
			}
			vars[j] = model.NewInt(0, ub)
		default:
			ub := highsInf
			if !math.IsInf(v.Upper, 1) {
				ub = v.Upper
			}
			vars[j] = model.NewFloat(0, ub)
		}
	}

	for _, c := range m.Constraints {
		var sense mip.Sense
		switch c.Sense {
		case milp.LessOrEqual:
			sense = mip.LessThanOrEqual
		case milp.GreaterOrEqual:
			sense = mip.GreaterThanOrEqual
		case milp.Equal:
			sense = mip.Equal
		default:
			return milp.Solution{}, fmt.Errorf("highs: constraint %s has unknown sense %v", c.Name, c.Sense)
		}
		row := model.NewConstraint(sense, c.RHS)
		for _, t := range c.Terms {
			row.NewTerm(t.Coef, vars[t.Var])
		}
	}

	model.Objective().SetMinimize()
	for _, t := range m.Objective {
		model.Objective().NewTerm(t.Coef, vars[t.Var])
	}

	solver, err := newHighsSolver(model)
	if err != nil {
		return milp.Solution{}, fmt.Errorf("highs: create solver: %w", err)
	}

	opts := mip.NewSolveOptions()
	if err := opts.SetMaximumDuration(h.duration(ctx)); err != nil {
		return milp.Solution{}, fmt.Errorf("highs: set duration: %w", err)
	}
	if err := opts.SetMIPGapRelative(0); err != nil {
		return milp.Solution{}, fmt.Errorf("highs: set gap: %w", err)
	}
	opts.SetVerbosity(mip.Off)

	solution, err := solver.Solve(opts)
	if err != nil {
		return milp.Solution{}, fmt.Errorf("highs: solve: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return milp.Solution{}, fmt.Errorf("highs: %w", err)
	}

	switch {
	case solution == nil:
		return milp.Solution{}, errors.New("highs: solver returned no solution")
	case solution.IsInfeasible():
		return milp.Solution{Status: milp.StatusInfeasible}, nil
	case solution.IsUnbounded():
		return milp.Solution{Status: milp.StatusUnbounded}, nil
	case !solution.IsOptimal() || !solution.HasValues():
		return milp.Solution{}, fmt.Errorf("highs: no proven optimum after %s", solution.RunTime())
	}

	values := make([]float64, len(vars))
	for j, v := range vars {
		values[j] = solution.Value(v)
	}

	return milp.Solution{
		Status:    milp.StatusOptimal,
		Values:    values,
		Objective: solution.ObjectiveValue(),
	}, nil
}

// duration is the configured limit, shortened to the context deadline.
func (h *HiGHS) duration(ctx context.Context) time.Duration {
	d := h.MaxDuration
	if d <= 0 {
		d = time.Minute
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = max(left, time.Millisecond)
		}
	}
	return d
}

// newHighsSolver loads the HiGHS provider. The sdk panics when the provider
// plugin cannot be loaded; that is reported as an error instead.
func newHighsSolver(model mip.Model) (solver mip.Solver, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load provider: %v", r)
		}
	}()
	return mip.NewSolver("highs", model)
}
