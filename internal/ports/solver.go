package ports

import (
	"context"
	"fleet-route-optimizer/internal/milp"
)

// Contract for the optimization backend consumed by the engine.
//
// Solve returns a Solution whose Status is optimal, infeasible or unbounded.
// A non-nil error means the backend could not produce an answer (it failed,
// hit a limit, or the context ended); callers treat it as terminal.
type Solver interface {
	Name() string
	Solve(ctx context.Context, model *milp.Model) (milp.Solution, error)
}

// SolverFactory acquires a solver for a single request. Solvers are never shared.
type SolverFactory func() (Solver, error)
