package services

import (
	"context"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/milp"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"time"
)

// Engine runs Build -> Solve -> Extract for a single request.
// It holds no per-request state; every call acquires its own solver.
type Engine struct {
	newSolver ports.SolverFactory
}

func NewEngine(newSolver ports.SolverFactory) *Engine {
	return &Engine{newSolver: newSolver}
}

// Optimize validates doc, solves the allocation model and extracts the result.
// Validation failures never reach the solver.
func (e *Engine) Optimize(ctx context.Context, doc domain.InputDocument) (res *domain.OptimizationResult, err error) {
	defer obs.Time(ctx, "optimize")(&err)

	am, err := BuildAllocationModel(doc)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	if e.newSolver == nil {
		return nil, fmt.Errorf("optimize: no solver configured: %w", domain.ErrSolverUnavailable)
	}
	solver, err := e.newSolver()
	if err != nil {
		return nil, fmt.Errorf("optimize: acquire solver: %w: %w", domain.ErrSolverUnavailable, err)
	}

	start := time.Now()
	sol, err := solver.Solve(ctx, am.Model)
	metrics.SolveDuration.WithLabelValues(solver.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			metrics.Solves.WithLabelValues(solver.Name(), "canceled").Inc()
			return nil, fmt.Errorf("optimize: solve with %s: %w", solver.Name(), err)
		}
		metrics.Solves.WithLabelValues(solver.Name(), "error").Inc()
		return nil, fmt.Errorf("optimize: solve with %s: %w: %w", solver.Name(), domain.ErrSolverUnavailable, err)
	}
	metrics.Solves.WithLabelValues(solver.Name(), sol.Status.String()).Inc()

	switch sol.Status {
	case milp.StatusOptimal:
	case milp.StatusInfeasible:
		return nil, fmt.Errorf("optimize: %w", domain.ErrInfeasible)
	case milp.StatusUnbounded:
		return nil, fmt.Errorf("optimize: model is unbounded: %w", domain.ErrInternal)
	default:
		return nil, fmt.Errorf("optimize: unexpected solver status %s: %w", sol.Status, domain.ErrInternal)
	}

	res, err = ExtractResult(ctx, doc, am, sol)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	return res, nil
}
