package ports

import (
	"context"
	"fleet-route-optimizer/internal/domain"
)

// Optimizer runs one allocation request end to end.
//
// Errors wrap one of the domain sentinels (ErrValidation, ErrInfeasible,
// ErrSolverUnavailable, ErrInternal) or a context error.
type Optimizer interface {
	Optimize(ctx context.Context, doc domain.InputDocument) (*domain.OptimizationResult, error)
}
