package ports

import (
	"context"
	"fleet-route-optimizer/internal/domain"
)

// Cache of output documents keyed by the hash of their input document.
type ResultCache interface {
	// Return the cached result and true on a hit.
	Get(ctx context.Context, key string) (*domain.OptimizationResult, bool, error)
	Put(ctx context.Context, key string, result *domain.OptimizationResult) error
}
