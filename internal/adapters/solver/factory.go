package solver

import (
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"time"
)

// Options selects and tunes a solver backend.
type Options struct {
	Backend     string // "simplex" or "highs"
	NodeLimit   int
	MaxDuration time.Duration
}

// NewFactory returns a factory that creates a fresh solver per request.
func NewFactory(opts Options) (ports.SolverFactory, error) {
	switch opts.Backend {
	case "", "simplex":
		return func() (ports.Solver, error) {
			return NewBranchBound(opts.NodeLimit), nil
		}, nil
	case "highs":
		return func() (ports.Solver, error) {
			return NewHiGHS(opts.MaxDuration), nil
		}, nil
	}
	return nil, fmt.Errorf("solver: unknown backend %q", opts.Backend)
}
