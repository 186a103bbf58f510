package domain

import (
	"errors"
	"strings"
)

// Error kinds surfaced to callers. Wrap them with context and test with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInfeasible        = errors.New("no allocation satisfies every constraint")
	ErrSolverUnavailable = errors.New("solver unavailable")
	ErrInternal          = errors.New("internal error")
	ErrNotFound          = errors.New("not found")
)

// ValidationError lists every structural problem found in one request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns nil when there are no problems.
func NewValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
