package ports

import (
	"context"
	"fleet-route-optimizer/internal/domain"
)

// Port: named scenario persistence. Missing ids yield domain.ErrNotFound.
type ScenarioRepository interface {
	// List scenarios, most recently updated first.
	ListScenarios(ctx context.Context) ([]*domain.Scenario, error)
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)
	CreateScenario(ctx context.Context, s *domain.Scenario) error
	// Replace every stored field of an existing scenario.
	UpdateScenario(ctx context.Context, s *domain.Scenario) error
	DeleteScenario(ctx context.Context, id string) error
}
