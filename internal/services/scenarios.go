package services

import (
	"context"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScenarioService manages named scenarios and runs the optimizer on them.
type ScenarioService struct {
	repo      ports.ScenarioRepository
	optimizer ports.Optimizer
	now       func() time.Time
}

func NewScenarioService(repo ports.ScenarioRepository, optimizer ports.Optimizer) *ScenarioService {
	return &ScenarioService{
		repo:      repo,
		optimizer: optimizer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Comparison is a side-by-side view of several scenarios.
type Comparison struct {
	Scenarios []*domain.Scenario
	Metrics   []domain.ComparisonMetric
}

func (s *ScenarioService) List(ctx context.Context) ([]*domain.Scenario, error) {
	list, err := s.repo.ListScenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return list, nil
}

func (s *ScenarioService) Get(ctx context.Context, id string) (*domain.Scenario, error) {
	sc, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get scenario %q: %w", id, err)
	}
	return sc, nil
}

// Create stores a new scenario, assigning its id and timestamps.
func (s *ScenarioService) Create(ctx context.Context, sc domain.Scenario) (_ *domain.Scenario, err error) {
	defer obs.Time(ctx, "create_scenario")(&err)

	if strings.TrimSpace(sc.Name) == "" {
		return nil, fmt.Errorf("create scenario: %w", domain.NewValidationError([]string{"name must be non-empty"}))
	}

	now := s.now()
	sc.ID = uuid.NewString()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	if err := s.repo.CreateScenario(ctx, &sc); err != nil {
		return nil, fmt.Errorf("create scenario: %w", err)
	}
	return &sc, nil
}

// Update applies a partial update to an existing scenario.
func (s *ScenarioService) Update(ctx context.Context, id string, patch domain.ScenarioPatch) (_ *domain.Scenario, err error) {
	defer obs.Time(ctx, "update_scenario")(&err)

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("update scenario: %w", domain.NewValidationError([]string{"name must be non-empty"}))
	}

	sc, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update scenario %q: %w", id, err)
	}

	patch.Apply(sc)
	sc.UpdatedAt = s.now()

	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, fmt.Errorf("update scenario %q: %w", id, err)
	}
	return sc, nil
}

func (s *ScenarioService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteScenario(ctx, id); err != nil {
		return fmt.Errorf("delete scenario %q: %w", id, err)
	}
	return nil
}

// Duplicate copies a scenario's input and results under a new id.
// An empty newName yields "Copy of <name>".
func (s *ScenarioService) Duplicate(ctx context.Context, id, newName string) (*domain.Scenario, error) {
	src, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("duplicate scenario %q: %w", id, err)
	}

	name := strings.TrimSpace(newName)
	if name == "" {
		name = "Copy of " + src.Name
	}

	dup, err := s.Create(ctx, domain.Scenario{
		Name:                name,
		Description:         src.Description,
		InputData:           src.InputData,
		OptimizationResults: src.OptimizationResults,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate scenario %q: %w", id, err)
	}
	return dup, nil
}

// Compare loads at least two scenarios and summarizes each.
func (s *ScenarioService) Compare(ctx context.Context, ids []string) (*Comparison, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("compare scenarios: %w",
			domain.NewValidationError([]string{fmt.Sprintf("need at least 2 scenario ids, got %d", len(ids))}))
	}

	cmp := &Comparison{
		Scenarios: make([]*domain.Scenario, 0, len(ids)),
		Metrics:   make([]domain.ComparisonMetric, 0, len(ids)),
	}
	for _, id := range ids {
		sc, err := s.repo.GetScenario(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("compare scenarios: %q: %w", id, err)
		}
		cmp.Scenarios = append(cmp.Scenarios, sc)
		cmp.Metrics = append(cmp.Metrics, sc.Metric())
	}
	return cmp, nil
}

// Optimize runs the optimizer on a stored scenario and saves the result on it.
func (s *ScenarioService) Optimize(ctx context.Context, id string) (_ *domain.Scenario, err error) {
	defer obs.Time(ctx, "optimize_scenario")(&err)

	sc, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("optimize scenario %q: %w", id, err)
	}

	res, err := s.optimizer.Optimize(ctx, sc.InputData)
	if err != nil {
		return nil, fmt.Errorf("optimize scenario %q: %w", id, err)
	}

	sc.OptimizationResults = res
	sc.UpdatedAt = s.now()
	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, fmt.Errorf("optimize scenario %q: save results: %w", id, err)
	}
	return sc, nil
}
