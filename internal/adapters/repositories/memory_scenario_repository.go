package repositories

import (
	"context"
	"encoding/json"
	"fleet-route-optimizer/internal/domain"
	"fmt"
	"sort"
	"sync"
)

// MemoryScenarioRepository keeps scenarios in process memory. Scenarios are
// deep-copied on the way in and out so callers never share state with the store.
type MemoryScenarioRepository struct {
	mu        sync.RWMutex
	scenarios map[string]*domain.Scenario
}

func NewMemoryScenarioRepository() *MemoryScenarioRepository {
	return &MemoryScenarioRepository{scenarios: make(map[string]*domain.Scenario)}
}

func (m *MemoryScenarioRepository) ListScenarios(ctx context.Context) ([]*domain.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		c, err := cloneScenario(s)
		if err != nil {
			return nil, fmt.Errorf("list scenarios: %w", err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryScenarioRepository) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("get scenario %s: %w", id, domain.ErrNotFound)
	}
	return cloneScenario(s)
}

func (m *MemoryScenarioRepository) CreateScenario(ctx context.Context, s *domain.Scenario) error {
	c, err := cloneScenario(s)
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[s.ID]; ok {
		return fmt.Errorf("create scenario %s: id already exists", s.ID)
	}
	m.scenarios[s.ID] = c
	return nil
}

func (m *MemoryScenarioRepository) UpdateScenario(ctx context.Context, s *domain.Scenario) error {
	c, err := cloneScenario(s)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.scenarios[s.ID]
	if !ok {
		return fmt.Errorf("update scenario %s: %w", s.ID, domain.ErrNotFound)
	}
	c.CreatedAt = existing.CreatedAt
	m.scenarios[s.ID] = c
	return nil
}

func (m *MemoryScenarioRepository) DeleteScenario(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[id]; !ok {
		return fmt.Errorf("delete scenario %s: %w", id, domain.ErrNotFound)
	}
	delete(m.scenarios, id)
	return nil
}

// cloneScenario copies the documents through JSON, matching what the
// Postgres repository stores.
func cloneScenario(s *domain.Scenario) (*domain.Scenario, error) {
	out := *s

	raw, err := json.Marshal(s.InputData)
	if err != nil {
		return nil, fmt.Errorf("clone input_data: %w", err)
	}
	out.InputData = domain.InputDocument{}
	if err := json.Unmarshal(raw, &out.InputData); err != nil {
		return nil, fmt.Errorf("clone input_data: %w", err)
	}

	if s.OptimizationResults != nil {
		raw, err := json.Marshal(s.OptimizationResults)
		if err != nil {
			return nil, fmt.Errorf("clone optimization_results: %w", err)
		}
		out.OptimizationResults = &domain.OptimizationResult{}
		if err := json.Unmarshal(raw, out.OptimizationResults); err != nil {
			return nil, fmt.Errorf("clone optimization_results: %w", err)
		}
	}
	return &out, nil
}
