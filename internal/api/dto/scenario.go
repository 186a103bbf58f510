package dto

import (
	"fleet-route-optimizer/internal/domain"
	"time"
)

type CreateScenarioRequest struct {
	Name                string                     `json:"name"`
	Description         string                     `json:"description"`
	InputData           *domain.InputDocument      `json:"input_data"`
	OptimizationResults *domain.OptimizationResult `json:"optimization_results"`
}

// UpdateScenarioRequest is a partial update; omitted fields keep their value.
type UpdateScenarioRequest struct {
	Name                *string                    `json:"name"`
	Description         *string                    `json:"description"`
	InputData           *domain.InputDocument      `json:"input_data"`
	OptimizationResults *domain.OptimizationResult `json:"optimization_results"`
}

func (u UpdateScenarioRequest) Patch() domain.ScenarioPatch {
	return domain.ScenarioPatch{
		Name:                u.Name,
		Description:         u.Description,
		InputData:           u.InputData,
		OptimizationResults: u.OptimizationResults,
	}
}

type ScenarioResponse struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Description         string                     `json:"description"`
	InputData           domain.InputDocument       `json:"input_data"`
	OptimizationResults *domain.OptimizationResult `json:"optimization_results"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

func NewScenarioResponse(s *domain.Scenario) ScenarioResponse {
	return ScenarioResponse{
		ID:                  s.ID,
		Name:                s.Name,
		Description:         s.Description,
		InputData:           s.InputData,
		OptimizationResults: s.OptimizationResults,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

type CompareResponse struct {
	Scenarios         []ScenarioResponse        `json:"scenarios"`
	ComparisonMetrics []domain.ComparisonMetric `json:"comparison_metrics"`
}
