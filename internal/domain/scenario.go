package domain

import "time"

// Scenario is a named input document, optionally with the last result computed for it.
type Scenario struct {
	ID                  string
	Name                string
	Description         string
	InputData           InputDocument
	OptimizationResults *OptimizationResult
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ScenarioPatch carries the fields of a partial scenario update; nil fields are left unchanged.
type ScenarioPatch struct {
	Name                *string
	Description         *string
	InputData           *InputDocument
	OptimizationResults *OptimizationResult
}

// Apply copies the set fields of p onto s.
func (p ScenarioPatch) Apply(s *Scenario) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.InputData != nil {
		s.InputData = *p.InputData
	}
	if p.OptimizationResults != nil {
		s.OptimizationResults = p.OptimizationResults
	}
}

// ComparisonMetric is the headline of one scenario in a side-by-side comparison.
type ComparisonMetric struct {
	ScenarioID      string  `json:"scenario_id"`
	ScenarioName    string  `json:"scenario_name"`
	TotalCost       float64 `json:"total_cost"`
	TotalTrucks     float64 `json:"total_trucks"`
	RoutesOptimized int     `json:"routes_optimized"`
	CapacityUsed    float64 `json:"capacity_used"`
}

// Metric summarizes s. A scenario without results reports zeros.
func (s Scenario) Metric() ComparisonMetric {
	m := ComparisonMetric{ScenarioID: s.ID, ScenarioName: s.Name}
	if r := s.OptimizationResults; r != nil {
		m.TotalCost = r.SummaryMetrics.TotalCost
		m.TotalTrucks = r.SummaryMetrics.TotalTrucks
		m.RoutesOptimized = r.SummaryMetrics.RoutesOptimized
		m.CapacityUsed = r.SummaryMetrics.TotalCapacityUsed
	}
	return m
}
