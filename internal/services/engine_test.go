package services

import (
	"context"
	"errors"
	"fleet-route-optimizer/internal/adapters/solver"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/milp"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	factory, err := solver.NewFactory(solver.Options{Backend: "simplex", NodeLimit: 10000})
	require.NoError(t, err)
	return NewEngine(factory)
}

func TestEngineSingleTruck(t *testing.T) {
	res, err := newTestEngine(t).Optimize(context.Background(), twoCityDoc(200, 1000))
	require.NoError(t, err)

	require.Len(t, res.RoutesSelected, 1)
	alloc := res.RoutesSelected[0]
	assert.Equal(t, 1.0, alloc.TrucksUsed)
	assert.Equal(t, 150.0, alloc.TotalDelivered)
	assert.Equal(t, 1000.0, alloc.TotalCost)
	assert.Equal(t, 75.0, alloc.CapacityUtilization)
	assert.Equal(t, 1000.0, res.TotalCost)
}

func TestEngineDemandExceedsOneTruck(t *testing.T) {
	res, err := newTestEngine(t).Optimize(context.Background(), twoCityDoc(100, 1000))
	require.NoError(t, err)

	require.Len(t, res.RoutesSelected, 1)
	assert.Equal(t, 2.0, res.RoutesSelected[0].TrucksUsed)
	assert.Equal(t, 2000.0, res.TotalCost)
}

func TestEngineResultProperties(t *testing.T) {
	doc := domain.InputDocument{
		Cities: []domain.City{
			{ID: "Delhi", Demand: 120, Lat: ptr(28.61), Long: ptr(77.20)},
			{ID: "Agra", Demand: 80, Lat: ptr(27.17), Long: ptr(78.00)},
			{ID: "Jaipur", Demand: 60, Lat: ptr(26.91), Long: ptr(75.78)},
			{ID: "Kanpur", Demand: 0, Lat: ptr(26.44), Long: ptr(80.33)},
		},
		Routes: map[string][]string{
			"R1": {"Delhi", "Agra"},
			"R2": {"Delhi", "Jaipur"},
			"R3": {"Agra", "Jaipur", "Kanpur"},
		},
		RouteTruckOptions: []domain.RouteTruckOption{
			{RouteID: "R1", TruckType: "Small", Capacity: 100, Cost: 700},
			{RouteID: "R1", TruckType: "Large", Capacity: 250, Cost: 1500},
			{RouteID: "R2", TruckType: "Small", Capacity: 100, Cost: 650},
			{RouteID: "R3", TruckType: "Medium", Capacity: 150, Cost: 900},
		},
	}

	res, err := newTestEngine(t).Optimize(context.Background(), doc)
	require.NoError(t, err)

	assertResultProperties(t, doc, res)
	assert.Equal(t, 260.0, res.SummaryMetrics.TotalDemand)
	assert.Len(t, res.CityCoordinates, 4)
}

func TestEngineSharedCitiesAcrossRoutes(t *testing.T) {
	// R1 and R2 share C3..C6. Only R1 reaches C1 and C2, only R2 reaches C7
	// and C8, so the cheapest fleet is one truck on each route.
	demand := []float64{120, 90, 150, 60, 80, 110, 70, 100}
	doc := domain.InputDocument{
		Routes: map[string][]string{
			"R1": {"C1", "C2", "C3", "C4", "C5", "C6"},
			"R2": {"C3", "C4", "C5", "C6", "C7", "C8"},
		},
		RouteTruckOptions: []domain.RouteTruckOption{
			{RouteID: "R1", TruckType: "T500", Capacity: 500, Cost: 1000},
			{RouteID: "R2", TruckType: "T500", Capacity: 500, Cost: 1100},
		},
	}
	for i, d := range demand {
		doc.Cities = append(doc.Cities, domain.City{ID: fmt.Sprintf("C%d", i+1), Demand: d})
	}

	res, err := newTestEngine(t).Optimize(context.Background(), doc)
	require.NoError(t, err)
	assertResultProperties(t, doc, res)

	assert.Equal(t, 2100.0, res.TotalCost)
	require.Len(t, res.RoutesSelected, 2)
	for _, a := range res.RoutesSelected {
		assert.Equal(t, 1.0, a.TrucksUsed, "route %s", a.RouteID)
	}
	assert.Equal(t, 780.0, res.SummaryMetrics.TotalCapacityUsed)
}

func TestEngineInfeasible(t *testing.T) {
	// A zero-capacity truck can never carry the demand.
	_, err := newTestEngine(t).Optimize(context.Background(), twoCityDoc(0, 1000))
	require.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestEngineEmptyDocument(t *testing.T) {
	res, err := newTestEngine(t).Optimize(context.Background(), domain.InputDocument{})
	require.NoError(t, err)
	assert.Empty(t, res.RoutesSelected)
	assert.Equal(t, 0.0, res.TotalCost)
}

func TestEngineSolverFailures(t *testing.T) {
	var calls atomic.Int32

	_, err := NewEngine(nil).Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)

	failing := func() (ports.Solver, error) { return nil, errors.New("license expired") }
	_, err = NewEngine(failing).Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)

	_, err = NewEngine(countingFactory(&calls, milp.Solution{}, errors.New("boom"))).
		Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)

	_, err = NewEngine(countingFactory(&calls, milp.Solution{}, context.DeadlineExceeded)).
		Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrSolverUnavailable)

	_, err = NewEngine(countingFactory(&calls, milp.Solution{Status: milp.StatusUnbounded}, nil)).
		Optimize(context.Background(), twoCityDoc(200, 1000))
	assert.ErrorIs(t, err, domain.ErrInternal)

	assert.Equal(t, int32(3), calls.Load())
}

func cityNames(ds []domain.CityDelivery) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.City)
	}
	return out
}
