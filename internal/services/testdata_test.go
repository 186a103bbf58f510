package services

import (
	"context"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/milp"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
)

func ptr(f float64) *float64 { return &f }

// twoCityDoc: A(100) and B(50) on one route with a single truck option.
func twoCityDoc(capacity, cost int) domain.InputDocument {
	return domain.InputDocument{
		Cities: []domain.City{
			{ID: "A", Demand: 100, Lat: ptr(28.61), Long: ptr(77.20)},
			{ID: "B", Demand: 50, Lat: ptr(28.70), Long: ptr(77.10)},
		},
		Routes: map[string][]string{"R1": {"A", "B"}},
		RouteTruckOptions: []domain.RouteTruckOption{
			{RouteID: "R1", TruckType: "T20", Capacity: capacity, Cost: cost},
		},
	}
}

// countingSolver records Solve calls and returns a fixed answer.
type countingSolver struct {
	calls *atomic.Int32
	sol   milp.Solution
	err   error
}

func (s *countingSolver) Name() string { return "counting" }

func (s *countingSolver) Solve(ctx context.Context, m *milp.Model) (milp.Solution, error) {
	s.calls.Add(1)
	return s.sol, s.err
}

func countingFactory(calls *atomic.Int32, sol milp.Solution, err error) ports.SolverFactory {
	return func() (ports.Solver, error) {
		return &countingSolver{calls: calls, sol: sol, err: err}, nil
	}
}

var truckCatalog = []struct {
	name     string
	capacity int
	cost     int
}{
	{"Small", 40, 300},
	{"Medium", 80, 500},
	{"Large", 150, 850},
}

// randomDoc builds a feasible document: every city sits on at least one route,
// each route also picks up to two cities of other routes, and each route
// offers one or two truck types with costs on a 50 step.
func randomDoc(rng *rand.Rand, nCities, nRoutes int) domain.InputDocument {
	doc := domain.InputDocument{Routes: make(map[string][]string, nRoutes)}
	for i := range nCities {
		doc.Cities = append(doc.Cities, domain.City{
			ID:     fmt.Sprintf("C%02d", i),
			Demand: float64(rng.IntN(61)),
			Lat:    ptr(20 + rng.Float64()*10),
			Long:   ptr(70 + rng.Float64()*10),
		})
	}

	routeIDs := make([]string, nRoutes)
	for r := range routeIDs {
		routeIDs[r] = fmt.Sprintf("R%d", r+1)
	}
	for i, c := range rng.Perm(nCities) {
		id := routeIDs[i%nRoutes]
		doc.Routes[id] = append(doc.Routes[id], doc.Cities[c].ID)
	}
	for _, id := range routeIDs {
		for range rng.IntN(3) {
			city := doc.Cities[rng.IntN(nCities)].ID
			if !slices.Contains(doc.Routes[id], city) {
				doc.Routes[id] = append(doc.Routes[id], city)
			}
		}

		for _, k := range rng.Perm(len(truckCatalog))[:1+rng.IntN(2)] {
			tt := truckCatalog[k]
			doc.RouteTruckOptions = append(doc.RouteTruckOptions, domain.RouteTruckOption{
				RouteID:   id,
				TruckType: tt.name,
				Capacity:  tt.capacity,
				Cost:      tt.cost + 50*rng.IntN(4),
			})
		}
	}
	return doc
}
