package services

import (
	"context"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/milp"
	"fleet-route-optimizer/internal/platform/obs"
	"fmt"
	"log"
	"math"
)

// Solved values at or below this are treated as zero.
const selectionTolerance = 1e-6

// ExtractResult turns an optimal solution of am into the output document.
//
// Deliveries above a city's demand are trimmed, later options first. Options
// that dispatch trucks but deliver nothing are dropped with a warning.
// Missing city coordinates sequence as (0, 0) and are left out of
// CityCoordinates.
func ExtractResult(
	ctx context.Context,
	doc domain.InputDocument,
	am *AllocationModel,
	sol milp.Solution,
) (*domain.OptimizationResult, error) {
	if !sol.IsOptimal() {
		return nil, fmt.Errorf("extract result: solution status %s: %w", sol.Status, domain.ErrInternal)
	}
	if len(sol.Values) != len(am.Model.Vars) {
		return nil, fmt.Errorf(
			"extract result: solution has %d values for %d variables: %w",
			len(sol.Values), len(am.Model.Vars), domain.ErrInternal,
		)
	}
	for i, v := range sol.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < -selectionTolerance {
			return nil, fmt.Errorf(
				"extract result: variable %s has invalid value %v: %w",
				am.Model.Vars[i].Name, v, domain.ErrInternal,
			)
		}
	}
	if math.IsNaN(sol.Objective) || math.IsInf(sol.Objective, 0) {
		return nil, fmt.Errorf("extract result: objective is %v: %w", sol.Objective, domain.ErrInternal)
	}

	cities := make(map[string]domain.City, len(doc.Cities))
	coordinates := make(map[string][2]float64)
	totalDemand := 0.0
	for _, c := range doc.Cities {
		cities[c.ID] = c
		totalDemand += c.Demand

		coords, ok := c.Coordinates()
		if !ok {
			continue
		}
		if !coords.IsFinite() {
			return nil, fmt.Errorf("extract result: city %q has non-finite coordinates: %w", c.ID, domain.ErrInternal)
		}
		coordinates[c.ID] = coords.LatLong()
	}

	result := &domain.OptimizationResult{
		TotalCost:       round2(sol.Objective),
		RoutesSelected:  []domain.Allocation{},
		CityCoordinates: coordinates,
	}

	quantities := trimSurplus(am, sol, cities)

	totalTrucks := 0.0
	totalCapacityUsed := 0.0
	citiesServed := 0

	for i, opt := range am.Options {
		trucks := sol.Value(am.TruckVars[i])
		if trucks <= selectionTolerance {
			continue
		}

		deliveries := []domain.CityDelivery{}
		stops := []SequenceStop{}
		delivered := 0.0
		for _, city := range am.Members[i] {
			qty := quantities[i][city]
			if qty <= selectionTolerance {
				continue
			}
			deliveries = append(deliveries, domain.CityDelivery{
				City:     city,
				Quantity: round2(qty),
				Demand:   cities[city].Demand,
			})
			delivered += qty

			coords, _ := cities[city].Coordinates()
			stops = append(stops, SequenceStop{City: city, Coords: coords})
		}

		if len(deliveries) == 0 {
			log.Printf(
				"req_id=%s warn=allocation_without_deliveries route=%s truck_type=%s trucks=%.2f",
				obs.RequestID(ctx), opt.RouteID, opt.TruckType, trucks,
			)
			continue
		}

		trucksUsed := round2(trucks)
		utilization := 0.0
		if denom := trucksUsed * float64(opt.Capacity); denom > 0 {
			utilization = round2(delivered / denom * 100)
		}

		result.RoutesSelected = append(result.RoutesSelected, domain.Allocation{
			RouteID:             opt.RouteID,
			TruckType:           opt.TruckType,
			TrucksUsed:          trucksUsed,
			Capacity:            opt.Capacity,
			CostPerTruck:        opt.Cost,
			TotalCost:           round2(float64(opt.Cost) * trucks),
			CitiesDelivered:     deliveries,
			SortedCities:        NearestNeighborOrder(stops, "", nil),
			TotalDelivered:      round2(delivered),
			CapacityUtilization: utilization,
		})

		totalTrucks += trucksUsed
		totalCapacityUsed += delivered
		citiesServed += len(deliveries)
	}

	result.SummaryMetrics = domain.Summary{
		TotalCost:         result.TotalCost,
		TotalTrucks:       round2(totalTrucks),
		TotalDemand:       totalDemand,
		TotalCapacityUsed: round2(totalCapacityUsed),
		RoutesOptimized:   len(result.RoutesSelected),
		CitiesServed:      citiesServed,
	}

	return result, nil
}

// trimSurplus returns the delivered quantity per option and city with any
// amount above the city's demand removed.
func trimSurplus(am *AllocationModel, sol milp.Solution, cities map[string]domain.City) []map[string]float64 {
	quantities := make([]map[string]float64, len(am.Options))
	received := make(map[string]float64, len(cities))
	for i := range am.Options {
		quantities[i] = make(map[string]float64, len(am.Members[i]))
		for _, city := range am.Members[i] {
			qty := math.Max(sol.Value(am.DeliveryVars[i][city]), 0)
			quantities[i][city] = qty
			received[city] += qty
		}
	}

	for i := len(am.Options) - 1; i >= 0; i-- {
		for _, city := range am.Members[i] {
			surplus := received[city] - cities[city].Demand
			if surplus <= 0 {
				continue
			}
			cut := math.Min(surplus, quantities[i][city])
			quantities[i][city] -= cut
			received[city] -= cut
		}
	}
	return quantities
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
