package domain

// CityDelivery is the quantity one route option delivers to one city.
type CityDelivery struct {
	City     string  `json:"city"`
	Quantity float64 `json:"quantity"`
	Demand   float64 `json:"demand"`
}

// Allocation is a route option selected by the optimizer.
// All derived figures are rounded to two decimals.
type Allocation struct {
	RouteID             string         `json:"route_id"`
	TruckType           string         `json:"truck_type"`
	TrucksUsed          float64        `json:"trucks_used"`
	Capacity            int            `json:"capacity"`
	CostPerTruck        int            `json:"cost_per_truck"`
	TotalCost           float64        `json:"total_cost"`
	CitiesDelivered     []CityDelivery `json:"cities_delivered"`
	SortedCities        []string       `json:"sorted_cities"`
	TotalDelivered      float64        `json:"total_delivered"`
	CapacityUtilization float64        `json:"capacity_utilization"`
}

// Summary aggregates every selected allocation.
type Summary struct {
	TotalCost         float64 `json:"total_cost"`
	TotalTrucks       float64 `json:"total_trucks"`
	TotalDemand       float64 `json:"total_demand"`
	TotalCapacityUsed float64 `json:"total_capacity_used"`
	RoutesOptimized   int     `json:"routes_optimized"`
	CitiesServed      int     `json:"cities_served"`
}

// OptimizationResult is the output document of one optimization request.
type OptimizationResult struct {
	TotalCost       float64               `json:"total_cost"`
	RoutesSelected  []Allocation          `json:"routes_selected"`
	SummaryMetrics  Summary               `json:"summary_metrics"`
	CityCoordinates map[string][2]float64 `json:"city_coordinates"`
}
