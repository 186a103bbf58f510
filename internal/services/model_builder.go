package services

import (
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/milp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// AllocationModel is a built MILP together with the index maps needed to read
// a solution back into route allocations.
type AllocationModel struct {
	Model   *milp.Model
	Options []domain.RouteTruckOption
	// Members[i] is the de-duplicated member list of Options[i]'s route.
	Members [][]string
	// TruckVars[i] is the TruckCount variable of Options[i].
	TruckVars []int
	// DeliveryVars[i][city] is the DeliveryQuantity variable of Options[i] for city.
	DeliveryVars []map[string]int
}

// ValidateInput reports every structural problem in doc as a single
// *domain.ValidationError, or nil when the document can be modeled.
func ValidateInput(doc domain.InputDocument) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	cities := make(map[string]domain.City, len(doc.Cities))
	for i, c := range doc.Cities {
		if strings.TrimSpace(c.ID) == "" {
			addf("cities[%d]: id must be non-empty", i)
			continue
		}
		if _, dup := cities[c.ID]; dup {
			addf("city %q: duplicate id", c.ID)
			continue
		}
		cities[c.ID] = c

		if math.IsNaN(c.Demand) || math.IsInf(c.Demand, 0) {
			addf("city %q: demand must be finite", c.ID)
		} else if c.Demand < 0 {
			addf("city %q: demand must be non-negative, got %v", c.ID, c.Demand)
		}
		if coords, ok := c.Coordinates(); ok && !coords.IsFinite() {
			addf("city %q: coordinates must be finite", c.ID)
		}
	}

	for _, routeID := range slices.Sorted(maps.Keys(doc.Routes)) {
		if strings.TrimSpace(routeID) == "" {
			addf("routes: route id must be non-empty")
		}
		for _, member := range doc.Routes[routeID] {
			if _, ok := cities[member]; !ok {
				addf("route %q: unknown city %q", routeID, member)
			}
		}
	}

	seen := make(map[string]struct{}, len(doc.RouteTruckOptions))
	servedRoutes := make(map[string]struct{}, len(doc.Routes))
	for i, o := range doc.RouteTruckOptions {
		if strings.TrimSpace(o.RouteID) == "" || strings.TrimSpace(o.TruckType) == "" {
			addf("route_truck_options[%d]: route_id and truck_type must be non-empty", i)
			continue
		}
		if _, ok := doc.Routes[o.RouteID]; !ok {
			addf("route_truck_options[%d]: unknown route %q", i, o.RouteID)
		} else {
			servedRoutes[o.RouteID] = struct{}{}
		}
		if _, dup := seen[o.Key()]; dup {
			addf("route_truck_options[%d]: duplicate option (%s, %s)", i, o.RouteID, o.TruckType)
		}
		seen[o.Key()] = struct{}{}

		if o.Capacity < 0 {
			addf("route_truck_options[%d]: capacity must be non-negative, got %d", i, o.Capacity)
		}
		if o.Cost < 0 {
			addf("route_truck_options[%d]: cost must be non-negative, got %d", i, o.Cost)
		}
	}

	covered := make(map[string]struct{}, len(cities))
	for routeID := range servedRoutes {
		for _, member := range doc.Routes[routeID] {
			covered[member] = struct{}{}
		}
	}
	for _, c := range doc.Cities {
		if c.Demand <= 0 {
			continue
		}
		if _, ok := covered[c.ID]; !ok {
			addf("city %q: demand %v is not covered by any route with a truck option", c.ID, c.Demand)
		}
	}

	return domain.NewValidationError(problems)
}

// BuildAllocationModel validates doc and translates it into a MILP:
//
//	minimize   sum_o cost_o * trucks_o
//	subject to sum_{o covers c} deliver_{o,c} >= demand_c        for every city c
//	           sum_{c in route(o)} deliver_{o,c} <= capacity_o * trucks_o
//	           trucks_o integer >= 0, deliver_{o,c} >= 0
//
// Demand rows are covering inequalities. Over-delivery never lowers the cost;
// ExtractResult trims any surplus the solver leaves.
func BuildAllocationModel(doc domain.InputDocument) (*AllocationModel, error) {
	if err := ValidateInput(doc); err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	m := milp.NewModel()
	am := &AllocationModel{
		Model:        m,
		Options:      slices.Clone(doc.RouteTruckOptions),
		Members:      make([][]string, len(doc.RouteTruckOptions)),
		TruckVars:    make([]int, len(doc.RouteTruckOptions)),
		DeliveryVars: make([]map[string]int, len(doc.RouteTruckOptions)),
	}

	coverage := make(map[string][]milp.Term, len(doc.Cities))

	for i, o := range am.Options {
		trucks := m.AddVar("trucks["+o.Key()+"]", milp.Integer)
		am.TruckVars[i] = trucks
		m.AddObjectiveTerm(trucks, float64(o.Cost))

		members := uniqueMembers(doc.Routes[o.RouteID])
		am.Members[i] = members
		am.DeliveryVars[i] = make(map[string]int, len(members))

		load := make([]milp.Term, 0, len(members)+1)
		for _, city := range members {
			y := m.AddVar("deliver["+o.Key()+"|"+city+"]", milp.Continuous)
			am.DeliveryVars[i][city] = y
			load = append(load, milp.Term{Var: y, Coef: 1})
			coverage[city] = append(coverage[city], milp.Term{Var: y, Coef: 1})
		}
		load = append(load, milp.Term{Var: trucks, Coef: -float64(o.Capacity)})
		m.AddConstraint("capacity["+o.Key()+"]", milp.LessOrEqual, 0, load...)
	}

	for _, c := range doc.Cities {
		if c.Demand <= 0 {
			continue
		}
		m.AddConstraint("demand["+c.ID+"]", milp.GreaterOrEqual, c.Demand, coverage[c.ID]...)
	}

	return am, nil
}

func uniqueMembers(members []string) []string {
	out := make([]string, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
