package services

import "fleet-route-optimizer/internal/domain"

// SequenceStop is a city to visit on one route.
type SequenceStop struct {
	City   string
	Coords domain.Coordinates
}

// DistanceFunc measures the distance between two stops.
type DistanceFunc func(a, b domain.Coordinates) float64

// GreatCircle is the default DistanceFunc.
func GreatCircle(a, b domain.Coordinates) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Order stops using a greedy nearest-neighbor walk.
//
// The walk starts at start when it is one of the stops, otherwise at the first
// stop. At each step it moves to the closest unvisited stop. Equal distances
// resolve to the lexicographically smaller city so the output is deterministic.
// It does not attempt an optimal tour.
//
// Duplicate cities are visited once. A nil dist uses GreatCircle.
func NearestNeighborOrder(stops []SequenceStop, start string, dist DistanceFunc) []string {
	if dist == nil {
		dist = GreatCircle
	}

	unique := make([]SequenceStop, 0, len(stops))
	seen := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		if _, ok := seen[s.City]; ok {
			continue
		}
		seen[s.City] = struct{}{}
		unique = append(unique, s)
	}

	if len(unique) == 0 {
		return []string{}
	}

	currentIdx := 0
	for i, s := range unique {
		if s.City == start {
			currentIdx = i
			break
		}
	}

	visited := make([]bool, len(unique))
	order := make([]string, 0, len(unique))

	visited[currentIdx] = true
	order = append(order, unique[currentIdx].City)

	for len(order) < len(unique) {
		current := unique[currentIdx].Coords

		bestIdx := -1
		var minDistance float64
		for i, s := range unique {
			if visited[i] {
				continue
			}
			d := dist(current, s.Coords)
			// Tie-breaker ensures deterministic ordering when distances are equal.
			if bestIdx == -1 || d < minDistance || (d == minDistance && s.City < unique[bestIdx].City) {
				minDistance = d
				bestIdx = i
			}
		}

		visited[bestIdx] = true
		order = append(order, unique[bestIdx].City)
		currentIdx = bestIdx
	}

	return order
}
