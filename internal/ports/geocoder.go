package ports

import (
	"context"
	"fleet-route-optimizer/internal/domain"
)

// Contract for resolving place names to coordinates.
type Geocoder interface {
	// Return coordinates for the names that could be resolved; unresolved names are absent.
	GeocodeMany(ctx context.Context, names []string) (map[string]domain.Coordinates, error)
}

// Persistent cache of geocoding results keyed by normalized query.
type GeocodeCache interface {
	GetMany(ctx context.Context, queries []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
