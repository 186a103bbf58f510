package services

import (
	"context"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fleet-route-optimizer/internal/ports"
	"fmt"
	"log"
)

// FillMissingCoordinates geocodes every city of doc that lacks a latitude or
// longitude and stores what resolves. Cities that cannot be resolved keep
// empty coordinates. It returns the number of cities filled in.
func FillMissingCoordinates(ctx context.Context, geocoder ports.Geocoder, doc *domain.InputDocument) (_ int, err error) {
	defer obs.Time(ctx, "fill_missing_coordinates")(&err)

	if geocoder == nil {
		return 0, nil
	}

	missing := make([]string, 0)
	for _, c := range doc.Cities {
		if _, ok := c.Coordinates(); !ok {
			missing = append(missing, c.ID)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	resolved, err := geocoder.GeocodeMany(ctx, missing)
	if err != nil {
		return 0, fmt.Errorf("fill missing coordinates: %w", err)
	}

	filled := 0
	for i := range doc.Cities {
		c := &doc.Cities[i]
		if _, ok := c.Coordinates(); ok {
			continue
		}
		coords, ok := resolved[c.ID]
		if !ok || !coords.IsFinite() {
			log.Printf("req_id=%s warn=geocode_miss city=%q", obs.RequestID(ctx), c.ID)
			continue
		}
		c.SetCoordinates(coords)
		filled++
	}

	return filled, nil
}
