package domain

import "math"

// Immutable geographic coordinates (longitude, latitude) in degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lat, long], the order used by result documents.
func (c Coordinates) LatLong() [2]float64 { return [2]float64{c.Lat, c.Lon} }

// IsFinite reports whether both components are real numbers.
func (c Coordinates) IsFinite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lon) && !math.IsInf(c.Lon, 0)
}
