package domain

// City is a delivery destination with a fixed demand for one optimization request.
// Coordinates are optional; ingestion may fill them by geocoding the city id.
type City struct {
	ID     string   `json:"id" yaml:"id"`
	Demand float64  `json:"demand" yaml:"demand"`
	Lat    *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Long   *float64 `json:"long,omitempty" yaml:"long,omitempty"`
}

// Coordinates returns the city location when both latitude and longitude are set.
func (c City) Coordinates() (Coordinates, bool) {
	if c.Lat == nil || c.Long == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *c.Lat, Lon: *c.Long}, true
}

// SetCoordinates stores a resolved location on the city.
func (c *City) SetCoordinates(coords Coordinates) {
	lat, long := coords.Lat, coords.Lon
	c.Lat = &lat
	c.Long = &long
}
