package domain

// RouteTruckOption is one truck type offered on one route.
// Capacity is in demand units per truck, Cost in currency per dispatched truck.
type RouteTruckOption struct {
	RouteID   string `json:"route_id" yaml:"route_id"`
	TruckType string `json:"truck_type" yaml:"truck_type"`
	Capacity  int    `json:"capacity" yaml:"capacity"`
	Cost      int    `json:"cost" yaml:"cost"`
}

// Key identifies the option within a request.
func (o RouteTruckOption) Key() string { return o.RouteID + "|" + o.TruckType }

// InputDocument is everything a single optimization request needs.
// Routes maps a route id to its member city ids; member order is the order
// cities are reported in, never a visiting order.
type InputDocument struct {
	Cities            []City              `json:"cities" yaml:"cities"`
	Routes            map[string][]string `json:"routes" yaml:"routes"`
	RouteTruckOptions []RouteTruckOption  `json:"route_truck_options" yaml:"route_truck_options"`
}

// TruckTypes returns the distinct truck type labels in first-seen order.
func (d InputDocument) TruckTypes() []string {
	seen := make(map[string]struct{}, len(d.RouteTruckOptions))
	out := make([]string, 0, len(d.RouteTruckOptions))
	for _, o := range d.RouteTruckOptions {
		if _, ok := seen[o.TruckType]; ok {
			continue
		}
		seen[o.TruckType] = struct{}{}
		out = append(out, o.TruckType)
	}
	return out
}
