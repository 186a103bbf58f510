package milp

type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	}
	return "unknown"
}

// Solution is the outcome of a solve. Values and Objective are meaningful only
// when Status is StatusOptimal, in which case Values holds one entry per model variable.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
}

// IsOptimal returns true if the solution is proven optimal.
func (s Solution) IsOptimal() bool { return s.Status == StatusOptimal }

// Value returns the value of variable v, or 0 when out of range.
func (s Solution) Value(v int) float64 {
	if v < 0 || v >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}
