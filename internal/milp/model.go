// Package milp describes mixed-integer linear programs independently of any solver backend.
//
// Every variable is bounded below by zero. A model is built once per request and
// handed to a solver adapter; nothing in this package keeps global state.
package milp

import (
	"fmt"
	"math"
)

type VarKind int

const (
	Continuous VarKind = iota
	Integer
)

func (k VarKind) String() string {
	if k == Integer {
		return "integer"
	}
	return "continuous"
}

// Var is a decision variable with domain [0, Upper].
type Var struct {
	Name  string
	Kind  VarKind
	Upper float64
}

type Sense int

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Term is coef * var, where Var indexes Model.Vars.
type Term struct {
	Var  int
	Coef float64
}

type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model minimizes Objective subject to Constraints.
type Model struct {
	Vars        []Var
	Constraints []Constraint
	Objective   []Term
}

func NewModel() *Model {
	return &Model{}
}

// AddVar appends an unbounded-above variable and returns its index.
func (m *Model) AddVar(name string, kind VarKind) int {
	m.Vars = append(m.Vars, Var{Name: name, Kind: kind, Upper: math.Inf(1)})
	return len(m.Vars) - 1
}

// AddConstraint appends a constraint. Zero coefficients are dropped.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.Constraints = append(m.Constraints, Constraint{
		Name:  name,
		Terms: nonZero(terms),
		Sense: sense,
		RHS:   rhs,
	})
}

// AddObjectiveTerm adds coef * v to the minimization objective.
func (m *Model) AddObjectiveTerm(v int, coef float64) {
	if coef == 0 {
		return
	}
	m.Objective = append(m.Objective, Term{Var: v, Coef: coef})
}

// Validate checks that every term references an existing variable and every number is finite.
func (m *Model) Validate() error {
	check := func(where string, terms []Term) error {
		for _, t := range terms {
			if t.Var < 0 || t.Var >= len(m.Vars) {
				return fmt.Errorf("milp: %s references unknown variable %d", where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("milp: %s has non-finite coefficient for %q", where, m.Vars[t.Var].Name)
			}
		}
		return nil
	}

	for _, v := range m.Vars {
		if math.IsNaN(v.Upper) || v.Upper < 0 {
			return fmt.Errorf("milp: variable %q has invalid upper bound %v", v.Name, v.Upper)
		}
	}
	for _, c := range m.Constraints {
		if err := check("constraint "+c.Name, c.Terms); err != nil {
			return err
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("milp: constraint %s has non-finite right-hand side", c.Name)
		}
	}
	return check("objective", m.Objective)
}

// ObjectiveValue evaluates the objective at x.
func (m *Model) ObjectiveValue(x []float64) float64 {
	total := 0.0
	for _, t := range m.Objective {
		total += t.Coef * x[t.Var]
	}
	return total
}

func nonZero(terms []Term) []Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Coef != 0 {
			out = append(out, t)
		}
	}
	return out
}
