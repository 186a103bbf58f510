package solver

import (
	"container/heap"
	"context"
	"errors"
	"fleet-route-optimizer/internal/milp"
	"fmt"
	"math"
)

// ErrNodeLimit is returned when branch-and-bound explores its node budget
// without proving optimality.
var ErrNodeLimit = errors.New("branch and bound: node limit reached")

const (
	integralityTol = 1e-6
	pruneTol       = 1e-9
	// Try the rounding heuristic on every roundingInterval-th branched node.
	roundingInterval = 8
)

// BranchBound solves MILPs by best-bound branch-and-bound over LP
// relaxations solved with gonum's simplex.
//
// An incumbent is seeded at the root by rounding integer variables up and
// re-solving the LP with them fixed, which is always feasible on covering
// models such as truck allocation. When every objective term is an integer
// multiple of a common step, node bounds are rounded up to that step.
type BranchBound struct {
	NodeLimit int
}

func NewBranchBound(nodeLimit int) *BranchBound {
	return &BranchBound{NodeLimit: nodeLimit}
}

func (b *BranchBound) Name() string { return "simplex" }

type bbNode struct {
	lo    []float64
	hi    []float64
	x     []float64
	bound float64
	depth int
	// branchVar is the integer variable this node splits on.
	branchVar int
}

// nodeQueue pops the lowest bound first, deeper nodes first on ties.
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].depth > q[j].depth
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// search holds the state of one Solve call.
type search struct {
	model *milp.Model
	rel   *relaxation
	// step is the objective lattice, 0 when the objective has none.
	step  float64
	best  float64
	bestX []float64
}

// Solve returns the proven optimum, StatusInfeasible or StatusUnbounded.
// The context is checked between nodes.
func (b *BranchBound) Solve(ctx context.Context, m *milp.Model) (milp.Solution, error) {
	if err := m.Validate(); err != nil {
		return milp.Solution{}, fmt.Errorf("branch and bound: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return milp.Solution{}, fmt.Errorf("branch and bound: %w", err)
	}

	n := len(m.Vars)
	lo, hi := make([]float64, n), make([]float64, n)
	for j, v := range m.Vars {
		hi[j] = v.Upper
		if v.Kind == milp.Integer && !math.IsInf(v.Upper, 1) {
			hi[j] = math.Floor(v.Upper + integralityTol)
		}
	}

	s := &search{model: m, rel: newRelaxation(m), step: objectiveStep(m), best: math.Inf(1)}

	root, status, err := s.evaluate(lo, hi, 0)
	if err != nil {
		return milp.Solution{}, fmt.Errorf("branch and bound: root: %w", err)
	}
	switch status {
	case lpInfeasible:
		return milp.Solution{Status: milp.StatusInfeasible}, nil
	case lpUnbounded:
		return milp.Solution{Status: milp.StatusUnbounded}, nil
	}

	queue := &nodeQueue{}
	if err := s.visit(queue, root); err != nil {
		return milp.Solution{}, fmt.Errorf("branch and bound: root: %w", err)
	}
	if len(*queue) > 0 {
		if err := s.roundUp(root); err != nil {
			return milp.Solution{}, fmt.Errorf("branch and bound: root: %w", err)
		}
	}

	nodes := 1
	for branched := 0; queue.Len() > 0; branched++ {
		if err := ctx.Err(); err != nil {
			return milp.Solution{}, fmt.Errorf("branch and bound: %w", err)
		}

		node := heap.Pop(queue).(*bbNode)
		if s.pruned(node.bound) {
			// Every queued node has a bound at least this large.
			break
		}

		for _, child := range branch(node, node.branchVar) {
			if b.NodeLimit > 0 && nodes >= b.NodeLimit {
				return milp.Solution{}, fmt.Errorf("%w (%d nodes)", ErrNodeLimit, nodes)
			}
			nodes++

			cn, status, err := s.evaluate(child.lo, child.hi, node.depth+1)
			if err != nil {
				return milp.Solution{}, fmt.Errorf("branch and bound: node %d: %w", nodes, err)
			}
			switch status {
			case lpInfeasible:
				continue
			case lpUnbounded:
				// A child relaxation can only be unbounded if the root is.
				return milp.Solution{Status: milp.StatusUnbounded}, nil
			}
			if err := s.visit(queue, cn); err != nil {
				return milp.Solution{}, fmt.Errorf("branch and bound: node %d: %w", nodes, err)
			}
		}

		if branched%roundingInterval == roundingInterval-1 {
			if err := s.roundUp(node); err != nil {
				return milp.Solution{}, fmt.Errorf("branch and bound: node %d: %w", nodes, err)
			}
		}
	}

	if s.bestX == nil {
		return milp.Solution{Status: milp.StatusInfeasible}, nil
	}

	return milp.Solution{
		Status:    milp.StatusOptimal,
		Values:    s.bestX,
		Objective: s.best,
	}, nil
}

// evaluate solves the relaxation over [lo, hi].
func (s *search) evaluate(lo, hi []float64, depth int) (*bbNode, lpStatus, error) {
	x, f, status, err := s.rel.solve(lo, hi)
	if err != nil || status != lpOptimal {
		return nil, status, err
	}
	return &bbNode{lo: lo, hi: hi, x: x, bound: s.lattice(f), depth: depth}, lpOptimal, nil
}

// visit offers an integral node as an incumbent and queues a fractional one.
// A node that is integral only within tolerance and whose rounding is
// infeasible is queued for branching on its nearest-to-integral variable.
func (s *search) visit(queue *nodeQueue, node *bbNode) error {
	if s.pruned(node.bound) {
		return nil
	}
	node.branchVar = mostFractional(s.model, node.x, integralityTol)
	if node.branchVar < 0 {
		ok, err := s.accept(node.x, node.lo, node.hi)
		if err != nil || ok {
			return err
		}
		if node.branchVar = mostFractional(s.model, node.x, 0); node.branchVar < 0 {
			return nil
		}
	}
	heap.Push(queue, node)
	return nil
}

// accept fixes the integer variables of x at their rounded values and
// re-solves the LP, so the continuous values respect the rounded integers
// exactly. It reports false when the rounded point is infeasible.
func (s *search) accept(x, lo, hi []float64) (bool, error) {
	flo, fhi := clone(lo), clone(hi)
	for j, v := range s.model.Vars {
		if v.Kind == milp.Integer {
			r := math.Round(x[j])
			flo[j], fhi[j] = r, r
		}
	}
	return s.tryFixed(flo, fhi)
}

// roundUp rounds the integer variables of node up, clipped to the node's
// bounds, and offers the result when the LP with them fixed is feasible.
func (s *search) roundUp(node *bbNode) error {
	flo, fhi := clone(node.lo), clone(node.hi)
	for j, v := range s.model.Vars {
		if v.Kind != milp.Integer {
			continue
		}
		r := math.Min(math.Ceil(node.x[j]-integralityTol), node.hi[j])
		r = math.Max(r, node.lo[j])
		flo[j], fhi[j] = r, r
	}
	_, err := s.tryFixed(flo, fhi)
	return err
}

// tryFixed solves the LP with every integer variable fixed by lo == hi and
// keeps the result if it beats the incumbent.
func (s *search) tryFixed(lo, hi []float64) (bool, error) {
	x, _, status, err := s.rel.solve(lo, hi)
	if err != nil || status != lpOptimal {
		return false, err
	}
	x = snap(s.model, x)
	if f := s.model.ObjectiveValue(x); !s.pruned(f) {
		s.best = f
		s.bestX = x
	}
	return true, nil
}

// lattice rounds an LP bound up to the next achievable objective value.
func (s *search) lattice(f float64) float64 {
	if s.step <= 0 {
		return f
	}
	return math.Ceil(f/s.step-integralityTol) * s.step
}

// pruned reports whether bound cannot improve on the incumbent.
func (s *search) pruned(bound float64) bool {
	if s.bestX == nil {
		return false
	}
	return bound >= s.best-pruneTol*math.Max(1, math.Abs(s.best))
}

// branch splits node on variable j into the rounded-up and rounded-down children.
func branch(node *bbNode, j int) []bbNode {
	up := bbNode{lo: clone(node.lo), hi: clone(node.hi)}
	up.lo[j] = math.Ceil(node.x[j])
	down := bbNode{lo: clone(node.lo), hi: clone(node.hi)}
	down.hi[j] = math.Floor(node.x[j])
	return []bbNode{up, down}
}

// objectiveStep returns the largest step every achievable objective value is a
// multiple of: the gcd of the objective coefficients when they all sit on
// integer variables and are integers, else 0.
func objectiveStep(m *milp.Model) float64 {
	var g int64
	for _, t := range m.Objective {
		if m.Vars[t.Var].Kind != milp.Integer {
			return 0
		}
		c := math.Abs(t.Coef)
		if c != math.Trunc(c) || c > 1<<53 {
			return 0
		}
		g = gcd(g, int64(c))
	}
	return float64(g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// mostFractional returns the integer variable farthest from an integer value,
// or -1 when every integer variable is within tol of one.
func mostFractional(m *milp.Model, x []float64, tol float64) int {
	bestIdx := -1
	bestDist := tol
	for j, v := range m.Vars {
		if v.Kind != milp.Integer {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			bestDist = dist
			bestIdx = j
		}
	}
	return bestIdx
}

// snap rounds integer variables and clears solver noise below zero.
// Callers pass points whose integer variables were fixed, so rounding moves
// nothing a constraint can see.
func snap(m *milp.Model, x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if m.Vars[j].Kind == milp.Integer {
			v = math.Round(v)
		}
		if v < 0 && v > -integralityTol {
			v = 0
		}
		out[j] = v
	}
	return out
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
