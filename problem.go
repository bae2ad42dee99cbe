package rsimplex

import (
	"errors"
	"math"

	"github.com/gosimplex/rsimplex/sparse"
)

// Sense is a constraint row's relational operator.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

var (
	ErrNilMatrix   = errors.New("rsimplex: problem matrix is nil")
	ErrDimMismatch = errors.New("rsimplex: problem array length does not match A's dimensions")
	ErrBadSense    = errors.New("rsimplex: sense code out of range")
	ErrNonfinite   = errors.New("rsimplex: bound or objective coefficient is not finite or NaN")
)

// Problem is the solver's input: a sparse constraint matrix, per-variable
// bounds and objective coefficients, and per-row right-hand sides and
// senses. Every constraint is modeled as A_i·x + s_i = rhs_i with a
// per-row slack variable s_i whose own bounds encode the row's sense:
// s_i ∈ [0, +∞) for ≤, (−∞, 0] for ≥, {0} for =.
type Problem struct {
	A   *sparse.Matrix
	Lb  []float64
	Ub  []float64
	Obj []float64

	RHS   []float64
	Sense []Sense
}

// Validate checks the structural well-formedness the core requires
// before a solve: non-nil matrix, matching array lengths, valid sense
// codes, non-NaN bounds (infinite bounds are allowed) with lb ≤ ub (a
// crossed pair is reported as ErrDimMismatch), and a finite objective and
// rhs.
func (p *Problem) Validate() error {
	if p.A == nil {
		return ErrNilMatrix
	}
	n, m := p.A.N, p.A.M
	if len(p.Lb) != n || len(p.Ub) != n || len(p.Obj) != n {
		return ErrDimMismatch
	}
	if len(p.RHS) != m || len(p.Sense) != m {
		return ErrDimMismatch
	}
	for _, s := range p.Sense {
		if s != LE && s != GE && s != EQ {
			return ErrBadSense
		}
	}
	for j := 0; j < n; j++ {
		if math.IsNaN(p.Lb[j]) || math.IsNaN(p.Ub[j]) || math.IsNaN(p.Obj[j]) || math.IsInf(p.Obj[j], 0) {
			return ErrNonfinite
		}
		if p.Lb[j] > p.Ub[j] {
			return ErrDimMismatch
		}
	}
	for i := 0; i < m; i++ {
		if math.IsNaN(p.RHS[i]) || math.IsInf(p.RHS[i], 0) {
			return ErrNonfinite
		}
	}
	return nil
}

// NumStructural returns n, the number of structural variables.
func (p *Problem) NumStructural() int { return p.A.N }

// NumRows returns m, the number of constraint rows (and slack variables).
func (p *Problem) NumRows() int { return p.A.M }

// NumVars returns n+m, the size of the augmented [A | I] variable space
// the core's basis and pricing operate over.
func (p *Problem) NumVars() int { return p.A.N + p.A.M }

// Column returns the column of [A | I] for variable v: A's column j for
// j < n, or the unit column e_{v-n} for a slack variable.
func (p *Problem) Column(v int) (rows []int, vals []float64) {
	n := p.A.N
	if v < n {
		return p.A.Col(v)
	}
	return []int{v - n}, []float64{1}
}

// SlackBounds returns the bounds of row i's slack variable, derived from
// the row's sense.
func (p *Problem) SlackBounds(i int) (lb, ub float64) {
	switch p.Sense[i] {
	case LE:
		return 0, math.Inf(1)
	case GE:
		return math.Inf(-1), 0
	default:
		return 0, 0
	}
}
