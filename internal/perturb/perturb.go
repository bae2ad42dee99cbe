// Package perturb applies small, seeded bound perturbations during the
// early iterations of the simplex method to break degenerate ties, and
// restores the original bounds before refinement.
package perturb

import (
	"math"

	"golang.org/x/exp/rand"
)

// State records the bounds Apply perturbed, so Remove can restore them
// exactly.
type State struct {
	active bool
	origLb []float64
	origUb []float64
}

// NewState allocates a perturbation state for n variables.
func NewState(n int) *State {
	return &State{origLb: make([]float64, n), origUb: make([]float64, n)}
}

// Active reports whether bounds are currently perturbed.
func (s *State) Active() bool { return s.active }

// Apply perturbs every finite bound in place: lb_j += ε_j, ub_j -= ε_j,
// with each ε_j drawn independently from [feasTol, 10·feasTol) using rnd,
// and saves the pre-perturbation bounds for Remove.
func (s *State) Apply(lb, ub []float64, feasTol float64, rnd *rand.Rand) {
	copy(s.origLb, lb)
	copy(s.origUb, ub)
	for j := range lb {
		if !math.IsInf(lb[j], -1) {
			lb[j] += feasTol + rnd.Float64()*9*feasTol
		}
	}
	for j := range ub {
		if !math.IsInf(ub[j], 1) {
			ub[j] -= feasTol + rnd.Float64()*9*feasTol
		}
	}
	s.active = true
}

// Remove restores the bounds captured by the last Apply. The caller must
// re-derive x_B with a fresh FTRAN against the current right-hand side
// afterward; Remove only touches the bound arrays.
func (s *State) Remove(lb, ub []float64) {
	if !s.active {
		return
	}
	copy(lb, s.origLb)
	copy(ub, s.origUb)
	s.active = false
}
