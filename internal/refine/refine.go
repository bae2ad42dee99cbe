// Package refine recomputes a clean, feasible primal solution and
// objective value from a basis once the simplex driver has declared
// optimality: a fresh FTRAN re-derivation of x_B, two to four iterative
// refinement steps, and bound-snapping.
package refine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ColumnProvider supplies the sparse column of the augmented matrix for a
// variable index, the same contract the basis package uses.
type ColumnProvider interface {
	Column(v int) (rows []int, vals []float64)
}

// FTRANer is the one basis operation refinement needs.
type FTRANer interface {
	FTRAN(a []float64) ([]float64, error)
}

// EffectiveRHS computes b − Σ_{j nonbasic} a_j·x_j, the right-hand side
// against which x_B = B⁻¹·b_eff should be solved.
func EffectiveRHS(rhs []float64, nonbasic []int, nonbasicValue func(v int) float64, provider ColumnProvider) []float64 {
	b := make([]float64, len(rhs))
	copy(b, rhs)
	for _, j := range nonbasic {
		x := nonbasicValue(j)
		if x == 0 {
			continue
		}
		rows, vals := provider.Column(j)
		for k, r := range rows {
			b[r] -= vals[k] * x
		}
	}
	return b
}

// basisTimes computes B·xB given the basic variable list and a column
// provider.
func basisTimes(basicVars []int, xB []float64, provider ColumnProvider) []float64 {
	out := make([]float64, len(xB))
	for col, v := range basicVars {
		rows, vals := provider.Column(v)
		for k, r := range rows {
			out[r] += vals[k] * xB[col]
		}
	}
	return out
}

// Refine performs up to maxSteps iterative refinement passes on xB in
// place: r = b − B·xB; solve B·dx = r via FTRAN; xB += dx.
func Refine(bas FTRANer, basicVars []int, provider ColumnProvider, b, xB []float64, maxSteps int) ([]float64, error) {
	for step := 0; step < maxSteps; step++ {
		bx := basisTimes(basicVars, xB, provider)
		r := make([]float64, len(b))
		for i := range r {
			r[i] = b[i] - bx[i]
		}
		dx, err := bas.FTRAN(r)
		if err != nil {
			return nil, err
		}
		for i := range xB {
			xB[i] += dx[i]
		}
	}
	return xB, nil
}

// Condition assembles the dense m x m matrix of the final basis's columns
// and returns its 2-norm condition number, which Run uses to choose how
// many refinement passes to make.
func Condition(basicVars []int, provider ColumnProvider, m int) float64 {
	if m == 0 {
		return 1
	}
	data := make([]float64, m*m)
	for col, v := range basicVars {
		rows, vals := provider.Column(v)
		for k, r := range rows {
			data[r*m+col] = vals[k]
		}
	}
	return mat.Cond(mat.NewDense(m, m, data), 2)
}

// stepsForCondition scales the number of iterative refinement passes to
// the basis's conditioning: two passes by default, three above a condition
// number of 1e6, four above 1e10.
func stepsForCondition(cond float64) int {
	switch {
	case cond > 1e10:
		return 4
	case cond > 1e6:
		return 3
	default:
		return 2
	}
}

const cleanZeroTol = 1e-12

// SnapBounds rounds each basic value to its bound when within feasTol, and
// cleans any remaining near-zero value to exactly zero.
func SnapBounds(xB []float64, basicVars []int, lb, ub []float64, feasTol float64) {
	for col, v := range basicVars {
		if math.Abs(xB[col]-lb[v]) < feasTol {
			xB[col] = lb[v]
		}
		if math.Abs(xB[col]-ub[v]) < feasTol {
			xB[col] = ub[v]
		}
		if math.Abs(xB[col]) < cleanZeroTol {
			xB[col] = 0
		}
	}
}

// Objective recomputes the objective value from the cleaned basic values
// and the nonbasic variables' starting values.
func Objective(obj []float64, basicVars []int, xB []float64, nonbasic []int, nonbasicValue func(v int) float64) float64 {
	var z float64
	for col, v := range basicVars {
		z += obj[v] * xB[col]
	}
	for _, j := range nonbasic {
		z += obj[j] * nonbasicValue(j)
	}
	return z
}

// Run is the full end-of-solve refinement pipeline: recompute x_B fresh,
// refine it, snap it to bounds, and recompute the objective.
func Run(bas FTRANer, provider ColumnProvider, basicVars, nonbasic []int, nonbasicValue func(v int) float64, rhs, lb, ub, obj []float64, feasTol float64) (xB []float64, objective float64, err error) {
	b := EffectiveRHS(rhs, nonbasic, nonbasicValue, provider)
	xB, err = bas.FTRAN(b)
	if err != nil {
		return nil, 0, err
	}
	steps := stepsForCondition(Condition(basicVars, provider, len(xB)))
	xB, err = Refine(bas, basicVars, provider, b, xB, steps)
	if err != nil {
		return nil, 0, err
	}
	SnapBounds(xB, basicVars, lb, ub, feasTol)
	objective = Objective(obj, basicVars, xB, nonbasic, nonbasicValue)
	return xB, objective, nil
}
