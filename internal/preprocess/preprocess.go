// Package preprocess applies a one-shot sequence of reversible problem
// reductions before the simplex driver starts iterating: fixed-variable
// elimination, singleton-row bound derivation, bound propagation, and
// geometric-mean scaling. The constraint matrix itself is never mutated
// (it is read-only input). Fixed-variable elimination and the computed
// scales are recorded in the returned Result; tightened bounds are written
// into lb/ub in place and the previous bounds are not kept.
package preprocess

import (
	"math"

	"github.com/gosimplex/rsimplex/sparse"
)

// Sense is a constraint's relational operator.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

// Result records every reduction Run performed, in enough detail for the
// caller to reconstruct an original-space solution afterward.
type Result struct {
	Infeasible bool

	Fixed      []bool
	FixedValue []float64
	// RHSAdjust[i] is Σ a_ij·FixedValue[j] over fixed j with a nonzero in
	// row i: the amount subtracted from the row's effective right-hand
	// side by folding fixed variables out of the active problem.
	RHSAdjust []float64
	// ObjConstant is the contribution fixed variables make to the
	// objective, to be added back after solving the reduced problem.
	ObjConstant float64

	RowScale []float64
	ColScale []float64

	Passes int
}

const defaultMaxPasses = 10

// Run executes the full reduction sequence against the given problem,
// tightening lb/ub in place and leaving obj and rhs untouched (their
// effective values are rhs[i]-RHSAdjust[i] and obj plus ObjConstant).
// maxPasses <= 0 defaults to 10.
func Run(a *sparse.Matrix, sense []Sense, rhs, lb, ub, obj []float64, fixTol, feasTol float64, maxPasses int) *Result {
	m, n := a.M, a.N
	res := &Result{
		Fixed:      make([]bool, n),
		FixedValue: make([]float64, n),
		RHSAdjust:  make([]float64, m),
	}

	for j := 0; j < n; j++ {
		if ub[j]-lb[j] < fixTol {
			v := (lb[j] + ub[j]) / 2
			res.Fixed[j] = true
			res.FixedValue[j] = v
			rows, vals := a.Col(j)
			for k, i := range rows {
				res.RHSAdjust[i] += vals[k] * v
			}
			res.ObjConstant += obj[j] * v
		}
	}

	csr := a.CSR()

	for i := 0; i < m; i++ {
		cols, vals := csr.Row(i)
		col, val, count := -1, 0.0, 0
		for k, c := range cols {
			if res.Fixed[c] {
				continue
			}
			count++
			col, val = c, vals[k]
			if count > 1 {
				break
			}
		}
		if count != 1 {
			continue
		}
		effRHS := rhs[i] - res.RHSAdjust[i]
		lo, hi := boundsForSense(sense[i], effRHS)
		derivedLb, derivedUb := math.Inf(-1), math.Inf(1)
		if val > 0 {
			derivedLb, derivedUb = lo/val, hi/val
		} else {
			derivedLb, derivedUb = hi/val, lo/val
		}
		if derivedLb > lb[col] {
			lb[col] = derivedLb
		}
		if derivedUb < ub[col] {
			ub[col] = derivedUb
		}
		if lb[col] > ub[col]+feasTol {
			res.Infeasible = true
			return res
		}
	}

	if maxPasses <= 0 {
		maxPasses = defaultMaxPasses
	}
	for pass := 0; pass < maxPasses; pass++ {
		res.Passes++
		changed := false
		for i := 0; i < m; i++ {
			cols, vals := csr.Row(i)
			lo, hi := boundsForSense(sense[i], rhs[i]-res.RHSAdjust[i])
			if tightenRow(cols, vals, lo, hi, lb, ub, res.Fixed) {
				changed = true
			}
		}
		for j := 0; j < n; j++ {
			if lb[j] > ub[j]+feasTol {
				res.Infeasible = true
				return res
			}
		}
		if !changed {
			break
		}
	}

	res.RowScale = make([]float64, m)
	for i := 0; i < m; i++ {
		_, vals := csr.Row(i)
		res.RowScale[i] = geometricScale(vals)
	}
	res.ColScale = make([]float64, n)
	for j := 0; j < n; j++ {
		_, vals := a.Col(j)
		res.ColScale[j] = geometricScale(vals)
	}

	return res
}

func boundsForSense(s Sense, r float64) (lo, hi float64) {
	switch s {
	case LE:
		return math.Inf(-1), r
	case GE:
		return r, math.Inf(1)
	default:
		return r, r
	}
}

// contribRange returns the [min, max] range of a·x as x ranges over
// [lbj, ubj].
func contribRange(a, lbj, ubj float64) (cmin, cmax float64) {
	if a >= 0 {
		return a * lbj, a * ubj
	}
	return a * ubj, a * lbj
}

// tightenRow derives a tighter lb/ub for each non-fixed variable in the
// row from the row's bound interval [lo, hi] and the activity range
// contributed by every other variable in the row.
func tightenRow(cols []int, vals []float64, lo, hi float64, lb, ub []float64, fixed []bool) bool {
	changed := false
	for idx, j := range cols {
		if fixed[j] {
			continue
		}
		a := vals[idx]
		var minExcl, maxExcl float64
		for k, c := range cols {
			if k == idx || fixed[c] {
				continue
			}
			cmin, cmax := contribRange(vals[k], lb[c], ub[c])
			minExcl += cmin
			maxExcl += cmax
		}
		if !math.IsInf(hi, 1) && !math.IsInf(minExcl, -1) {
			bound := (hi - minExcl) / a
			if a > 0 {
				if bound < ub[j] {
					ub[j] = bound
					changed = true
				}
			} else if bound > lb[j] {
				lb[j] = bound
				changed = true
			}
		}
		if !math.IsInf(lo, -1) && !math.IsInf(maxExcl, 1) {
			bound := (lo - maxExcl) / a
			if a > 0 {
				if bound > lb[j] {
					lb[j] = bound
					changed = true
				}
			} else if bound < ub[j] {
				ub[j] = bound
				changed = true
			}
		}
	}
	return changed
}

func geometricScale(vals []float64) float64 {
	minAbs, maxAbs := math.Inf(1), 0.0
	for _, v := range vals {
		av := math.Abs(v)
		if av == 0 {
			continue
		}
		if av < minAbs {
			minAbs = av
		}
		if av > maxAbs {
			maxAbs = av
		}
	}
	if maxAbs == 0 {
		return 1
	}
	s := 1 / math.Sqrt(minAbs*maxAbs)
	return clamp(s, 1e-6, 1e6)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
