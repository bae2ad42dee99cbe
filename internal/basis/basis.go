// Package basis implements the revised-simplex basis: an LU factorization
// of some earlier basis composed with a chain of eta updates (product
// form of the inverse), exposing FTRAN, BTRAN, pivot update and
// refactorization.
package basis

import (
	"errors"
	"math"

	"github.com/gosimplex/rsimplex/internal/etastore"
	"github.com/gosimplex/rsimplex/internal/sparselu"
)

// Nonbasic status codes. Basic variables instead carry their row index
// (always ≥ 0) as their status.
const (
	AtLower = -1 - iota
	AtUpper
	Free
	Fixed
)

var (
	// ErrNotFactorized is returned by FTRAN/BTRAN if called before the
	// first Refactor.
	ErrNotFactorized = errors.New("basis: LU factorization is not valid")
	// ErrPivotTooSmall is returned by Pivot when the pivot element falls
	// below pivot_tol; the caller is expected to force a refactor and
	// retry.
	ErrPivotTooSmall = errors.New("basis: pivot element too small, refactor required")
	// ErrSingular is returned by Refactor when the selected basis is
	// numerically singular.
	ErrSingular = sparselu.ErrSingular
)

// Refactor trigger levels returned by RefactorCheck.
const (
	RefactorNotNeeded = iota
	RefactorRecommended
	RefactorRequired
)

// ColumnProvider supplies the sparse column of the augmented matrix
// [A | I] for a variable index: indices in [0, n) are structural columns
// of A, indices in [n, n+m) are unit slack columns. The basis package
// never touches A directly; it only ever asks for columns of currently
// basic (or, for FTRAN, currently entering) variables.
type ColumnProvider interface {
	Column(v int) (rows []int, vals []float64)
}

// Basis owns the current basis matrix B, represented as an LU
// factorization of an earlier basis B0 composed with an eta chain:
// B = B0 · E1 · ... · Ek.
type Basis struct {
	M int

	BasicVars []int // basic_vars[r] = variable occupying row r
	VarStatus []int // var_status[v] = row index if basic, else a Nonbasic* code

	lu   *sparselu.LU
	etas *etastore.Store

	EtaCount            int
	PivotsSinceRefactor int
	RefactorCount       int

	ftranCostEWMA     float64
	baselineFtranCost float64
}

// New creates an empty Basis for an m-row problem. Refactor must be
// called once with an initial basis before FTRAN/BTRAN/Pivot are used.
func New(m int, maxEtaMemory int64) *Basis {
	return &Basis{
		M:         m,
		BasicVars: make([]int, m),
		etas:      etastore.New(maxEtaMemory),
	}
}

// Validate checks the universal basis invariants: exactly m distinct
// variables are basic, and BasicVars/VarStatus are mutually consistent.
// Calling Validate twice without an intervening mutation returns the
// same verdict (it reads, never writes, basis state).
func (bas *Basis) Validate() bool {
	seen := make(map[int]bool, bas.M)
	for r, v := range bas.BasicVars {
		if v < 0 || v >= len(bas.VarStatus) {
			return false
		}
		if seen[v] {
			return false
		}
		seen[v] = true
		if bas.VarStatus[v] != r {
			return false
		}
	}
	count := 0
	for _, s := range bas.VarStatus {
		if s >= 0 {
			count++
		}
	}
	return count == bas.M
}

// Refactor rebuilds L, U, P, Q from the variables currently listed in
// BasicVars, empties the eta chain and resets the bookkeeping counters.
// It is fatal (ErrSingular) if the selected basis is numerically
// singular; the caller should treat that as NUMERICAL per the
// specification's failure semantics.
func (bas *Basis) Refactor(provider ColumnProvider, opts sparselu.Options) error {
	cols := make([]sparselu.Column, bas.M)
	for j, v := range bas.BasicVars {
		rows, vals := provider.Column(v)
		cols[j] = sparselu.Column{Row: rows, Val: vals}
	}
	lu, err := sparselu.Factorize(cols, bas.M, opts)
	bas.lu = lu
	if err != nil {
		return err
	}
	bas.etas.Reset()
	bas.EtaCount = 0
	bas.PivotsSinceRefactor = 0
	bas.ftranCostEWMA = 0
	bas.baselineFtranCost = 0
	bas.RefactorCount++
	return nil
}

// baseWork approximates the cost of one base LU solve, used only to seed
// and update the FTRAN cost EWMA that RefactorCheck consults.
func (bas *Basis) baseWork() float64 {
	if bas.lu == nil {
		return 0
	}
	return float64(len(bas.lu.LVal) + len(bas.lu.UVal) + bas.M)
}

func (bas *Basis) recordFtranWork() {
	cost := bas.baseWork() + float64(bas.etas.Len())
	if bas.baselineFtranCost == 0 {
		bas.baselineFtranCost = cost
	}
	const alpha = 0.2
	if bas.ftranCostEWMA == 0 {
		bas.ftranCostEWMA = cost
	} else {
		bas.ftranCostEWMA = alpha*cost + (1-alpha)*bas.ftranCostEWMA
	}
}

// FTRAN computes x ← B⁻¹·a: the base LU solve followed by the eta chain
// walked oldest to newest.
func (bas *Basis) FTRAN(a []float64) ([]float64, error) {
	if bas.lu == nil || !bas.lu.Valid {
		return nil, ErrNotFactorized
	}
	m := bas.M
	ap := make([]float64, m)
	for step := 0; step < m; step++ {
		ap[step] = a[bas.lu.P[step]]
	}
	z := bas.lu.SolveL(ap)
	w := bas.lu.SolveU(z)
	x := make([]float64, m)
	for step := 0; step < m; step++ {
		x[bas.lu.Q[step]] = w[step]
	}

	bas.etas.IterateOldestToNewest(func(e *etastore.Eta) bool {
		factor := x[e.Row] / e.Pivot
		x[e.Row] = factor
		for k, j := range e.Idx {
			x[j] -= e.Val[k] * factor
		}
		return true
	})

	bas.recordFtranWork()
	return x, nil
}

// BTRAN computes y ← B⁻ᵀ·a: the eta chain walked newest to oldest,
// followed by the transposed base LU solve.
func (bas *Basis) BTRAN(a []float64) ([]float64, error) {
	if bas.lu == nil || !bas.lu.Valid {
		return nil, ErrNotFactorized
	}
	y := make([]float64, bas.M)
	copy(y, a)

	bas.etas.IterateNewestToOldest(func(e *etastore.Eta) bool {
		var temp float64
		for k, j := range e.Idx {
			temp += e.Val[k] * y[j]
		}
		y[e.Row] = (y[e.Row] - temp) / e.Pivot
		return true
	})

	m := bas.M
	aq := make([]float64, m)
	for step := 0; step < m; step++ {
		aq[step] = y[bas.lu.Q[step]]
	}
	z := bas.lu.SolveUT(aq)
	w := bas.lu.SolveLT(z)
	out := make([]float64, m)
	for step := 0; step < m; step++ {
		out[bas.lu.P[step]] = w[step]
	}
	return out, nil
}

// BTRANUnit is a convenience wrapper computing B⁻ᵀ·e_r.
func (bas *Basis) BTRANUnit(r int) ([]float64, error) {
	e := make([]float64, bas.M)
	e[r] = 1
	return bas.BTRAN(e)
}

// Pivot performs the basis-change update for a pivot at row r, bringing
// vIn into the basis and leaving vOut, given the FTRAN-computed pivot
// column col. leavingAtUpper records the direction the ratio test
// determined for the leaving variable; the caller (not this package)
// decides it, since hard-coding the direction here was the bug flagged
// against the source this module descends from.
func (bas *Basis) Pivot(r, vIn int, col []float64, pivotTol, zeroTol float64, leavingAtUpper bool) error {
	if math.Abs(col[r]) < pivotTol {
		return ErrPivotTooSmall
	}
	var idx []int
	var val []float64
	for i, v := range col {
		if i == r || math.Abs(v) < zeroTol {
			continue
		}
		idx = append(idx, i)
		val = append(val, v)
	}
	if err := bas.etas.Append(r, col[r], idx, val); err != nil {
		return err
	}

	vOut := bas.BasicVars[r]
	bas.BasicVars[r] = vIn
	bas.VarStatus[vIn] = r
	if leavingAtUpper {
		bas.VarStatus[vOut] = AtUpper
	} else {
		bas.VarStatus[vOut] = AtLower
	}
	bas.EtaCount++
	bas.PivotsSinceRefactor++
	return nil
}

// RefactorCheck reports whether a refactorization is not needed (0),
// recommended (1) or required (2), per the eta-count, eta-memory,
// iteration-interval and FTRAN-cost-drift triggers.
func (bas *Basis) RefactorCheck(maxEtaCount int, maxEtaMemory int64, refactorInterval int) int {
	if maxEtaCount > 0 && bas.EtaCount >= maxEtaCount {
		return RefactorRequired
	}
	if maxEtaMemory > 0 && bas.etas.MemoryUsed() >= maxEtaMemory {
		return RefactorRequired
	}
	if refactorInterval > 0 && bas.PivotsSinceRefactor >= refactorInterval {
		return RefactorRecommended
	}
	if bas.baselineFtranCost > 0 && bas.ftranCostEWMA > 3*bas.baselineFtranCost {
		return RefactorRecommended
	}
	return RefactorNotNeeded
}
