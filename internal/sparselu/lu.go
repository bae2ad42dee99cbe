// Package sparselu implements a sparse LU factorization of a basis matrix
// using Markowitz ordering with threshold pivoting, plus the four
// triangular solves (L, U and their transposes) that the basis package
// composes into FTRAN and BTRAN.
package sparselu

import (
	"errors"
	"math"

	"github.com/gosimplex/rsimplex/sparse"
)

// ErrSingular is returned by Factorize when no pivot candidate satisfies
// the minimum-pivot magnitude at some elimination step.
var ErrSingular = errors.New("sparselu: basis is numerically singular")

// Column is one column of the candidate basis matrix, given as parallel
// (row, value) slices.
type Column struct {
	Row []int
	Val []float64
}

// Options tunes the Markowitz pivot search.
type Options struct {
	// MinPivot is the minimum acceptable |pivot| magnitude; columns whose
	// maximum remaining magnitude falls below this are skipped outright.
	MinPivot float64
	// Threshold restricts pivot candidates in a column to those within
	// Threshold of the column's maximum remaining magnitude. Default 0.1.
	Threshold float64
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = 0.1
	}
	if o.MinPivot <= 0 {
		o.MinPivot = 1e-11
	}
	return o
}

// LU holds a Markowitz-ordered sparse LU factorization: P·B·Q = L·U,
// where L is unit lower triangular (stored by columns, diagonal implicit)
// and U is upper triangular with an explicit diagonal and off-diagonal
// entries stored by columns. Both L and U are expressed in "step space":
// row/column index k refers to the basis row/column eliminated at pivot
// step k, i.e. P[k]/Q[k] in original-index space.
type LU struct {
	M     int
	Valid bool

	LColPtr []int
	LRowIdx []int // rows > k within column k
	LVal    []float64

	UDiag   []float64
	UColPtr []int
	URowIdx []int // rows < k within column k
	UVal    []float64

	P, Q       []int // P[step], Q[step] = original row/col pivoted at step
	Pinv, Qinv []int // inverse maps: original index -> step
}

// Factorize computes a Markowitz-ordered LU factorization of the m×m
// matrix whose columns are given by cols (column j of the basis is
// cols[j]). On success Valid is true; on a singular basis it returns
// (&LU{M: m}, ErrSingular) with Valid left false.
func Factorize(cols []Column, m int, opts Options) (*LU, error) {
	opts = opts.withDefaults()

	b := make([][]float64, m)
	for i := range b {
		b[i] = make([]float64, m)
	}
	for j, c := range cols {
		for k, r := range c.Row {
			b[r][j] += c.Val[k]
		}
	}

	rowElim := make([]bool, m)
	colElim := make([]bool, m)
	rowCount := make([]int, m)
	colCount := make([]int, m)
	recomputeCounts(b, rowElim, colElim, rowCount, colCount, m)

	P := make([]int, m)
	Q := make([]int, m)
	UDiag := make([]float64, m)

	type lEntry struct {
		origRow, step int
		val           float64
	}
	type uEntry struct {
		step, origCol int
		val           float64
	}
	lEntries := make([]lEntry, 0, m*4)
	uEntries := make([]uEntry, 0, m*4)

	const tieTol = 1e-12

	for step := 0; step < m; step++ {
		bestRow, bestCol := -1, -1
		bestCost := -1
		bestAbs := 0.0

		for j := 0; j < m; j++ {
			if colElim[j] {
				continue
			}
			colMax := 0.0
			for i := 0; i < m; i++ {
				if rowElim[i] {
					continue
				}
				if v := math.Abs(b[i][j]); v > colMax {
					colMax = v
				}
			}
			if colMax < opts.MinPivot {
				continue
			}
			thresh := opts.Threshold * colMax
			for i := 0; i < m; i++ {
				if rowElim[i] {
					continue
				}
				v := math.Abs(b[i][j])
				if v < thresh {
					continue
				}
				cost := (rowCount[i] - 1) * (colCount[j] - 1)
				switch {
				case bestRow < 0:
				case cost > bestCost:
					continue
				case cost == bestCost:
					if v < bestAbs-tieTol {
						continue
					}
					if v <= bestAbs+tieTol && (i > bestRow || (i == bestRow && j >= bestCol)) {
						continue
					}
				}
				bestRow, bestCol, bestCost, bestAbs = i, j, cost, v
			}
		}
		if bestRow < 0 {
			return &LU{M: m}, ErrSingular
		}

		p := b[bestRow][bestCol]
		P[step] = bestRow
		Q[step] = bestCol
		UDiag[step] = p
		rowElim[bestRow] = true
		colElim[bestCol] = true

		for j := 0; j < m; j++ {
			if colElim[j] {
				continue
			}
			if v := b[bestRow][j]; v != 0 {
				uEntries = append(uEntries, uEntry{step, j, v})
			}
		}

		for i := 0; i < m; i++ {
			if rowElim[i] {
				continue
			}
			piv := b[i][bestCol]
			if piv == 0 {
				continue
			}
			mult := piv / p
			lEntries = append(lEntries, lEntry{i, step, mult})
			for j := 0; j < m; j++ {
				if colElim[j] {
					continue
				}
				b[i][j] -= mult * b[bestRow][j]
			}
			b[i][bestCol] = 0
		}

		recomputeCounts(b, rowElim, colElim, rowCount, colCount, m)
	}

	Pinv := make([]int, m)
	Qinv := make([]int, m)
	for step := 0; step < m; step++ {
		Pinv[P[step]] = step
		Qinv[Q[step]] = step
	}

	lu := &LU{M: m, Valid: true, P: P, Q: Q, Pinv: Pinv, Qinv: Qinv, UDiag: UDiag}

	lRows := make([][]int, m)
	lVals := make([][]float64, m)
	for _, e := range lEntries {
		k := e.step
		lRows[k] = append(lRows[k], Pinv[e.origRow])
		lVals[k] = append(lVals[k], e.val)
	}
	lu.LColPtr = make([]int, m+1)
	for k := 0; k < m; k++ {
		sparse.SortPairs(lRows[k], lVals[k])
		lu.LColPtr[k+1] = lu.LColPtr[k] + len(lRows[k])
	}
	lu.LRowIdx = make([]int, lu.LColPtr[m])
	lu.LVal = make([]float64, lu.LColPtr[m])
	for k := 0; k < m; k++ {
		off := lu.LColPtr[k]
		copy(lu.LRowIdx[off:], lRows[k])
		copy(lu.LVal[off:], lVals[k])
	}

	uRows := make([][]int, m)
	uVals := make([][]float64, m)
	for _, e := range uEntries {
		k := Qinv[e.origCol]
		uRows[k] = append(uRows[k], e.step)
		uVals[k] = append(uVals[k], e.val)
	}
	lu.UColPtr = make([]int, m+1)
	for k := 0; k < m; k++ {
		sparse.SortPairs(uRows[k], uVals[k])
		lu.UColPtr[k+1] = lu.UColPtr[k] + len(uRows[k])
	}
	lu.URowIdx = make([]int, lu.UColPtr[m])
	lu.UVal = make([]float64, lu.UColPtr[m])
	for k := 0; k < m; k++ {
		off := lu.UColPtr[k]
		copy(lu.URowIdx[off:], uRows[k])
		copy(lu.UVal[off:], uVals[k])
	}

	return lu, nil
}

func recomputeCounts(b [][]float64, rowElim, colElim []bool, rowCount, colCount []int, m int) {
	for i := 0; i < m; i++ {
		if rowElim[i] {
			continue
		}
		cnt := 0
		for j := 0; j < m; j++ {
			if !colElim[j] && b[i][j] != 0 {
				cnt++
			}
		}
		rowCount[i] = cnt
	}
	for j := 0; j < m; j++ {
		if colElim[j] {
			continue
		}
		cnt := 0
		for i := 0; i < m; i++ {
			if !rowElim[i] && b[i][j] != 0 {
				cnt++
			}
		}
		colCount[j] = cnt
	}
}

// MinAbsDiag returns the smallest |U_diag[i]| over the factorization, for
// checking the "|U_diag[i]| ≥ min_pivot" invariant.
func (lu *LU) MinAbsDiag() float64 {
	min := math.Inf(1)
	for _, d := range lu.UDiag {
		if v := math.Abs(d); v < min {
			min = v
		}
	}
	return min
}
