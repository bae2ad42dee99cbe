package sparselu

// SolveL solves L x = b for x, where L is unit lower triangular in step
// space. It is a column-oriented (right-looking) forward substitution: processing columns
// of L in increasing order, each nonzero entry of column k immediately
// scatters its contribution into the rows it affects.
func (lu *LU) SolveL(b []float64) []float64 {
	x := make([]float64, lu.M)
	copy(x, b)
	for k := 0; k < lu.M; k++ {
		xk := x[k]
		if xk == 0 {
			continue
		}
		lo, hi := lu.LColPtr[k], lu.LColPtr[k+1]
		for t := lo; t < hi; t++ {
			x[lu.LRowIdx[t]] -= lu.LVal[t] * xk
		}
	}
	return x
}

// SolveU solves U x = b for x via backward substitution, using the
// explicit diagonal UDiag and the off-diagonal entries stored by column.
func (lu *LU) SolveU(b []float64) []float64 {
	y := make([]float64, lu.M)
	copy(y, b)
	x := make([]float64, lu.M)
	for k := lu.M - 1; k >= 0; k-- {
		xk := y[k] / lu.UDiag[k]
		x[k] = xk
		lo, hi := lu.UColPtr[k], lu.UColPtr[k+1]
		for t := lo; t < hi; t++ {
			y[lu.URowIdx[t]] -= lu.UVal[t] * xk
		}
	}
	return x
}

// SolveLT solves Lᵀ y = b, the dual of SolveL: since L is unit lower
// triangular, Lᵀ is unit upper triangular, and the same column storage of
// L can be walked in decreasing column order to accumulate each y[k] from
// the already-resolved y[row] at rows > k.
func (lu *LU) SolveLT(b []float64) []float64 {
	y := make([]float64, lu.M)
	copy(y, b)
	for k := lu.M - 1; k >= 0; k-- {
		sum := y[k]
		lo, hi := lu.LColPtr[k], lu.LColPtr[k+1]
		for t := lo; t < hi; t++ {
			sum -= lu.LVal[t] * y[lu.LRowIdx[t]]
		}
		y[k] = sum
	}
	return y
}

// SolveUT solves Uᵀ y = b, the dual of SolveU: Uᵀ is lower triangular
// with diagonal UDiag, and the same column storage of U can be walked in
// increasing column order to accumulate each y[k] from the
// already-resolved y[row] at rows < k.
func (lu *LU) SolveUT(b []float64) []float64 {
	y := make([]float64, lu.M)
	copy(y, b)
	for k := 0; k < lu.M; k++ {
		sum := y[k]
		lo, hi := lu.UColPtr[k], lu.UColPtr[k+1]
		for t := lo; t < hi; t++ {
			sum -= lu.UVal[t] * y[lu.URowIdx[t]]
		}
		y[k] = sum / lu.UDiag[k]
	}
	return y
}
