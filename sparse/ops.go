package sparse

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MulVec computes y ← A·x, skipping columns whose |x_j| does not exceed
// eps. len(x) must equal a.N and len(y) must equal a.M.
func (a *Matrix) MulVec(y, x []float64, eps float64) {
	if len(x) != a.N || len(y) != a.M {
		panic(ErrDimMismatch)
	}
	for i := range y {
		y[i] = 0
	}
	a.AddMulVec(y, x, eps)
}

// AddMulVec computes y ← y + A·x, skipping columns whose |x_j| does not
// exceed eps.
func (a *Matrix) AddMulVec(y, x []float64, eps float64) {
	if len(x) != a.N || len(y) != a.M {
		panic(ErrDimMismatch)
	}
	for j := 0; j < a.N; j++ {
		xj := x[j]
		if math.Abs(xj) <= eps {
			continue
		}
		lo, hi := a.ColPtr[j], a.ColPtr[j+1]
		for k := lo; k < hi; k++ {
			y[a.RowIdx[k]] += a.Values[k] * xj
		}
	}
}

// MulVecTrans computes y ← Aᵀ·x, skipping rows whose |x_i| does not exceed
// eps. len(x) must equal a.M and len(y) must equal a.N.
func (a *Matrix) MulVecTrans(y, x []float64, eps float64) {
	if len(x) != a.M || len(y) != a.N {
		panic(ErrDimMismatch)
	}
	for j := 0; j < a.N; j++ {
		lo, hi := a.ColPtr[j], a.ColPtr[j+1]
		var sum float64
		for k := lo; k < hi; k++ {
			if xi := x[a.RowIdx[k]]; math.Abs(xi) > eps {
				sum += a.Values[k] * xi
			}
		}
		y[j] = sum
	}
}

// Dot returns the dot product of two dense vectors, delegating to
// gonum.org/v1/gonum/floats for the accumulation.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// SparseDot returns the dot product of a dense vector x with a sparse
// vector given as parallel (idx, val) slices, skipping explicit zeros in
// val without reading the corresponding entries of x.
func SparseDot(x []float64, idx []int, val []float64) float64 {
	var sum float64
	for k, v := range val {
		if v == 0 {
			continue
		}
		sum += v * x[idx[k]]
	}
	return sum
}

// NormL1 returns the L1 norm of x. The norm of the zero vector is exactly 0.
func NormL1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 1)
}

// NormL2 returns the L2 norm of x.
func NormL2(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 2)
}

// NormInf returns the L∞ norm of x.
func NormInf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, math.Inf(1))
}
