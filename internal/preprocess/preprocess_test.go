package preprocess

import (
	"math"
	"testing"

	"github.com/gosimplex/rsimplex/sparse"
)

func mustMatrix(t *testing.T, m, n int, colPtr, rowIdx []int, vals []float64) *sparse.Matrix {
	t.Helper()
	a, err := sparse.NewMatrix(m, n, colPtr, rowIdx, vals)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	return a
}

func TestFixedVariableElimination(t *testing.T) {
	a := mustMatrix(t, 1, 3, []int{0, 1, 2, 3}, []int{0, 0, 0}, []float64{3, 1, 1})
	lb := []float64{5, math.Inf(-1), math.Inf(-1)}
	ub := []float64{5, math.Inf(1), math.Inf(1)}
	obj := []float64{2, 0, 0}
	rhs := []float64{100}
	sense := []Sense{EQ}

	res := Run(a, sense, rhs, lb, ub, obj, 1e-9, 1e-7, 0)
	if res.Infeasible {
		t.Fatalf("Run reported infeasible unexpectedly")
	}
	if !res.Fixed[0] || res.Fixed[1] || res.Fixed[2] {
		t.Fatalf("Fixed = %v, want only var 0 fixed", res.Fixed)
	}
	if res.FixedValue[0] != 5 {
		t.Fatalf("FixedValue[0] = %v, want 5", res.FixedValue[0])
	}
	if res.RHSAdjust[0] != 15 {
		t.Fatalf("RHSAdjust[0] = %v, want 15", res.RHSAdjust[0])
	}
	if res.ObjConstant != 10 {
		t.Fatalf("ObjConstant = %v, want 10", res.ObjConstant)
	}
}

func TestSingletonRowDerivesBound(t *testing.T) {
	a := mustMatrix(t, 1, 1, []int{0, 1}, []int{0}, []float64{2})
	lb := []float64{math.Inf(-1)}
	ub := []float64{math.Inf(1)}
	obj := []float64{0}
	rhs := []float64{10}
	sense := []Sense{EQ}

	res := Run(a, sense, rhs, lb, ub, obj, 1e-9, 1e-7, 0)
	if res.Infeasible {
		t.Fatalf("Run reported infeasible unexpectedly")
	}
	if lb[0] != 5 || ub[0] != 5 {
		t.Fatalf("lb,ub = %v,%v want 5,5", lb[0], ub[0])
	}
}

func TestSingletonRowDetectsInfeasibility(t *testing.T) {
	a := mustMatrix(t, 1, 1, []int{0, 1}, []int{0}, []float64{1})
	lb := []float64{0}
	ub := []float64{1}
	obj := []float64{0}
	rhs := []float64{5}
	sense := []Sense{EQ}

	res := Run(a, sense, rhs, lb, ub, obj, 1e-9, 1e-7, 0)
	if !res.Infeasible {
		t.Fatalf("Run did not detect infeasibility for an out-of-range singleton row")
	}
}

func TestBoundPropagationTightensUpperBounds(t *testing.T) {
	a := mustMatrix(t, 1, 2, []int{0, 1, 2}, []int{0, 0}, []float64{1, 1})
	lb := []float64{0, 0}
	ub := []float64{math.Inf(1), math.Inf(1)}
	obj := []float64{0, 0}
	rhs := []float64{10}
	sense := []Sense{LE}

	res := Run(a, sense, rhs, lb, ub, obj, 1e-9, 1e-7, 0)
	if res.Infeasible {
		t.Fatalf("Run reported infeasible unexpectedly")
	}
	if ub[0] != 10 || ub[1] != 10 {
		t.Fatalf("ub = %v, want [10 10]", ub)
	}
}

func TestGeometricMeanScaling(t *testing.T) {
	a := mustMatrix(t, 1, 2, []int{0, 1, 2}, []int{0, 0}, []float64{4, 1})
	lb := []float64{0, 0}
	ub := []float64{1e9, 1e9}
	obj := []float64{0, 0}
	rhs := []float64{1000}
	sense := []Sense{LE}

	res := Run(a, sense, rhs, lb, ub, obj, 1e-9, 1e-7, 0)
	if res.Infeasible {
		t.Fatalf("Run reported infeasible unexpectedly")
	}
	if math.Abs(res.RowScale[0]-0.5) > 1e-9 {
		t.Fatalf("RowScale[0] = %v, want 0.5", res.RowScale[0])
	}
	if math.Abs(res.ColScale[0]-0.25) > 1e-9 {
		t.Fatalf("ColScale[0] = %v, want 0.25", res.ColScale[0])
	}
	if math.Abs(res.ColScale[1]-1) > 1e-9 {
		t.Fatalf("ColScale[1] = %v, want 1", res.ColScale[1])
	}
}

func TestScaleClampedToRange(t *testing.T) {
	if got := geometricScale([]float64{1e10, 1e10}); got != 1e-6 {
		t.Fatalf("geometricScale huge magnitude = %v, want clamp at 1e-6", got)
	}
	if got := geometricScale([]float64{1e-10, 1e-10}); got != 1e6 {
		t.Fatalf("geometricScale tiny magnitude = %v, want clamp at 1e6", got)
	}
}
