package sparse

import (
	"math"
	"testing"
)

func testMatrix(t *testing.T) *Matrix {
	t.Helper()
	// A = [[1, 0, 3],
	//      [0, 2, 0],
	//      [4, 0, 5]]
	m, err := NewMatrix(3, 3,
		[]int{0, 2, 3, 5},
		[]int{0, 2, 1, 0, 2},
		[]float64{1, 4, 2, 3, 5},
	)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	return m
}

func TestMulVec(t *testing.T) {
	a := testMatrix(t)
	x := []float64{1, 1, 1}
	y := make([]float64, 3)
	a.MulVec(y, x, 0)
	want := []float64{4, 2, 9}
	for i := range want {
		if math.Abs(y[i]-want[i]) > 1e-12 {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestMulVecSkipsSmallEntries(t *testing.T) {
	a := testMatrix(t)
	x := []float64{0, 1e-20, 1}
	y := make([]float64, 3)
	a.MulVec(y, x, 1e-12)
	want := []float64{3, 0, 5} // column 1 skipped
	for i := range want {
		if math.Abs(y[i]-want[i]) > 1e-12 {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestMulVecTrans(t *testing.T) {
	a := testMatrix(t)
	x := []float64{1, 1, 1}
	y := make([]float64, 3)
	a.MulVecTrans(y, x, 0)
	want := []float64{5, 2, 8}
	for i := range want {
		if math.Abs(y[i]-want[i]) > 1e-12 {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestSparseDotSkipsExplicitZeros(t *testing.T) {
	x := []float64{1, 2, 3}
	idx := []int{0, 1, 2}
	val := []float64{0, 5, 0}
	got := SparseDot(x, idx, val)
	if got != 10 {
		t.Errorf("SparseDot = %v, want 10", got)
	}
}

func TestNormsOfZeroVector(t *testing.T) {
	z := []float64{0, 0, 0}
	if NormL1(z) != 0 {
		t.Errorf("NormL1(0) != 0")
	}
	if NormL2(z) != 0 {
		t.Errorf("NormL2(0) != 0")
	}
	if NormInf(z) != 0 {
		t.Errorf("NormInf(0) != 0")
	}
	if NormInf(nil) != 0 {
		t.Errorf("NormInf(nil) != 0")
	}
}
