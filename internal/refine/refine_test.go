package refine

import (
	"math"
	"testing"

	"github.com/gosimplex/rsimplex/internal/basis"
	"github.com/gosimplex/rsimplex/internal/sparselu"
)

type denseProvider struct {
	cols map[int][]float64
}

func (p denseProvider) Column(v int) (rows []int, vals []float64) {
	for i, x := range p.cols[v] {
		if x != 0 {
			rows = append(rows, i)
			vals = append(vals, x)
		}
	}
	return rows, vals
}

func identityBasis(t *testing.T) (*basis.Basis, denseProvider) {
	t.Helper()
	provider := denseProvider{cols: map[int][]float64{
		0: {1, 0},
		1: {0, 1},
		2: {3, 1},
	}}
	bas := basis.New(2, 0)
	bas.BasicVars = []int{0, 1}
	bas.VarStatus = []int{0, 1, basis.AtLower}
	if err := bas.Refactor(provider, sparselu.Options{}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	return bas, provider
}

func TestRunRecomputesPrimalAndObjective(t *testing.T) {
	bas, provider := identityBasis(t)
	rhs := []float64{10, 4}
	lb := []float64{0, 0}
	ub := []float64{math.Inf(1), math.Inf(1)}
	obj := []float64{1, 1, 5}
	nonbasic := []int{2}
	nonbasicValue := func(v int) float64 { return 1 }

	xB, objective, err := Run(bas, provider, bas.BasicVars, nonbasic, nonbasicValue, rhs, lb, ub, obj, 1e-7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []float64{7, 3}
	for i := range want {
		if math.Abs(xB[i]-want[i]) > 1e-9 {
			t.Fatalf("xB = %v, want %v", xB, want)
		}
	}
	if math.Abs(objective-15) > 1e-9 {
		t.Fatalf("objective = %v, want 15", objective)
	}
}

func TestSnapBoundsRoundsNearBoundaryValues(t *testing.T) {
	xB := []float64{1e-13, 4.9999999999, 2.0000000001}
	basicVars := []int{0, 1, 2}
	lb := []float64{0, 0, 2}
	ub := []float64{10, 5, 10}
	SnapBounds(xB, basicVars, lb, ub, 1e-7)
	if xB[0] != 0 {
		t.Fatalf("xB[0] = %v, want exactly 0", xB[0])
	}
	if xB[1] != 5 {
		t.Fatalf("xB[1] = %v, want snapped to ub 5", xB[1])
	}
	if xB[2] != 2 {
		t.Fatalf("xB[2] = %v, want snapped to lb 2", xB[2])
	}
}

func TestEffectiveRHSSubtractsNonbasicContribution(t *testing.T) {
	provider := denseProvider{cols: map[int][]float64{5: {2, -1}}}
	rhs := []float64{10, 10}
	b := EffectiveRHS(rhs, []int{5}, func(v int) float64 { return 3 }, provider)
	want := []float64{4, 13}
	for i := range want {
		if math.Abs(b[i]-want[i]) > 1e-9 {
			t.Fatalf("EffectiveRHS = %v, want %v", b, want)
		}
	}
}
