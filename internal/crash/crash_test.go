package crash

import (
	"math"
	"testing"
)

func TestCrashPicksStrongStructuralCandidate(t *testing.T) {
	rows := []Row{
		{Cols: []int{0}, Vals: []float64{50}, RHS: 100, SlackVar: 1},
	}
	vars := []VarInfo{
		{Lb: -5, Ub: 5, Obj: 0},
		{Lb: 0, Ub: math.Inf(1), Obj: 0},
	}
	basicVars, varStatus, _ := Run(rows, vars, 1e-7)
	if basicVars[0] != 0 {
		t.Fatalf("basicVars[0] = %d, want 0 (strong structural candidate)", basicVars[0])
	}
	if varStatus[0] != 0 {
		t.Fatalf("varStatus[0] = %d, want 0", varStatus[0])
	}
	if varStatus[1] != AtLower {
		t.Fatalf("varStatus[1] = %d, want AtLower", varStatus[1])
	}
}

func TestCrashFallsBackToSlackWhenNoCompetitiveStructuralVar(t *testing.T) {
	rows := []Row{
		{Cols: []int{0}, Vals: []float64{0.01}, RHS: 100, SlackVar: 1},
	}
	vars := []VarInfo{
		{Lb: 0, Ub: 1000, Obj: -500},
		{Lb: 0, Ub: math.Inf(1), Obj: 0},
	}
	basicVars, _, _ := Run(rows, vars, 1e-7)
	if basicVars[0] != 1 {
		t.Fatalf("basicVars[0] = %d, want 1 (slack fallback)", basicVars[0])
	}
}

func TestPhaseOneWhenApproxCrashValueViolatesBounds(t *testing.T) {
	rows := []Row{
		{Cols: []int{0}, Vals: []float64{20}, RHS: 300, SlackVar: 1},
	}
	vars := []VarInfo{
		{Lb: 0, Ub: 5, Obj: 0},
		{Lb: 0, Ub: math.Inf(1), Obj: 0},
	}
	basicVars, _, phase := Run(rows, vars, 1e-7)
	if basicVars[0] != 0 {
		t.Fatalf("basicVars[0] = %d, want 0", basicVars[0])
	}
	if phase != 1 {
		t.Fatalf("phase = %d, want 1", phase)
	}
}

func TestPhaseTwoWhenFeasible(t *testing.T) {
	rows := []Row{
		{Cols: []int{0}, Vals: []float64{1}, RHS: 5, SlackVar: 1},
	}
	vars := []VarInfo{
		{Lb: 0, Ub: 10, Obj: 0},
		{Lb: 0, Ub: math.Inf(1), Obj: 0},
	}
	_, _, phase := Run(rows, vars, 1e-7)
	if phase != 2 {
		t.Fatalf("phase = %d, want 2", phase)
	}
}

func TestNonbasicStatusReflectsBoundShape(t *testing.T) {
	rows := []Row{
		{Cols: []int{0, 1, 2}, Vals: []float64{50, 0.001, 0.001}, RHS: 10, SlackVar: 3},
	}
	vars := []VarInfo{
		{Lb: -5, Ub: 5, Obj: 0},                    // wins the row
		{Lb: math.Inf(-1), Ub: math.Inf(1), Obj: 0}, // free
		{Lb: math.Inf(-1), Ub: 9, Obj: -1000},       // at upper, loses badly
		{Lb: 0, Ub: math.Inf(1), Obj: 0},
	}
	_, varStatus, _ := Run(rows, vars, 1e-7)
	if varStatus[1] != Free {
		t.Fatalf("varStatus[1] = %d, want Free", varStatus[1])
	}
	if varStatus[2] != AtUpper {
		t.Fatalf("varStatus[2] = %d, want AtUpper", varStatus[2])
	}
}
