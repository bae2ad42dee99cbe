// Package crash builds an initial basis by scoring, for each row, its own
// slack against every structural variable with a nonzero entry in that
// row, and picking whichever best approximates a good starting pivot.
package crash

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Nonbasic status codes, mirrored from the basis package.
const (
	AtLower = -1
	AtUpper = -2
	Free    = -3
	Fixed   = -4
)

const slackScore = 1000.0

// Row is one constraint row's structural nonzero entries plus its own
// slack variable index and right-hand side.
type Row struct {
	Cols     []int
	Vals     []float64
	RHS      float64
	SlackVar int
}

// VarInfo is the bound and objective data crash needs for one variable
// (structural or slack).
type VarInfo struct {
	Lb, Ub, Obj float64
}

// Run scores and selects a basic variable per row, returning the basic
// variable list, a var_status array covering every variable, and the
// starting phase: 1 if any row's approximate crash value would violate
// its selected basic variable's bounds, else 2.
//
// The crash value for a row is approximate: it holds every other variable
// in the row at its nonbasic starting value and solves that row alone,
// ignoring coupling through other rows. The driver's first refactor and
// FTRAN establish the true x_B; this is only used to pick a starting
// phase.
func Run(rows []Row, vars []VarInfo, feasTol float64) (basicVars []int, varStatus []int, phase int) {
	n := len(vars)
	m := len(rows)
	basicVars = make([]int, m)
	varStatus = make([]int, n)
	for v := range varStatus {
		varStatus[v] = statusForBounds(vars[v])
	}

	phase = 2
	for i, row := range rows {
		bestVar, bestScore := row.SlackVar, slackScore
		for k, j := range row.Cols {
			if s := score(row.Vals[k], vars[j]); s > bestScore {
				bestVar, bestScore = j, s
			}
		}

		basicVars[i] = bestVar
		varStatus[bestVar] = i

		if approxViolates(row, bestVar, vars, varStatus, feasTol) {
			phase = 1
		}
	}
	return basicVars, varStatus, phase
}

func score(a float64, v VarInfo) float64 {
	s := 100*math.Abs(a) + 50/(1+(v.Ub-v.Lb)) - 10*math.Abs(v.Obj)
	if v.Lb <= 0 && v.Ub >= 0 {
		s += 30
	}
	if v.Obj*a < 0 {
		s += 20
	}
	return s
}

func statusForBounds(v VarInfo) int {
	switch {
	case v.Ub-v.Lb < 1e-15:
		return Fixed
	case !math.IsInf(v.Lb, -1):
		return AtLower
	case !math.IsInf(v.Ub, 1):
		return AtUpper
	default:
		return Free
	}
}

func startValue(v VarInfo, status int) float64 {
	switch status {
	case AtLower, Fixed:
		return v.Lb
	case AtUpper:
		return v.Ub
	default:
		return 0
	}
}

// approxViolates computes the row-local crash value for bestVar (treating
// every other variable in the row, including the slack if it lost, as
// fixed at its nonbasic starting value) and reports whether it falls
// outside bestVar's bounds by more than feasTol.
func approxViolates(row Row, bestVar int, vars []VarInfo, varStatus []int, feasTol float64) bool {
	sum := row.RHS
	coefBest := 1.0
	for k, j := range row.Cols {
		if j == bestVar {
			coefBest = row.Vals[k]
			continue
		}
		sum -= row.Vals[k] * startValue(vars[j], varStatus[j])
	}
	if bestVar != row.SlackVar {
		sum -= startValue(vars[row.SlackVar], varStatus[row.SlackVar])
	}
	if coefBest == 0 {
		return false
	}
	approx := sum / coefBest
	v := vars[bestVar]
	return approx < v.Lb-feasTol || approx > v.Ub+feasTol
}

// ColumnProvider supplies the dense column of the augmented matrix for a
// variable index, the same contract the basis package uses.
type ColumnProvider interface {
	Column(v int) (rows []int, vals []float64)
}

// ConditionTolerance is the condition-number ceiling above which a
// crash-selected basis is considered too close to singular to hand to
// the sparse LU. This mirrors a dense condition-number bootstrap check
// performed ahead of a factorization attempt.
const ConditionTolerance = 1e14

// VerifyBasis assembles the m x m dense matrix of the given basic
// variables' columns and reports its 2-norm condition number, so the
// driver can fall back to an all-slack basis rather than hand a
// near-singular one to Refactor. Small m only: this is a bootstrap
// sanity check, not the solver's real factorization path.
func VerifyBasis(basicVars []int, provider ColumnProvider, m int) (ok bool, cond float64) {
	if m == 0 {
		// The empty basis of a zero-row problem is vacuously nonsingular.
		return true, 1
	}
	data := make([]float64, m*m)
	for col, v := range basicVars {
		rows, vals := provider.Column(v)
		for k, r := range rows {
			data[r*m+col] = vals[k]
		}
	}
	dense := mat.NewDense(m, m, data)
	cond = mat.Cond(dense, 2)
	return cond <= ConditionTolerance, cond
}
