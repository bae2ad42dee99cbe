// Package rsimplex implements a two-phase revised simplex method over a
// sparse linear program: Markowitz-ordered LU factorization with a
// product-form-of-inverse eta chain, multi-level steepest-edge/Devex
// pricing, a Harris two-pass ratio test, bound perturbation for
// anti-cycling, presolve reductions, a scored crash basis, and iterative
// refinement of the final solution.
package rsimplex

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gosimplex/rsimplex/internal/basis"
	"github.com/gosimplex/rsimplex/internal/crash"
	"github.com/gosimplex/rsimplex/internal/perturb"
	"github.com/gosimplex/rsimplex/internal/preprocess"
	"github.com/gosimplex/rsimplex/internal/pricing"
	"github.com/gosimplex/rsimplex/internal/ratiotest"
	"github.com/gosimplex/rsimplex/internal/refine"
	"github.com/gosimplex/rsimplex/internal/sparselu"
	"github.com/gosimplex/rsimplex/sparse"
)

// Solve runs the two-phase revised simplex method against p under the
// given settings, cooperatively checking ctx for cancellation at each
// iteration boundary.
func Solve(ctx context.Context, p *Problem, settings Settings) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n, m := p.NumStructural(), p.NumRows()
	start := time.Now()

	lb := make([]float64, n+m)
	ub := make([]float64, n+m)
	obj := make([]float64, n+m)
	copy(lb, p.Lb)
	copy(ub, p.Ub)
	copy(obj, p.Obj)
	for i := 0; i < m; i++ {
		lb[n+i], ub[n+i] = p.SlackBounds(i)
	}

	preSense := make([]preprocess.Sense, m)
	for i, s := range p.Sense {
		preSense[i] = preprocess.Sense(s)
	}

	var pre *preprocess.Result
	if !settings.DisablePreprocess {
		pre = preprocess.Run(p.A, preSense, p.RHS, lb[:n], ub[:n], obj[:n], settings.FixTol, settings.FeasTol, settings.MaxPreprocessPasses)
		if pre.Infeasible {
			return infeasibleResult(n, m, start, -1), nil
		}
	}

	// Fixed variables stay in the active problem as nonbasics at their
	// bound, so the iteration uses the original right-hand side; only the
	// crash rows, which leave fixed columns out, use the folded one.
	effRHS := make([]float64, m)
	copy(effRHS, p.RHS)
	crashRHS := make([]float64, m)
	copy(crashRHS, p.RHS)
	if pre != nil {
		for i := range crashRHS {
			crashRHS[i] -= pre.RHSAdjust[i]
		}
	}

	var basicVars []int
	var varStatus []int
	var phase int
	if settings.WarmBasicVars != nil && settings.WarmVarStatus != nil {
		if err := validateWarmStart(settings.WarmBasicVars, settings.WarmVarStatus, n, m); err != nil {
			return nil, err
		}
		basicVars = append([]int(nil), settings.WarmBasicVars...)
		varStatus = append([]int(nil), settings.WarmVarStatus...)
		phase = 2
	} else {
		rows := buildCrashRows(p, pre, crashRHS, n, m)
		vars := make([]crash.VarInfo, n+m)
		for v := 0; v < n+m; v++ {
			vars[v] = crash.VarInfo{Lb: lb[v], Ub: ub[v], Obj: obj[v]}
		}
		basicVars, varStatus, phase = crash.Run(rows, vars, settings.FeasTol)
		if ok, _ := crash.VerifyBasis(basicVars, p, m); !ok {
			basicVars, varStatus = allSlackBasis(n, m, lb, ub)
			phase = 1
		}
	}

	bas := basis.New(m, settings.MaxEtaMemory)
	bas.BasicVars = basicVars
	bas.VarStatus = varStatus
	luOpts := sparselu.Options{Threshold: settings.MarkowitzThreshold, MinPivot: settings.PivotTol}
	if err := bas.Refactor(p, luOpts); err != nil {
		return numericalResult(n, m, start), nil
	}

	ctxPricing := pricing.NewContext(n+m, settings.Strategy)
	if settings.PartialN > 0 {
		ctxPricing.PartialN = settings.PartialN
	}

	var pert *perturb.State
	if settings.PerturbIters > 0 {
		pert = perturb.NewState(n + m)
		pert.Apply(lb, ub, settings.FeasTol, settings.Rand)
	}

	peakEtaCount := 0
	infeasibleRow := -1

	iter := 0
	for {
		if ctx != nil && ctx.Err() != nil {
			return suspendResult(bas, p, lb, ub, obj, effRHS, n, m, start, iter, peakEtaCount, Interrupted), nil
		}
		if iter >= settings.MaxIter {
			return suspendResult(bas, p, lb, ub, obj, effRHS, n, m, start, iter, peakEtaCount, IterationLimit), nil
		}
		if settings.TimeLimit > 0 && time.Since(start) >= settings.TimeLimit {
			return suspendResult(bas, p, lb, ub, obj, effRHS, n, m, start, iter, peakEtaCount, TimeLimit), nil
		}

		xB, err := bas.FTRAN(effectiveRHS(effRHS, bas, lb, ub, p))
		if err != nil {
			return numericalResult(n, m, start), nil
		}

		if pert != nil && pert.Active() && iter >= settings.PerturbIters {
			pert.Remove(lb, ub)
			continue
		}

		if phase == 1 {
			sum := sumInfeasibility(xB, bas.BasicVars, lb, ub, settings.FeasTol)
			if sum < settings.FeasTol {
				phase = 2
				ctxPricing.InvalidateCache()
				continue
			}
		}

		cB := phaseCost(phase, xB, bas.BasicVars, lb, ub, obj, settings.FeasTol)
		pi, err := bas.BTRAN(cB)
		if err != nil {
			return numericalResult(n, m, start), nil
		}
		rc := func(j int) float64 {
			rows, vals := p.Column(j)
			c := 0.0
			if phase == 2 {
				c = obj[j]
			}
			return c - sparse.Dot(pi, densify(m, rows, vals))
		}

		nonbasic := nonbasicList(bas.VarStatus)
		cand, ok := ctxPricing.SelectEntering(nonbasic, bas.VarStatus, rc, settings.OptTol, iter)
		if !ok {
			if phase == 1 {
				infeasibleRow = worstViolationRow(xB, bas.BasicVars, lb, ub)
				return infeasibleResult(n, m, start, infeasibleRow), nil
			}
			break // phase 2 optimal
		}

		vIn := cand.Var
		dir := ratiotest.Increasing
		if bas.VarStatus[vIn] == basis.AtUpper || (bas.VarStatus[vIn] == basis.Free && cand.ReducedCost > 0) {
			dir = ratiotest.Decreasing
		}

		rows, vals := p.Column(vIn)
		aDense := densify(m, rows, vals)
		alpha, err := bas.FTRAN(aDense)
		if err != nil {
			return numericalResult(n, m, start), nil
		}

		rtRows := make([]ratiotest.Row, m)
		for i, v := range bas.BasicVars {
			rtRows[i] = ratiotest.Row{Var: v, Value: xB[i], Lb: lb[v], Ub: ub[v], Alpha: alpha[i]}
		}
		rt := ratiotest.Run(rtRows, dir, settings.PivotTol, settings.FeasTol)

		if flip, step := ratiotest.BoundFlip(lb[vIn], ub[vIn], rt.ThetaHat); !rt.Unbounded && flip {
			if dir == ratiotest.Increasing {
				bas.VarStatus[vIn] = basis.AtUpper
			} else {
				bas.VarStatus[vIn] = basis.AtLower
			}
			_ = step
			ctxPricing.InvalidateCache()
			iter++
			continue
		}

		if rt.Unbounded {
			if phase == 2 {
				return &Result{
					Status:        Unbounded,
					UnboundedVar:  vIn,
					UnboundedRay:  alpha,
					Stats:         statsFor(start, iter, peakEtaCount, bas.RefactorCount),
					InfeasibleRow: -1,
				}, nil
			}
			return numericalResult(n, m, start), nil
		}

		q := rt.Row
		beta, err := bas.BTRANUnit(q)
		if err != nil {
			return numericalResult(n, m, start), nil
		}

		pivotErr := bas.Pivot(q, vIn, alpha, settings.PivotTol, 1e-12, rt.LeavingAtUpper)
		if pivotErr != nil {
			if refErr := bas.Refactor(p, luOpts); refErr != nil {
				return numericalResult(n, m, start), nil
			}
			alpha, err = bas.FTRAN(aDense)
			if err != nil {
				return numericalResult(n, m, start), nil
			}
			if err := bas.Pivot(q, vIn, alpha, settings.PivotTol, 1e-12, rt.LeavingAtUpper); err != nil {
				return numericalResult(n, m, start), nil
			}
		}

		tauOf := func(j int) float64 {
			rows, vals := p.Column(j)
			return sparse.Dot(beta, densify(m, rows, vals))
		}
		remaining := make([]int, 0, len(nonbasic))
		for _, j := range nonbasic {
			if j != vIn {
				remaining = append(remaining, j)
			}
		}
		ctxPricing.UpdateWeights(vIn, q, alpha[q], remaining, tauOf)
		ctxPricing.InvalidateCache()

		if bas.EtaCount > peakEtaCount {
			peakEtaCount = bas.EtaCount
		}

		iter++

		if lvl := bas.RefactorCheck(settings.MaxEtaCount, settings.MaxEtaMemory, settings.RefactorInterval); lvl != basis.RefactorNotNeeded {
			if err := bas.Refactor(p, luOpts); err != nil {
				return numericalResult(n, m, start), nil
			}
		}
	}

	if pert != nil && pert.Active() {
		pert.Remove(lb, ub)
	}

	nonbasicFinal := nonbasicList(bas.VarStatus)
	nonbasicValueFn := func(v int) float64 { return nonbasicValue(lb[v], ub[v], bas.VarStatus[v]) }
	xB, objective, err := refine.Run(bas, p, bas.BasicVars, nonbasicFinal, nonbasicValueFn, effRHS, lb, ub, obj, settings.FeasTol)
	if err != nil {
		return numericalResult(n, m, start), nil
	}

	xFull := make([]float64, n+m)
	for col, v := range bas.BasicVars {
		xFull[v] = xB[col]
	}
	for _, j := range nonbasicFinal {
		xFull[j] = nonbasicValueFn(j)
	}

	cBFinal := make([]float64, m)
	for r, v := range bas.BasicVars {
		cBFinal[r] = obj[v]
	}
	pi, err := bas.BTRAN(cBFinal)
	if err != nil {
		return numericalResult(n, m, start), nil
	}

	rcFull := make([]float64, n)
	for j := 0; j < n; j++ {
		rows, vals := p.Column(j)
		rcFull[j] = obj[j] - sparse.Dot(pi, densify(m, rows, vals))
	}

	if bas.EtaCount > peakEtaCount {
		peakEtaCount = bas.EtaCount
	}

	return &Result{
		Status:        Optimal,
		Objective:     objective,
		X:             xFull[:n],
		RC:            rcFull,
		Pi:            pi,
		Slack:         xFull[n:],
		Stats:         statsFor(start, iter, peakEtaCount, bas.RefactorCount),
		InfeasibleRow: -1,
		UnboundedVar:  -1,
	}, nil
}

func densify(m int, rows []int, vals []float64) []float64 {
	d := make([]float64, m)
	for k, r := range rows {
		d[r] = vals[k]
	}
	return d
}

func nonbasicValue(lb, ub float64, status int) float64 {
	switch status {
	case basis.AtUpper:
		return ub
	case basis.Free:
		return 0
	default: // AtLower, Fixed
		return lb
	}
}

func nonbasicList(varStatus []int) []int {
	var out []int
	for v, s := range varStatus {
		if s < 0 {
			out = append(out, v)
		}
	}
	return out
}

func effectiveRHS(rhs []float64, bas *basis.Basis, lb, ub []float64, p *Problem) []float64 {
	b := make([]float64, len(rhs))
	copy(b, rhs)
	for _, j := range nonbasicList(bas.VarStatus) {
		x := nonbasicValue(lb[j], ub[j], bas.VarStatus[j])
		if x == 0 {
			continue
		}
		rows, vals := p.Column(j)
		for k, r := range rows {
			b[r] -= vals[k] * x
		}
	}
	return b
}

func phaseCost(phase int, xB []float64, basicVars []int, lb, ub, obj []float64, feasTol float64) []float64 {
	cB := make([]float64, len(xB))
	if phase == 2 {
		for r, v := range basicVars {
			cB[r] = obj[v]
		}
		return cB
	}
	for r, v := range basicVars {
		switch {
		case xB[r] < lb[v]-feasTol:
			cB[r] = -1
		case xB[r] > ub[v]+feasTol:
			cB[r] = 1
		}
	}
	return cB
}

func sumInfeasibility(xB []float64, basicVars []int, lb, ub []float64, feasTol float64) float64 {
	var sum float64
	for r, v := range basicVars {
		if xB[r] < lb[v]-feasTol {
			sum += lb[v] - xB[r]
		}
		if xB[r] > ub[v]+feasTol {
			sum += xB[r] - ub[v]
		}
	}
	return sum
}

func worstViolationRow(xB []float64, basicVars []int, lb, ub []float64) int {
	worst, worstRow := -1.0, -1
	for r, v := range basicVars {
		viol := math.Max(lb[v]-xB[r], xB[r]-ub[v])
		if viol > worst {
			worst, worstRow = viol, r
		}
	}
	return worstRow
}

// ErrBadWarmStart is returned by Solve when Settings.WarmBasicVars/
// WarmVarStatus fail a structural consistency check: a caller-supplied
// basis is untrusted input, not an internal invariant, so a bad one is
// reported as an error rather than causing a panic deeper in the solve.
var ErrBadWarmStart = errors.New("rsimplex: warm-start basis is structurally inconsistent")

func validateWarmStart(basicVars, varStatus []int, n, m int) error {
	if len(basicVars) != m || len(varStatus) != n+m {
		return ErrBadWarmStart
	}
	seen := make(map[int]bool, m)
	for r, v := range basicVars {
		if v < 0 || v >= n+m || seen[v] {
			return ErrBadWarmStart
		}
		seen[v] = true
		if varStatus[v] != r {
			return ErrBadWarmStart
		}
	}
	for v, s := range varStatus {
		if !seen[v] && s >= 0 {
			return ErrBadWarmStart
		}
	}
	return nil
}

// allSlackBasis builds the trivial basis of every row's own slack
// variable, the fallback used when a crash-selected basis turns out to
// be too close to singular to factorize.
func allSlackBasis(n, m int, lb, ub []float64) (basicVars, varStatus []int) {
	basicVars = make([]int, m)
	varStatus = make([]int, n+m)
	for i := 0; i < m; i++ {
		basicVars[i] = n + i
		varStatus[n+i] = i
	}
	for v := 0; v < n; v++ {
		switch {
		case lb[v] == ub[v]:
			varStatus[v] = basis.Fixed
		case !math.IsInf(lb[v], -1):
			varStatus[v] = basis.AtLower
		case !math.IsInf(ub[v], 1):
			varStatus[v] = basis.AtUpper
		default:
			varStatus[v] = basis.Free
		}
	}
	return basicVars, varStatus
}

func buildCrashRows(p *Problem, pre *preprocess.Result, effRHS []float64, n, m int) []crash.Row {
	csr := p.A.CSR()
	rows := make([]crash.Row, m)
	for i := 0; i < m; i++ {
		cols, vals := csr.Row(i)
		var rCols []int
		var rVals []float64
		for k, c := range cols {
			if pre != nil && pre.Fixed[c] {
				continue
			}
			rCols = append(rCols, c)
			rVals = append(rVals, vals[k])
		}
		rows[i] = crash.Row{Cols: rCols, Vals: rVals, RHS: effRHS[i], SlackVar: n + i}
	}
	return rows
}

func statsFor(start time.Time, iter, peakEtaCount, refactorCount int) Stats {
	return Stats{
		Iterations:    iter,
		Runtime:       time.Since(start),
		PeakEtaCount:  peakEtaCount,
		RefactorCount: refactorCount,
	}
}

func infeasibleResult(n, m int, start time.Time, infeasibleRow int) *Result {
	return &Result{
		Status:        Infeasible,
		X:             make([]float64, n),
		RC:            make([]float64, n),
		Pi:            make([]float64, m),
		Slack:         make([]float64, m),
		Stats:         statsFor(start, 0, 0, 0),
		InfeasibleRow: infeasibleRow,
		UnboundedVar:  -1,
	}
}

func numericalResult(n, m int, start time.Time) *Result {
	return &Result{
		Status:        Numerical,
		X:             make([]float64, n),
		RC:            make([]float64, n),
		Pi:            make([]float64, m),
		Slack:         make([]float64, m),
		Stats:         statsFor(start, 0, 0, 0),
		InfeasibleRow: -1,
		UnboundedVar:  -1,
	}
}

// suspendResult extracts a best-effort, internally-consistent solution
// from the current basis when a limit or interrupt fires mid-solve.
func suspendResult(bas *basis.Basis, p *Problem, lb, ub, obj, effRHS []float64, n, m int, start time.Time, iter, peakEtaCount int, status Status) *Result {
	nonbasic := nonbasicList(bas.VarStatus)
	nonbasicValueFn := func(v int) float64 { return nonbasicValue(lb[v], ub[v], bas.VarStatus[v]) }
	xB, err := bas.FTRAN(effectiveRHS(effRHS, bas, lb, ub, p))
	if err != nil {
		return numericalResult(n, m, start)
	}
	xFull := make([]float64, n+m)
	for col, v := range bas.BasicVars {
		xFull[v] = xB[col]
	}
	for _, j := range nonbasic {
		xFull[j] = nonbasicValueFn(j)
	}
	cB := make([]float64, m)
	for r, v := range bas.BasicVars {
		cB[r] = obj[v]
	}
	pi, err := bas.BTRAN(cB)
	if err != nil {
		pi = make([]float64, m)
	}
	rcFull := make([]float64, n)
	for j := 0; j < n; j++ {
		rows, vals := p.Column(j)
		rcFull[j] = obj[j] - sparse.Dot(pi, densify(m, rows, vals))
	}
	var objective float64
	for col, v := range bas.BasicVars {
		objective += obj[v] * xB[col]
	}
	for _, j := range nonbasic {
		objective += obj[j] * xFull[j]
	}
	return &Result{
		Status:        status,
		Objective:     objective,
		X:             xFull[:n],
		RC:            rcFull,
		Pi:            pi,
		Slack:         xFull[n:],
		Stats:         statsFor(start, iter, peakEtaCount, bas.RefactorCount),
		InfeasibleRow: -1,
		UnboundedVar:  -1,
	}
}
