// Package ratiotest implements the Harris two-pass ratio test used to
// pick the leaving variable and step length for a simplex pivot, plus
// bound-flip detection as a cheaper alternative to a basis change.
package ratiotest

import "math"

// Direction is the sign of movement of the entering variable: +1 if it
// increases from its current bound, -1 if it decreases.
type Direction int

const (
	Increasing Direction = 1
	Decreasing Direction = -1
)

// Row describes one basic variable's current state for the ratio test.
type Row struct {
	Var   int
	Value float64
	Lb    float64 // math.Inf(-1) if unbounded below
	Ub    float64 // math.Inf(1) if unbounded above
	Alpha float64 // the pivot column's entry for this row, α[i]
}

// Result reports the outcome of the ratio test.
type Result struct {
	Unbounded      bool
	Row            int // index into the rows slice passed to Run
	Var            int
	Step           float64
	ThetaHat       float64 // the Pass-1 relaxed maximum step θ̂
	LeavingAtUpper bool    // true if the leaving variable settles at its upper bound
}

// Run performs the Harris two-pass ratio test: pass 1 computes a relaxed
// maximum step θ̂ tolerating bound violations up to 10·feasTol, pass 2
// restricts to rows whose exact step is within feasTol of θ̂ and, among
// those, picks the one with the largest |α[i]| for numerical stability,
// breaking ties by lowest row index.
func Run(rows []Row, dir Direction, pivotTol, feasTol float64) Result {
	const relaxFactor = 10.0
	relaxedTol := relaxFactor * feasTol

	thetaHat := math.Inf(1)
	for _, r := range rows {
		if math.Abs(r.Alpha) <= pivotTol {
			continue
		}
		theta, _ := stepFor(r, dir, relaxedTol)
		if theta < thetaHat {
			thetaHat = theta
		}
	}

	if math.IsInf(thetaHat, 1) {
		return Result{Unbounded: true, ThetaHat: thetaHat}
	}

	bestIdx := -1
	bestAbsAlpha := -1.0
	var bestStep float64
	var bestAtUpper bool
	for i, r := range rows {
		if math.Abs(r.Alpha) <= pivotTol {
			continue
		}
		theta, atUpper := stepFor(r, dir, 0)
		if theta > thetaHat+feasTol {
			continue
		}
		absAlpha := math.Abs(r.Alpha)
		if absAlpha > bestAbsAlpha+1e-12 {
			bestIdx, bestAbsAlpha, bestStep, bestAtUpper = i, absAlpha, theta, atUpper
		}
	}

	if bestIdx < 0 {
		return Result{Unbounded: true, ThetaHat: thetaHat}
	}
	if bestStep < 0 {
		bestStep = 0
	}

	return Result{
		Row:            bestIdx,
		Var:            rows[bestIdx].Var,
		Step:           bestStep,
		ThetaHat:       thetaHat,
		LeavingAtUpper: bestAtUpper,
	}
}

// stepFor computes how far the entering variable can move, in the given
// direction, before row r's basic variable would violate its bound by
// more than slack. It also reports which bound the row would hit.
func stepFor(r Row, dir Direction, slack float64) (theta float64, atUpper bool) {
	if dir == Increasing {
		// x_i = value - alpha*theta as the entering variable increases.
		switch {
		case r.Alpha > 0:
			if math.IsInf(r.Lb, -1) {
				return math.Inf(1), false
			}
			return (r.Value - r.Lb + slack) / r.Alpha, false
		case r.Alpha < 0:
			if math.IsInf(r.Ub, 1) {
				return math.Inf(1), false
			}
			return (r.Value - r.Ub - slack) / r.Alpha, true
		}
	} else {
		switch {
		case r.Alpha > 0:
			if math.IsInf(r.Ub, 1) {
				return math.Inf(1), false
			}
			return (r.Ub - r.Value + slack) / r.Alpha, true
		case r.Alpha < 0:
			if math.IsInf(r.Lb, -1) {
				return math.Inf(1), false
			}
			return (r.Lb - r.Value - slack) / r.Alpha, false
		}
	}
	return math.Inf(1), false
}

// BoundFlip reports whether the entering variable's own bound-flip step
// (its full bound range) is finite and strictly cheaper than θ̂: if so,
// the driver may move the entering variable directly to its opposite
// bound instead of performing a basis change.
func BoundFlip(lb, ub, thetaHat float64) (flip bool, step float64) {
	if math.IsInf(lb, -1) || math.IsInf(ub, 1) {
		return false, 0
	}
	step = ub - lb
	return step < thetaHat, step
}
