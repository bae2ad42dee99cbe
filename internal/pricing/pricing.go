// Package pricing implements entering-variable selection for the revised
// simplex method: reduced-cost attractiveness classification, multi-level
// candidate lists with partial-pricing sections, and steepest-edge/Devex
// weight maintenance across pivots.
package pricing

import "math"

// Strategy selects how candidates are scored.
type Strategy int

const (
	Dantzig Strategy = iota
	PartialDantzig
	SteepestEdge
	Devex
)

// Nonbasic status codes, mirrored from the basis package so this package
// does not need to import it just for four constants.
const (
	AtLower = -1
	AtUpper = -2
	Free    = -3
	Fixed   = -4
)

const minLevelSize = 100

// ReducedCostFunc computes the reduced cost of nonbasic variable j. It is
// supplied by the caller so that partial scans only ever price the
// variables they actually visit.
type ReducedCostFunc func(j int) float64

// Candidate is an entering-variable candidate found by a scan.
type Candidate struct {
	Var         int
	ReducedCost float64
	Score       float64
}

type levelState struct {
	count      int // -1 = stale
	attractive []Candidate
}

// Context holds the pricing strategy, steepest-edge/Devex weights, and the
// per-level candidate caches.
type Context struct {
	Strategy  Strategy
	GammaMin  float64
	Gamma     []float64 // indexed by variable, size n+m
	MaxLevels int
	PartialN  int // partial pricing section count, default 10

	CurrentLevel int

	cache []levelState
}

// NewContext creates a pricing context for nVars variables (structural
// plus slack). GammaMin defaults to 1.0, MaxLevels to 3, PartialN to 10 if
// left zero.
func NewContext(nVars int, strategy Strategy) *Context {
	ctx := &Context{
		Strategy:  strategy,
		GammaMin:  1.0,
		MaxLevels: 3,
		PartialN:  10,
	}
	ctx.Gamma = make([]float64, nVars)
	for i := range ctx.Gamma {
		ctx.Gamma[i] = 1.0
	}
	ctx.cache = make([]levelState, ctx.MaxLevels)
	ctx.InvalidateCache()
	return ctx
}

// InvalidateCache marks every level's cache stale and clears the current
// level, as required after every pivot.
func (ctx *Context) InvalidateCache() {
	for i := range ctx.cache {
		ctx.cache[i].count = -1
		ctx.cache[i].attractive = nil
	}
	ctx.CurrentLevel = 0
}

func attractive(status int, rc, optTol float64) bool {
	switch status {
	case AtLower:
		return rc < -optTol
	case AtUpper:
		return rc > optTol
	case Free:
		return math.Abs(rc) > optTol
	default: // Fixed, or a basic row index (>= 0)
		return false
	}
}

func (ctx *Context) score(j int, rc float64) float64 {
	if ctx.Strategy == SteepestEdge || ctx.Strategy == Devex {
		g := ctx.Gamma[j]
		if g < ctx.GammaMin {
			g = ctx.GammaMin
		}
		return math.Abs(rc) / math.Sqrt(g)
	}
	return math.Abs(rc)
}

// scan filters vars down to the attractive candidates, scoring each.
func (ctx *Context) scan(vars []int, varStatus []int, rc ReducedCostFunc, optTol float64) []Candidate {
	var out []Candidate
	for _, j := range vars {
		r := rc(j)
		if !attractive(varStatus[j], r, optTol) {
			continue
		}
		out = append(out, Candidate{Var: j, ReducedCost: r, Score: ctx.score(j, r)})
	}
	return out
}

func pickBest(cands []Candidate) Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}

// levelSize is the sample size for level k >= 1: max(sqrt(n), 100), capped
// at the number of available nonbasic variables.
func levelSize(n, available int) int {
	size := int(math.Sqrt(float64(n)))
	if size < minLevelSize {
		size = minLevelSize
	}
	if size > available {
		size = available
	}
	return size
}

// sample takes an evenly-strided subset of nonbasic sized for the given
// level, starting at a level-dependent phase within the stride so that,
// when the stride is at least 2, escalating from one level to the next
// visits a different slice of nonbasic. With a stride of 1 every level
// samples the same leading slice.
func sample(nonbasic []int, size, level, maxLevels int) []int {
	if size >= len(nonbasic) {
		return nonbasic
	}
	if size <= 0 {
		return nil
	}
	stride := len(nonbasic) / size
	if stride < 1 {
		stride = 1
	}
	phase := 0
	if maxLevels > 0 {
		phase = (level * stride) / maxLevels
	}
	start := phase % stride
	out := make([]int, 0, size)
	for i, count := start, 0; count < len(nonbasic) && len(out) < size; i, count = i+stride, count+1 {
		out = append(out, nonbasic[i%len(nonbasic)])
	}
	return out
}

// sections splits nonbasic into PartialN contiguous, roughly equal slices.
func (ctx *Context) sections(nonbasic []int) [][]int {
	n := ctx.PartialN
	if n <= 0 {
		n = 10
	}
	out := make([][]int, n)
	if len(nonbasic) == 0 {
		return out
	}
	base := len(nonbasic) / n
	rem := len(nonbasic) % n
	start := 0
	for t := 0; t < n; t++ {
		sz := base
		if t < rem {
			sz++
		}
		out[t] = nonbasic[start : start+sz]
		start += sz
	}
	return out
}

// SelectEntering runs the multi-level search: sampled levels 1..MaxLevels-1
// first, escalating on failure, then (under the PartialDantzig strategy
// only) a partial-pricing section of level 0, falling back to a full,
// cached level-0 scan. iteration is used to pick which section of level 0
// partial pricing visits. It reports ok=false when no
// attractive candidate exists anywhere, i.e. the current basis is optimal.
func (ctx *Context) SelectEntering(nonbasic []int, varStatus []int, rc ReducedCostFunc, optTol float64, iteration int) (Candidate, bool) {
	if len(ctx.cache) != ctx.MaxLevels {
		ctx.cache = make([]levelState, ctx.MaxLevels)
		for i := range ctx.cache {
			ctx.cache[i].count = -1
		}
	}

	n := len(varStatus)
	for level := 1; level < ctx.MaxLevels; level++ {
		if ctx.cache[level].count < 0 {
			size := levelSize(n, len(nonbasic))
			members := sample(nonbasic, size, level, ctx.MaxLevels)
			ctx.cache[level].attractive = ctx.scan(members, varStatus, rc, optTol)
			ctx.cache[level].count = len(ctx.cache[level].attractive)
		}
		if ctx.cache[level].count > 0 {
			ctx.CurrentLevel = level
			return pickBest(ctx.cache[level].attractive), true
		}
	}

	if ctx.Strategy == PartialDantzig {
		secs := ctx.sections(nonbasic)
		t := iteration % len(secs)
		partial := ctx.scan(secs[t], varStatus, rc, optTol)
		if len(partial) > 0 {
			ctx.CurrentLevel = 0
			return pickBest(partial), true
		}
	}

	if ctx.cache[0].count < 0 {
		ctx.cache[0].attractive = ctx.scan(nonbasic, varStatus, rc, optTol)
		ctx.cache[0].count = len(ctx.cache[0].attractive)
	}
	if ctx.cache[0].count > 0 {
		ctx.CurrentLevel = 0
		return pickBest(ctx.cache[0].attractive), true
	}
	return Candidate{}, false
}

// UpdateWeights applies the steepest-edge (or Devex) weight recurrence
// after a pivot at leaving row q with pivot column value alphaQ = α[q].
// tauOf(j) returns τ_j = β·A_j, the pivot row's entry for nonbasic column
// j, computed by the caller from the BTRAN vector β; this is the same
// quantity the specification's linear and quadratic update terms both
// reference.
func (ctx *Context) UpdateWeights(vIn, q int, alphaQ float64, nonbasic []int, tauOf func(j int) float64) {
	if ctx.Strategy != SteepestEdge && ctx.Strategy != Devex {
		return
	}
	gIn := ctx.Gamma[vIn]
	if gIn < ctx.GammaMin {
		gIn = ctx.GammaMin
	}

	if ctx.Strategy == Devex {
		for _, j := range nonbasic {
			if j == vIn {
				continue
			}
			tau := tauOf(j)
			if tau == 0 {
				continue
			}
			ratio := tau / alphaQ
			if cand := ratio * ratio * gIn; cand > ctx.Gamma[j] {
				ctx.Gamma[j] = cand
			}
		}
		newGammaIn := gIn / (alphaQ * alphaQ)
		if newGammaIn < 1 {
			newGammaIn = 1
		}
		ctx.Gamma[vIn] = newGammaIn
		return
	}

	for _, j := range nonbasic {
		if j == vIn {
			continue
		}
		tau := tauOf(j)
		if tau == 0 {
			continue
		}
		ratio := tau / alphaQ
		g := ctx.Gamma[j] - 2*tau*ratio + gIn*ratio*ratio
		if g < ctx.GammaMin {
			g = ctx.GammaMin
		}
		ctx.Gamma[j] = g
	}

	newGammaIn := gIn / (alphaQ * alphaQ)
	if newGammaIn < ctx.GammaMin {
		newGammaIn = ctx.GammaMin
	}
	ctx.Gamma[vIn] = newGammaIn
}
