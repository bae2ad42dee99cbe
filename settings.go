package rsimplex

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/gosimplex/rsimplex/internal/pricing"
)

// Settings collects every tolerance, limit, and strategy choice the
// driver consults. The zero value is not usable; start from
// DefaultSettings and override individual fields.
type Settings struct {
	FeasTol  float64
	OptTol   float64
	PivotTol float64
	FixTol   float64

	MaxIter          int
	TimeLimit        time.Duration
	MaxEtaCount      int
	MaxEtaMemory     int64
	RefactorInterval int

	PerturbIters int // 0 disables perturbation

	DisablePreprocess   bool
	MaxPreprocessPasses int

	MarkowitzThreshold float64

	Strategy pricing.Strategy
	PartialN int
	Rand     *rand.Rand

	// WarmBasicVars and WarmVarStatus, if both non-nil, seed the initial
	// basis instead of running Crash.
	WarmBasicVars []int
	WarmVarStatus []int
}

// DefaultSettings returns the solver's default tolerances and limits.
func DefaultSettings() Settings {
	return Settings{
		FeasTol:  1e-7,
		OptTol:   1e-7,
		PivotTol: 1e-9,
		FixTol:   1e-9,

		MaxIter:          20000,
		TimeLimit:        60 * time.Second,
		MaxEtaCount:      250,
		MaxEtaMemory:     64 << 20,
		RefactorInterval: 100,

		PerturbIters: 100,

		MaxPreprocessPasses: 10,
		MarkowitzThreshold:  0.1,

		Strategy: pricing.SteepestEdge,
		PartialN: 10,
		Rand:     rand.New(rand.NewSource(1)),
	}
}
