package rsimplex

import "time"

// Stats reports solve-level observability counters in place of logging,
// matching the numerical core's silent style: callers that want
// visibility read Stats, they don't parse log lines.
type Stats struct {
	Iterations    int
	Runtime       time.Duration
	PeakEtaCount  int
	RefactorCount int
}

// Result is the output of a solve.
type Result struct {
	Status    Status
	Objective float64

	X     []float64 // structural primal assignment, length n
	RC    []float64 // reduced costs, length n
	Pi    []float64 // dual prices, length m
	Slack []float64 // row slacks, length m

	Stats Stats

	// InfeasibleRow is the basis row with the worst bound violation when
	// Phase I ends with Status == Infeasible, or -1 otherwise (including
	// when preprocessing detects the infeasibility).
	InfeasibleRow int
	// UnboundedVar and UnboundedRay describe the entering variable and
	// its FTRAN pivot column when Status == Unbounded, or (-1, nil)
	// otherwise: moving UnboundedVar along UnboundedRay improves the
	// objective without bound.
	UnboundedVar int
	UnboundedRay []float64
}
