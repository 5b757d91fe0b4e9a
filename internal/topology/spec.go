// Package topology defines the declarative contract that shapes a generated
// story graph: the five-field TopologySpec, the named presets, validation,
// and the three-tier request/preset/default resolution.
package topology

// Pattern selects how (and whether) divergent story branches reunite.
type Pattern string

const (
	// SingleConvergence merges all branches once, at a level derived from the ratio.
	SingleConvergence Pattern = "SingleConvergence"
	// MultipleConvergence injects several merge points spaced by the ratio-derived interval.
	MultipleConvergence Pattern = "MultipleConvergence"
	// EndOnly keeps a pure branching tree until the ratio-derived threshold, then contracts.
	EndOnly Pattern = "EndOnly"
	// PureBranching disables convergence entirely; the result is a tree.
	PureBranching Pattern = "PureBranching"
	// ParallelPaths splits into disjoint tracks at the first fan-out and never merges.
	ParallelPaths Pattern = "ParallelPaths"
)

// Known reports whether p is one of the five supported patterns.
func (p Pattern) Known() bool {
	switch p {
	case SingleConvergence, MultipleConvergence, EndOnly, PureBranching, ParallelPaths:
		return true
	}
	return false
}

// RequiresRatio reports whether the pattern needs a convergence point ratio.
// The remaining known patterns forbid it.
func (p Pattern) RequiresRatio() bool {
	switch p {
	case SingleConvergence, MultipleConvergence, EndOnly:
		return true
	}
	return false
}

const (
	MinNodeCount = 4
	MaxNodeCount = 100

	MinDepth = 3
	MaxDepth = 20

	MinBranchingFactor = 2
	MaxBranchingFactor = 4
)

// Spec is the resolved generation contract. A Spec handed out by this package
// (preset lookup or resolution) has always passed Validate; candidates built
// elsewhere must be validated before use.
type Spec struct {
	NodeCount        int      `json:"node_count"`
	Pattern          Pattern  `json:"convergence_pattern"`
	ConvergenceRatio *float64 `json:"convergence_point_ratio,omitempty"`
	MaxDepth         int      `json:"max_depth"`
	BranchingFactor  int      `json:"branching_factor"`
}

// Ratio returns a pointer to v, for building specs with a convergence ratio.
func Ratio(v float64) *float64 { return &v }
