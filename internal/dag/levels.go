package dag

import (
	"fmt"
	"math"
	"math/rand"

	"storygraph/internal/common/utils"
	"storygraph/internal/topology"
)

// levelCount decides how many levels beyond the start node the graph uses.
// Depth is capped by the spec; the node count caps it further because every
// level must hold at least one node. Convergence-bearing patterns keep one
// node in reserve so the merge level's predecessor can be widened to two.
func levelCount(spec topology.Spec) int {
	cap := spec.NodeCount - 1
	if spec.Pattern != topology.PureBranching {
		cap = spec.NodeCount - 2
	}
	return utils.MinInt(spec.MaxDepth, cap)
}

// targetLevel is the SingleConvergence merge level: round(node_count * ratio),
// clamped to the range where a merge is structurally possible (a node needs
// two distinct predecessors, so level 2 at the earliest).
func targetLevel(spec topology.Spec, levels int) int {
	r := 0.0
	if spec.ConvergenceRatio != nil {
		r = *spec.ConvergenceRatio
	}
	t := int(math.Round(float64(spec.NodeCount) * r))
	return utils.ClampInt(t, 2, levels)
}

// contractionStart is the EndOnly threshold level round(max_depth * ratio);
// below it the graph is a pure tree, from it onward branches merge.
func contractionStart(spec topology.Spec, levels int) int {
	r := 0.0
	if spec.ConvergenceRatio != nil {
		r = *spec.ConvergenceRatio
	}
	s := int(math.Round(float64(spec.MaxDepth) * r))
	return utils.ClampInt(s, 2, levels)
}

// plannedMerges lists the levels that receive an injected merge point, in
// ascending order. SingleConvergence always yields exactly one. For
// MultipleConvergence the targets are spaced by max(1, round(1/ratio)) levels
// and truncated to the spare-node budget, since widening each merge level's
// predecessor costs one node. The generator and the graph validator share
// this function so both agree on the expected merge set.
func plannedMerges(spec topology.Spec, levels int) []int {
	switch spec.Pattern {
	case topology.SingleConvergence:
		return []int{targetLevel(spec, levels)}
	case topology.MultipleConvergence:
		r := 0.0
		if spec.ConvergenceRatio != nil {
			r = *spec.ConvergenceRatio
		}
		if r <= 0 {
			return nil
		}
		iv := int(math.Round(1 / r))
		if iv < 1 {
			iv = 1
		}
		first := iv
		if first < 2 {
			first = 2
		}
		budget := spec.NodeCount - 1 - levels
		var targets []int
		for t := first; t <= levels && budget > 0; t += iv {
			targets = append(targets, t)
			budget--
		}
		return targets
	}
	return nil
}

// distribute apportions the spec's node count across levels 0..levels. Level
// 0 holds exactly the start node and every other level at least one node;
// the rest are scattered at random, subject to the fan-in cap (a level can
// hold at most branching_factor times its predecessor's nodes) and to
// pattern-specific shape constraints. Returns one count per level.
func distribute(spec topology.Spec, levels int, rng *rand.Rand) ([]int, error) {
	counts := make([]int, levels+1)
	for i := range counts {
		counts[i] = 1
	}

	extra := spec.NodeCount - 1 - levels
	if extra < 0 {
		return nil, &InvariantViolation{
			Kind:   KindInfeasible,
			Detail: fmt.Sprintf("%d nodes cannot fill %d levels", spec.NodeCount, levels),
		}
	}

	// Widen each merge level's predecessor so the merge point can receive a
	// second incoming edge from a distinct parent.
	merges := plannedMerges(spec, levels)
	reserved := make(map[int]bool, len(merges))
	for _, t := range merges {
		reserved[t] = true
		if counts[t-1] < 2 && extra > 0 {
			counts[t-1]++
			extra--
		}
	}

	// End-converging graphs widen the level just before the threshold to two
	// nodes. Contraction widths never increase and the final level is pinned
	// to a single node, so the widths must drop somewhere at or past the
	// threshold and the contraction wiring merges branches there. Flat
	// contraction widths would otherwise wire one-to-one and leave the graph
	// merge-free.
	if spec.Pattern == topology.EndOnly {
		s := contractionStart(spec, levels)
		if counts[s-1] < 2 && extra > 0 {
			counts[s-1]++
			extra--
		}
	}

	for extra > 0 {
		var eligible []int
		for i := 1; i <= levels; i++ {
			if scatterAllowed(spec, counts, reserved, i, levels) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			return nil, &InvariantViolation{
				Kind:   KindInfeasible,
				Detail: fmt.Sprintf("no level can absorb %d remaining nodes (depth %d, branching %d)", extra, spec.MaxDepth, spec.BranchingFactor),
			}
		}
		counts[eligible[rng.Intn(len(eligible))]]++
		extra--
	}

	return counts, nil
}

// scatterAllowed reports whether one more node fits on level i.
func scatterAllowed(spec topology.Spec, counts []int, reserved map[int]bool, i, levels int) bool {
	cap := counts[i-1] * spec.BranchingFactor
	if reserved[i] {
		// Keep one outgoing slot free on the predecessor level for the
		// injected merge edge.
		cap--
	}
	if counts[i] >= cap {
		return false
	}

	if spec.Pattern == topology.EndOnly {
		if i == levels {
			// The final level stays a single converging ending.
			return false
		}
		s := contractionStart(spec, levels)
		if i < s {
			// Branching region: grow as a ramp toward the threshold so no
			// level is ever wider than the next (no accidental merges).
			return i == s-1 || counts[i] < counts[i+1]
		}
		// Contraction region: each level stays at most as wide as the one
		// before it, so parents always outnumber children.
		return counts[i] < counts[i-1]
	}

	return true
}
