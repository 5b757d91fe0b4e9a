package dag

import (
	"fmt"

	"storygraph/internal/common/utils"
	"storygraph/internal/topology"
)

// ViolationKind classifies a structural invariant failure.
type ViolationKind string

const (
	KindStartCount   ViolationKind = "start_count"
	KindLevelOrder   ViolationKind = "level_order"
	KindNodeCount    ViolationKind = "node_count"
	KindOutDegree    ViolationKind = "out_degree"
	KindConvergence  ViolationKind = "convergence"
	KindReachability ViolationKind = "reachability"
	KindDeadEnd      ViolationKind = "dead_end"
	KindInfeasible   ViolationKind = "infeasible_distribution"
)

// InvariantViolation is an internal error driving the bounded regeneration
// loop; it never reaches callers of Generate directly.
type InvariantViolation struct {
	Kind   ViolationKind
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("graph invariant violated (%s): %s", e.Kind, e.Detail)
}

func violationf(kind ViolationKind, format string, args ...any) error {
	return &InvariantViolation{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// validateDAG checks a candidate graph against every structural invariant:
// exact node count, a unique start, strict level monotonicity on edges,
// bounded out-degree, full reachability, flagged endings, and the
// convergence contract of the spec's pattern.
func validateDAG(spec topology.Spec, d *StoryDAG) error {
	if len(d.Nodes) != spec.NodeCount {
		return violationf(KindNodeCount, "got %d nodes, want %d", len(d.Nodes), spec.NodeCount)
	}

	in := make(map[NodeID]int, len(d.Nodes))
	out := make(map[NodeID]int, len(d.Nodes))
	adj := make(map[NodeID][]NodeID, len(d.Nodes))
	for _, e := range d.Edges {
		from, okFrom := d.Nodes[e.From]
		to, okTo := d.Nodes[e.To]
		if !okFrom || !okTo {
			return violationf(KindLevelOrder, "edge %s->%s references unknown node", e.From, e.To)
		}
		if to.Level != from.Level+1 {
			return violationf(KindLevelOrder, "edge %s->%s spans levels %d->%d", e.From, e.To, from.Level, to.Level)
		}
		in[e.To]++
		out[e.From]++
		adj[e.From] = append(adj[e.From], e.To)
	}

	roots := 0
	for id, node := range d.Nodes {
		if in[id] == 0 {
			roots++
			if id != d.StartNodeID || node.Level != 0 {
				return violationf(KindStartCount, "node %s has no incoming edges but is not the start", id)
			}
		}
		if out[id] > spec.BranchingFactor {
			return violationf(KindOutDegree, "node %s has %d outgoing edges, max %d", id, out[id], spec.BranchingFactor)
		}
		if out[id] == 0 && !node.IsEnd {
			return violationf(KindDeadEnd, "node %s has no outgoing edges but is not an ending", id)
		}
		if out[id] > 0 && node.IsEnd {
			return violationf(KindDeadEnd, "ending %s has outgoing edges", id)
		}
	}
	if roots != 1 {
		return violationf(KindStartCount, "got %d entry nodes, want exactly 1", roots)
	}

	visited := map[NodeID]bool{d.StartNodeID: true}
	queue := []NodeID{d.StartNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	if len(visited) != len(d.Nodes) {
		return violationf(KindReachability, "%d of %d nodes unreachable from start", len(d.Nodes)-len(visited), len(d.Nodes))
	}

	return validateConvergence(spec, d, in)
}

// validateConvergence checks merge count and placement against the pattern.
func validateConvergence(spec topology.Spec, d *StoryDAG, in map[NodeID]int) error {
	var merges []*ContentNode
	for id, deg := range in {
		if deg >= 2 {
			merges = append(merges, d.Nodes[id])
		}
	}
	for _, node := range d.Nodes {
		if node.IsConvergence != (in[node.ID] >= 2) {
			return violationf(KindConvergence, "node %s convergence flag does not match in-degree %d", node.ID, in[node.ID])
		}
	}

	levels := levelCount(spec)
	switch spec.Pattern {
	case topology.PureBranching:
		if len(merges) != 0 {
			return violationf(KindConvergence, "pure branching graph has %d merge nodes", len(merges))
		}
	case topology.ParallelPaths:
		if len(merges) != 0 {
			return violationf(KindConvergence, "parallel paths graph has %d merge nodes", len(merges))
		}
		wantTracks := utils.MinInt(spec.BranchingFactor, spec.NodeCount-1)
		if got := len(adjOf(d, d.StartNodeID)); got != wantTracks {
			return violationf(KindConvergence, "start fans out into %d tracks, want %d", got, wantTracks)
		}
	case topology.SingleConvergence:
		if len(merges) != 1 {
			return violationf(KindConvergence, "got %d merge nodes, want exactly 1", len(merges))
		}
		want := targetLevel(spec, levels)
		if diff := merges[0].Level - want; diff < -1 || diff > 1 {
			return violationf(KindConvergence, "merge node at level %d, want within 1 of %d", merges[0].Level, want)
		}
	case topology.MultipleConvergence:
		targets := plannedMerges(spec, levels)
		if len(merges) != len(targets) {
			return violationf(KindConvergence, "got %d merge nodes, want %d", len(merges), len(targets))
		}
		for _, m := range merges {
			if !nearAny(m.Level, targets) {
				return violationf(KindConvergence, "merge node %s at level %d matches no target %v", m.ID, m.Level, targets)
			}
		}
	case topology.EndOnly:
		if len(merges) == 0 {
			return violationf(KindConvergence, "end-converging graph has no merge nodes")
		}
		threshold := contractionStart(spec, levels)
		for _, m := range merges {
			if m.Level < threshold-1 {
				return violationf(KindConvergence, "merge node %s at level %d precedes threshold %d", m.ID, m.Level, threshold)
			}
		}
	}
	return nil
}

func nearAny(level int, targets []int) bool {
	for _, t := range targets {
		if diff := level - t; diff >= -1 && diff <= 1 {
			return true
		}
	}
	return false
}

func adjOf(d *StoryDAG, id NodeID) []NodeID {
	var out []NodeID
	for _, e := range d.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}
