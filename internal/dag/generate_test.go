package dag

import (
	"errors"
	"reflect"
	"testing"

	"storygraph/internal/topology"
)

func spec(n int, p topology.Pattern, ratio *float64, depth, bf int) topology.Spec {
	return topology.Spec{
		NodeCount:        n,
		Pattern:          p,
		ConvergenceRatio: ratio,
		MaxDepth:         depth,
		BranchingFactor:  bf,
	}
}

// checkStructure asserts the invariants every generated graph must hold,
// regardless of pattern.
func checkStructure(t *testing.T, s topology.Spec, d *StoryDAG) {
	t.Helper()
	if len(d.Nodes) != s.NodeCount {
		t.Fatalf("node count: got=%d want=%d", len(d.Nodes), s.NodeCount)
	}

	start, ok := d.Nodes[d.StartNodeID]
	if !ok || start.Level != 0 || !start.IsStart {
		t.Fatalf("start node %s missing or malformed", d.StartNodeID)
	}
	for id, n := range d.Nodes {
		if n.Level == 0 && id != d.StartNodeID {
			t.Fatalf("second node %s at level 0", id)
		}
	}

	out := d.OutDegrees()
	in := d.InDegrees()
	for _, e := range d.Edges {
		from, to := d.Nodes[e.From], d.Nodes[e.To]
		if from == nil || to == nil {
			t.Fatalf("edge %s->%s references unknown node", e.From, e.To)
		}
		if to.Level != from.Level+1 {
			t.Fatalf("edge %s->%s skips levels (%d->%d)", e.From, e.To, from.Level, to.Level)
		}
	}
	for id := range d.Nodes {
		if out[id] > s.BranchingFactor {
			t.Fatalf("node %s out-degree %d exceeds branching factor %d", id, out[id], s.BranchingFactor)
		}
		if id != d.StartNodeID && in[id] == 0 {
			t.Fatalf("node %s unreachable", id)
		}
		if (out[id] == 0) != d.Nodes[id].IsEnd {
			t.Fatalf("node %s IsEnd flag disagrees with out-degree %d", id, out[id])
		}
	}
}

func TestGenerateSeededDeterministic(t *testing.T) {
	s := spec(16, topology.MultipleConvergence, topology.Ratio(0.6), 10, 2)
	a, err := GenerateSeeded(s, 42)
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	b, err := GenerateSeeded(s, 42)
	if err != nil {
		t.Fatalf("second generation: %v", err)
	}
	if !reflect.DeepEqual(a.Edges, b.Edges) {
		t.Fatalf("same seed produced different edge sets")
	}
	if !reflect.DeepEqual(a.ConvergencePoints, b.ConvergencePoints) {
		t.Fatalf("same seed produced different convergence points")
	}
}

func TestGenerateStructureAcrossPatternsAndSeeds(t *testing.T) {
	specs := []topology.Spec{
		spec(12, topology.SingleConvergence, topology.Ratio(0.5), 8, 2),
		spec(16, topology.MultipleConvergence, topology.Ratio(0.6), 10, 2),
		spec(24, topology.EndOnly, topology.Ratio(0.9), 12, 2),
		spec(16, topology.PureBranching, nil, 10, 3),
		spec(10, topology.ParallelPaths, nil, 8, 3),
	}
	for _, s := range specs {
		for seed := int64(1); seed <= 25; seed++ {
			d, err := GenerateSeeded(s, seed)
			if err != nil {
				t.Fatalf("pattern %s seed %d: %v", s.Pattern, seed, err)
			}
			checkStructure(t, s, d)
		}
	}
}

func TestSingleConvergenceMergeNearTarget(t *testing.T) {
	s := spec(8, topology.SingleConvergence, topology.Ratio(0.25), 5, 2)
	for seed := int64(1); seed <= 50; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(d.ConvergencePoints) != 1 {
			t.Fatalf("seed %d: got %d convergence points, want 1", seed, len(d.ConvergencePoints))
		}
		want := targetLevel(s, levelCount(s))
		got := d.Nodes[d.ConvergencePoints[0]].Level
		if got < want-1 || got > want+1 {
			t.Fatalf("seed %d: merge at level %d, want within 1 of %d", seed, got, want)
		}
	}
}

func TestPureBranchingHasNoMerges(t *testing.T) {
	s := spec(16, topology.PureBranching, nil, 10, 3)
	for seed := int64(1); seed <= 50; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for id, deg := range d.InDegrees() {
			if deg > 1 {
				t.Fatalf("seed %d: node %s has in-degree %d in a pure tree", seed, id, deg)
			}
		}
		if len(d.ConvergencePoints) != 0 {
			t.Fatalf("seed %d: unexpected convergence points %v", seed, d.ConvergencePoints)
		}
	}
}

func TestParallelPathsDisjointTracks(t *testing.T) {
	s := spec(10, topology.ParallelPaths, nil, 8, 3)
	for seed := int64(1); seed <= 50; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(d.ConvergencePoints) != 0 {
			t.Fatalf("seed %d: tracks merged: %v", seed, d.ConvergencePoints)
		}
		wantTracks := 3
		if got := d.OutDegrees()[d.StartNodeID]; got != wantTracks {
			t.Fatalf("seed %d: start fan-out %d, want %d", seed, got, wantTracks)
		}
		// Every non-start node continues at most one way.
		for id, deg := range d.OutDegrees() {
			if id != d.StartNodeID && deg > 1 {
				t.Fatalf("seed %d: track node %s branches", seed, id)
			}
		}
	}
}

func TestEndOnlyMergesOnlyPastThreshold(t *testing.T) {
	s := spec(24, topology.EndOnly, topology.Ratio(0.9), 12, 2)
	for seed := int64(1); seed <= 50; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		threshold := contractionStart(s, levelCount(s))
		for _, id := range d.ConvergencePoints {
			if lvl := d.Nodes[id].Level; lvl < threshold-1 {
				t.Fatalf("seed %d: merge at level %d before threshold %d", seed, lvl, threshold)
			}
		}
	}
}

func TestEndOnlyAlwaysConverges(t *testing.T) {
	s := spec(24, topology.EndOnly, topology.Ratio(0.9), 12, 2)
	for seed := int64(1); seed <= 500; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(d.ConvergencePoints) == 0 {
			t.Fatalf("seed %d: end-converging graph has no convergence points", seed)
		}
	}
}

func TestMultipleConvergenceMatchesPlan(t *testing.T) {
	s := spec(16, topology.MultipleConvergence, topology.Ratio(0.6), 10, 2)
	for seed := int64(1); seed <= 50; seed++ {
		d, err := GenerateSeeded(s, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		want := len(plannedMerges(s, levelCount(s)))
		if got := len(d.ConvergencePoints); got != want {
			t.Fatalf("seed %d: %d convergence points, want %d", seed, got, want)
		}
	}
}

func TestGenerateExhaustsOnInfeasibleSpec(t *testing.T) {
	// Depth 3 with branching 2 caps the graph at 15 nodes; 100 can never fit.
	s := spec(100, topology.PureBranching, nil, 3, 2)
	var events []TraceEvent
	_, err := GenerateTraced(s, 7, func(ev TraceEvent) { events = append(events, ev) })
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("got %v, want ErrGenerationExhausted", err)
	}
	retries := 0
	for _, ev := range events {
		if ev.Stage == "retry" {
			retries++
		}
	}
	if retries != maxGenerateAttempts {
		t.Fatalf("got %d retries, want %d", retries, maxGenerateAttempts)
	}
}

func TestGenerateFreshSeeds(t *testing.T) {
	s := spec(12, topology.SingleConvergence, topology.Ratio(0.5), 8, 2)
	d, err := Generate(s)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	checkStructure(t, s, d)
}
