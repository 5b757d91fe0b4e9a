package dag

import (
	"fmt"
	"math/rand"

	"storygraph/internal/common/utils"
	"storygraph/internal/topology"
)

// builder accumulates nodes and edges for one generation attempt.
type builder struct {
	spec  topology.Spec
	rng   *rand.Rand
	alloc *IDAllocator

	nodes    map[NodeID]*ContentNode
	edges    []Edge
	outDeg   map[NodeID]int
	inDeg    map[NodeID]int
	children map[NodeID]map[NodeID]bool
}

func newBuilder(spec topology.Spec, rng *rand.Rand) *builder {
	return &builder{
		spec:     spec,
		rng:      rng,
		alloc:    NewIDAllocator(),
		nodes:    make(map[NodeID]*ContentNode),
		outDeg:   make(map[NodeID]int),
		inDeg:    make(map[NodeID]int),
		children: make(map[NodeID]map[NodeID]bool),
	}
}

// generate builds one candidate StoryDAG. The result satisfies the
// structural invariants whenever the spec is geometrically feasible; the
// caller still runs it through validateDAG before handing it out.
func generate(spec topology.Spec, rng *rand.Rand) (*StoryDAG, error) {
	if spec.Pattern == topology.ParallelPaths {
		return generateParallel(spec, rng)
	}

	levels := levelCount(spec)
	counts, err := distribute(spec, levels, rng)
	if err != nil {
		return nil, err
	}

	b := newBuilder(spec, rng)
	for lvl := 0; lvl <= levels; lvl++ {
		for i := 0; i < counts[lvl]; i++ {
			b.addNode(lvl)
		}
	}

	for lvl := 0; lvl < levels; lvl++ {
		parents := b.alloc.AtLevel(lvl)
		children := b.alloc.AtLevel(lvl + 1)
		if spec.Pattern == topology.EndOnly && lvl+1 >= contractionStart(spec, levels) {
			b.wireContract(parents, children)
		} else {
			b.wireFanOut(parents, children)
		}
	}

	for _, t := range plannedMerges(spec, levels) {
		if err := b.injectMerge(t); err != nil {
			return nil, err
		}
	}

	return b.finish(), nil
}

func (b *builder) addNode(level int) NodeID {
	id := b.alloc.Next(level)
	b.nodes[id] = &ContentNode{ID: id, Level: level}
	return id
}

func (b *builder) addEdge(from, to NodeID) {
	b.edges = append(b.edges, Edge{From: from, To: to, ChoiceID: newChoiceID(b.rng)})
	b.outDeg[from]++
	b.inDeg[to]++
	if b.children[from] == nil {
		b.children[from] = make(map[NodeID]bool)
	}
	b.children[from][to] = true
}

func (b *builder) hasEdge(from, to NodeID) bool {
	return b.children[from][to]
}

func (b *builder) shuffled(ids []NodeID) []NodeID {
	out := make([]NodeID, len(ids))
	copy(out, ids)
	b.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// wireFanOut connects a level pair keeping every child at in-degree exactly
// one. With at least as many children as parents, children are dealt
// round-robin over shuffled parents so every parent branches at least once.
// With fewer children, each child picks a distinct parent and the leftover
// parents become early endings.
func (b *builder) wireFanOut(parents, children []NodeID) {
	ps := b.shuffled(parents)
	cs := b.shuffled(children)
	if len(cs) >= len(ps) {
		for i, c := range cs {
			b.addEdge(ps[i%len(ps)], c)
		}
		return
	}
	for i, c := range cs {
		b.addEdge(ps[i], c)
	}
}

// wireContract connects a level pair where parents outnumber children:
// parents are dealt round-robin over shuffled children, merging branches.
func (b *builder) wireContract(parents, children []NodeID) {
	ps := b.shuffled(parents)
	cs := b.shuffled(children)
	for i, p := range ps {
		b.addEdge(p, cs[i%len(cs)])
	}
}

// injectMerge designates one node at level t as a merge point and gives it a
// second incoming edge from a distinct parent one level up. When every
// spare-capacity parent already feeds the merge node, one of its edges to
// another child is handed to a different parent to free a slot.
func (b *builder) injectMerge(t int) error {
	nodesAtT := b.alloc.AtLevel(t)
	parents := b.alloc.AtLevel(t - 1)
	if len(nodesAtT) == 0 || len(parents) < 2 {
		return &InvariantViolation{
			Kind:   KindInfeasible,
			Detail: fmt.Sprintf("level %d cannot host a convergence point", t),
		}
	}
	merge := nodesAtT[b.rng.Intn(len(nodesAtT))]

	for _, p := range b.shuffled(parents) {
		if b.outDeg[p] < b.spec.BranchingFactor && !b.hasEdge(p, merge) {
			b.addEdge(p, merge)
			return nil
		}
	}

	// Every parent with a free slot already points at the merge node. Move
	// one sibling edge across to free a slot on a saturated parent.
	for _, spare := range parents {
		if b.outDeg[spare] >= b.spec.BranchingFactor {
			continue
		}
		for _, donor := range b.shuffled(parents) {
			if donor == spare || b.hasEdge(donor, merge) {
				continue
			}
			for _, e := range b.edges {
				if e.From != donor || e.To == merge || b.hasEdge(spare, e.To) {
					continue
				}
				b.moveEdge(donor, spare, e.To)
				b.addEdge(donor, merge)
				return nil
			}
		}
	}

	return &InvariantViolation{
		Kind:   KindInfeasible,
		Detail: fmt.Sprintf("no spare branching capacity into level %d", t),
	}
}

// moveEdge reassigns the edge oldFrom->to so it originates from newFrom.
func (b *builder) moveEdge(oldFrom, newFrom, to NodeID) {
	for i := range b.edges {
		if b.edges[i].From == oldFrom && b.edges[i].To == to {
			b.edges[i].From = newFrom
			break
		}
	}
	b.outDeg[oldFrom]--
	b.outDeg[newFrom]++
	delete(b.children[oldFrom], to)
	if b.children[newFrom] == nil {
		b.children[newFrom] = make(map[NodeID]bool)
	}
	b.children[newFrom][to] = true
}

// finish derives flags, choice lists and the convergence index, and freezes
// the builder state into a StoryDAG.
func (b *builder) finish() *StoryDAG {
	d := &StoryDAG{
		Nodes:       b.nodes,
		Edges:       b.edges,
		StartNodeID: b.alloc.AtLevel(0)[0],
	}
	for _, e := range b.edges {
		node := b.nodes[e.From]
		node.ChoiceIDs = append(node.ChoiceIDs, e.ChoiceID)
	}
	for lvl := 0; lvl < b.alloc.LevelCount(); lvl++ {
		for _, id := range b.alloc.AtLevel(lvl) {
			node := b.nodes[id]
			node.IsStart = id == d.StartNodeID
			node.IsEnd = b.outDeg[id] == 0
			node.IsConvergence = b.inDeg[id] >= 2
			if node.IsConvergence {
				d.ConvergencePoints = append(d.ConvergencePoints, id)
			}
		}
	}
	return d
}

// generateParallel builds the ParallelPaths shape: the start node fans out
// into disjoint tracks, one per branching slot, and each track runs as an
// independent chain to its own ending. No edges ever cross tracks, so no
// merge can occur anywhere.
func generateParallel(spec topology.Spec, rng *rand.Rand) (*StoryDAG, error) {
	tracks := utils.MinInt(spec.BranchingFactor, spec.NodeCount-1)

	lengths := make([]int, tracks)
	for i := range lengths {
		lengths[i] = 1
	}
	rem := spec.NodeCount - 1 - tracks
	for rem > 0 {
		var eligible []int
		for i, l := range lengths {
			if l < spec.MaxDepth {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			return nil, &InvariantViolation{
				Kind:   KindInfeasible,
				Detail: fmt.Sprintf("%d nodes exceed %d tracks of depth %d", spec.NodeCount, tracks, spec.MaxDepth),
			}
		}
		lengths[eligible[rng.Intn(len(eligible))]]++
		rem--
	}

	b := newBuilder(spec, rng)
	start := b.addNode(0)
	for _, length := range lengths {
		prev := start
		for lvl := 1; lvl <= length; lvl++ {
			id := b.addNode(lvl)
			b.addEdge(prev, id)
			prev = id
		}
	}
	return b.finish(), nil
}
