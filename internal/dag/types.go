// Package dag generates and validates story graph skeletons. Given a
// validated topology spec it produces a StoryDAG: placeholder nodes arranged
// in levels, choice edges that only ever point one level deeper, and
// convergence points placed according to the spec's pattern. Generation is a
// pure, single-threaded computation with request-scoped randomness; a bounded
// retry loop re-rolls the dice when a candidate fails structural validation.
package dag

// NodeID identifies a story node within one StoryDAG.
type NodeID string

// Edge is a reader choice leading from one node to another, one level deeper.
type Edge struct {
	From     NodeID `json:"from"`
	To       NodeID `json:"to"`
	ChoiceID string `json:"choice_id"`
}

// ContentNode is a story beat placeholder. Text is filled in later by the
// content-generation collaborator; the skeleton only fixes structure.
type ContentNode struct {
	ID            NodeID   `json:"id"`
	Level         int      `json:"level"`
	ChoiceIDs     []string `json:"choice_ids,omitempty"`
	IsStart       bool     `json:"is_start,omitempty"`
	IsEnd         bool     `json:"is_end,omitempty"`
	IsConvergence bool     `json:"is_convergence,omitempty"`
}

// StoryDAG is the generated skeleton. It is immutable once validated; the
// content-filling collaborator receives it by reference and never mutates it.
type StoryDAG struct {
	Nodes             map[NodeID]*ContentNode `json:"nodes"`
	Edges             []Edge                  `json:"edges"`
	StartNodeID       NodeID                  `json:"start_node_id"`
	ConvergencePoints []NodeID                `json:"convergence_points,omitempty"`
}

// InDegrees counts incoming edges per node.
func (d *StoryDAG) InDegrees() map[NodeID]int {
	in := make(map[NodeID]int, len(d.Nodes))
	for _, e := range d.Edges {
		in[e.To]++
	}
	return in
}

// OutDegrees counts outgoing edges per node.
func (d *StoryDAG) OutDegrees() map[NodeID]int {
	out := make(map[NodeID]int, len(d.Nodes))
	for _, e := range d.Edges {
		out[e.From]++
	}
	return out
}

// MaxLevel returns the deepest populated level.
func (d *StoryDAG) MaxLevel() int {
	max := 0
	for _, n := range d.Nodes {
		if n.Level > max {
			max = n.Level
		}
	}
	return max
}
