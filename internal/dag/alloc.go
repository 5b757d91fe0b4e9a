package dag

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// IDAllocator issues stable, unique node identifiers and tracks which level
// each node was placed on. Both the generator and the validator rely on its
// level bookkeeping; ids are never reused within a DAG.
type IDAllocator struct {
	next   int
	levels [][]NodeID
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next allocates the next node id on the given level.
func (a *IDAllocator) Next(level int) NodeID {
	a.next++
	id := NodeID(fmt.Sprintf("n%d", a.next))
	for len(a.levels) <= level {
		a.levels = append(a.levels, nil)
	}
	a.levels[level] = append(a.levels[level], id)
	return id
}

// AtLevel returns the node ids allocated on a level, in allocation order.
func (a *IDAllocator) AtLevel(level int) []NodeID {
	if level < 0 || level >= len(a.levels) {
		return nil
	}
	return a.levels[level]
}

// LevelCount returns the number of populated levels.
func (a *IDAllocator) LevelCount() int {
	return len(a.levels)
}

// Count returns the total number of allocated ids.
func (a *IDAllocator) Count() int {
	return a.next
}

// newChoiceID mints an opaque identifier for a single choice edge. The
// randomness comes from the caller so seeded generation stays reproducible
// down to the choice ids.
func newChoiceID(r io.Reader) string {
	return uuid.Must(uuid.NewRandomFromReader(r)).String()
}
