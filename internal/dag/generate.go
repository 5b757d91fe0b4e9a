package dag

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"

	"storygraph/internal/topology"
)

// maxGenerateAttempts bounds the regeneration loop. Exceeding it means the
// spec combination is geometrically near-infeasible, not a transient fault,
// so the loop gives up rather than retrying forever.
const maxGenerateAttempts = 10

// ErrGenerationExhausted is returned when no candidate graph passed
// validation within the attempt bound.
var ErrGenerationExhausted = errors.New("story graph generation exhausted")

// TraceEvent reports progress of one generation attempt.
type TraceEvent struct {
	Attempt int
	Stage   string // "generated", "validated", "retry"
	Err     error
}

// Trace observes generation attempts; it is called synchronously and must
// not retain the event beyond the call.
type Trace func(TraceEvent)

// Generate builds and validates a StoryDAG from an ambient random seed.
func Generate(spec topology.Spec) (*StoryDAG, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed generation: %w", err)
	}
	return GenerateTraced(spec, seed, nil)
}

// GenerateSeeded builds and validates a StoryDAG deterministically from the
// given seed. Identical spec and seed always produce an identical graph.
func GenerateSeeded(spec topology.Spec, seed int64) (*StoryDAG, error) {
	return GenerateTraced(spec, seed, nil)
}

// GenerateTraced is GenerateSeeded with an optional attempt observer. The
// spec must already be validated; generation assumes its field ranges hold.
//
// Each attempt draws fresh randomness from the same request-scoped source;
// an invariant violation triggers an immediate retry (no backoff, the work
// is CPU-only) up to maxGenerateAttempts.
func GenerateTraced(spec topology.Spec, seed int64, trace Trace) (*StoryDAG, error) {
	rng := rand.New(rand.NewSource(seed))
	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		d, err := generate(spec, rng)
		if err == nil {
			emit(trace, TraceEvent{Attempt: attempt, Stage: "generated"})
			err = validateDAG(spec, d)
		}
		if err == nil {
			emit(trace, TraceEvent{Attempt: attempt, Stage: "validated"})
			return d, nil
		}
		lastErr = err
		emit(trace, TraceEvent{Attempt: attempt, Stage: "retry", Err: err})
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrGenerationExhausted, maxGenerateAttempts, lastErr)
}

func emit(trace Trace, ev TraceEvent) {
	if trace != nil {
		trace(ev)
	}
}

// NewSeed draws a high-entropy seed from crypto/rand, keeping ambient
// generation independent across concurrent requests without shared state.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
