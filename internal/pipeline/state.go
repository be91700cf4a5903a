// Package pipeline defines the build pipeline's state machine and
// the failure records shared between the agent and the builder.
package pipeline

import "fmt"

// State is a pipeline lifecycle state.
type State string

const (
	StateAnalyzed        State = "ANALYZED"
	StateCacheHit        State = "CACHE_HIT"
	StateNeedsGeneration State = "NEEDS_GENERATION"
	StateGenerating      State = "GENERATING"
	StateGenerated       State = "GENERATED"
	StateBuilding        State = "BUILDING"
	StateSucceeded       State = "SUCCEEDED"
	StateFailed          State = "FAILED"
)

// IsTerminal reports whether the state ends the pipeline.
func IsTerminal(s State) bool {
	return s == StateSucceeded || s == StateFailed
}

// Transition validates a state change and returns the new state.
// The caller supplies its current state so an out-of-order step is
// observable instead of silently absorbed.
func Transition(from, to State) (State, error) {
	if !allowed(from, to) {
		return from, fmt.Errorf("invalid pipeline transition: %s -> %s", from, to)
	}
	return to, nil
}

func allowed(from, to State) bool {
	switch from {
	case StateAnalyzed:
		return to == StateCacheHit || to == StateNeedsGeneration
	case StateCacheHit:
		return to == StateBuilding
	case StateNeedsGeneration:
		return to == StateGenerating
	case StateGenerating:
		return to == StateGenerated || to == StateFailed
	case StateGenerated:
		return to == StateBuilding
	case StateBuilding:
		return to == StateSucceeded || to == StateFailed
	case StateFailed:
		// A failed build may re-enter generation while attempts remain.
		return to == StateGenerating
	default:
		return false
	}
}
