package pipeline

import (
	"strings"
	"testing"
)

func TestTransition_HappyPath(t *testing.T) {
	steps := []State{
		StateNeedsGeneration,
		StateGenerating,
		StateGenerated,
		StateBuilding,
		StateSucceeded,
	}

	s := StateAnalyzed
	for _, next := range steps {
		var err error
		s, err = Transition(s, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if !IsTerminal(s) {
		t.Errorf("expected %s to be terminal", s)
	}
}

func TestTransition_CacheHitSkipsGeneration(t *testing.T) {
	s, err := Transition(StateAnalyzed, StateCacheHit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Transition(s, StateBuilding); err != nil {
		t.Fatalf("cache hit should proceed straight to building: %v", err)
	}
}

func TestTransition_FailedReentersGeneration(t *testing.T) {
	if _, err := Transition(StateFailed, StateGenerating); err != nil {
		t.Fatalf("failed build should re-enter generation: %v", err)
	}
}

func TestTransition_Invalid(t *testing.T) {
	cases := []struct{ from, to State }{
		{StateAnalyzed, StateBuilding},
		{StateCacheHit, StateGenerating},
		{StateGenerated, StateSucceeded},
		{StateSucceeded, StateGenerating},
	}
	for _, c := range cases {
		if _, err := Transition(c.from, c.to); err == nil {
			t.Errorf("expected error for %s -> %s", c.from, c.to)
		}
	}
}

func TestFormatAttempts(t *testing.T) {
	out := FormatAttempts([]AttemptFailure{
		{Attempt: 1, Kind: KindBuild, Message: "exit 1"},
		{Attempt: 2, Kind: KindTimeout, Message: "docker build timed out after 10s"},
	})
	if !strings.Contains(out, "attempt 1 (build): exit 1") {
		t.Errorf("missing first attempt: %q", out)
	}
	if !strings.Contains(out, "attempt 2 (timeout)") {
		t.Errorf("missing second attempt: %q", out)
	}
}
