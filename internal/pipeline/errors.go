package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// FailureKind classifies what went wrong during one pipeline attempt.
type FailureKind string

const (
	KindBuild      FailureKind = "build"
	KindGeneration FailureKind = "generation"
	KindTimeout    FailureKind = "timeout"
)

// AttemptFailure records the classified outcome of one failed attempt.
// Every attempt's failure is kept so the final error can report the
// full history instead of just the last build.
type AttemptFailure struct {
	Attempt int         `json:"attempt"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	LogTail string      `json:"log_tail,omitempty"`
}

// TimeoutError marks an external call (model or build engine) that
// exceeded its deadline. It counts as a failed attempt for retry
// accounting, exactly like a build failure.
type TimeoutError struct {
	Op    string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Limit)
}

// FormatAttempts renders an attempt history as one line per attempt.
func FormatAttempts(attempts []AttemptFailure) string {
	var b strings.Builder
	for i, a := range attempts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "attempt %d (%s): %s", a.Attempt, a.Kind, a.Message)
	}
	return b.String()
}
