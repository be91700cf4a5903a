// Package cache decides whether an existing generated Dockerfile may be
// reused for a project, or whether the agent must regenerate it. The
// decision is purely local: no network, no model calls.
package cache

import (
	"errors"
	"os"
	"strings"

	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/artifact"
)

// Kind is the cache decision outcome.
type Kind int

const (
	Reuse Kind = iota
	Regenerate
)

func (k Kind) String() string {
	if k == Reuse {
		return "REUSE"
	}
	return "REGENERATE"
}

// Decision is the result of a cache lookup. Artifact is set only for
// Reuse; Reason explains a Regenerate.
type Decision struct {
	Kind     Kind
	Artifact *artifact.Artifact
	Reason   string
}

// Lookup decides between reusing the on-disk artifact and regenerating.
//
// Reuse requires all of: forceRegenerate false, a Dockerfile that exists
// and is non-empty, and a sidecar fingerprint equal to the context's.
// A user-authored Dockerfile is adopted as-is regardless of fingerprint.
// A corrupt or unreadable sidecar is a cache miss, never fatal.
func Lookup(pc *analyzer.ProjectContext, forceRegenerate bool) Decision {
	if forceRegenerate {
		return Decision{Kind: Regenerate, Reason: "regeneration forced"}
	}

	art, err := artifact.Load(pc.Root)
	if err != nil {
		var cacheErr *artifact.CacheError
		if errors.As(err, &cacheErr) {
			return Decision{Kind: Regenerate, Reason: "sidecar unreadable: " + cacheErr.Err.Error()}
		}
		if errors.Is(err, os.ErrNotExist) {
			return Decision{Kind: Regenerate, Reason: "no dockerfile present"}
		}
		return Decision{Kind: Regenerate, Reason: err.Error()}
	}

	if strings.TrimSpace(art.Content) == "" {
		return Decision{Kind: Regenerate, Reason: "dockerfile is empty"}
	}

	if art.Source == artifact.SourceUser {
		return Decision{Kind: Reuse, Artifact: art}
	}

	if art.Fingerprint != pc.Fingerprint {
		return Decision{Kind: Regenerate, Reason: "project fingerprint changed"}
	}

	return Decision{Kind: Reuse, Artifact: art}
}
