// Package artifact manages the generated Dockerfile and its sidecar
// metadata inside a project root. The Dockerfile plus sidecar is the
// pipeline's only durable state: it is created or replaced on each
// successful generation and never mutated in place.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DockerfileName is the conventional artifact path inside a project root.
const DockerfileName = "Dockerfile"

// SidecarName holds the fingerprint and attempt metadata that produced
// the Dockerfile, enabling cache-validity checks without a model call.
const SidecarName = ".dockhand.json"

// Source records who authored the Dockerfile.
type Source string

const (
	SourceUser      Source = "user"
	SourceGenerated Source = "generated"
)

// Artifact is a Dockerfile plus its provenance.
type Artifact struct {
	Content     string
	Fingerprint string
	GeneratedAt time.Time
	Attempt     int
	Source      Source
}

// sidecar is the on-disk metadata record next to the Dockerfile.
type sidecar struct {
	Fingerprint string `json:"fingerprint"`
	Attempt     int    `json:"attempt"`
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
}

// CacheError marks a corrupt or unreadable sidecar record. Callers
// recover it locally as a cache miss; it never aborts the pipeline.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("sidecar %s unreadable: %v", e.Path, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// DockerfilePath returns the artifact path for a project root.
func DockerfilePath(root string) string {
	return filepath.Join(root, DockerfileName)
}

// SidecarPath returns the sidecar path for a project root.
func SidecarPath(root string) string {
	return filepath.Join(root, SidecarName)
}

// Load reads the Dockerfile and sidecar from a project root.
//
// A Dockerfile without a sidecar (or whose sidecar names a different
// author) is treated as user-authored. A missing Dockerfile returns
// os.ErrNotExist regardless of sidecar state. A sidecar that exists but
// cannot be parsed returns a *CacheError.
func Load(root string) (*Artifact, error) {
	content, err := os.ReadFile(DockerfilePath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no dockerfile in %s: %w", root, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read dockerfile: %w", err)
	}

	art := &Artifact{
		Content: string(content),
		Source:  SourceUser,
	}

	scPath := SidecarPath(root)
	data, err := os.ReadFile(scPath)
	if err != nil {
		if os.IsNotExist(err) {
			return art, nil
		}
		return nil, &CacheError{Path: scPath, Err: err}
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, &CacheError{Path: scPath, Err: err}
	}

	art.Fingerprint = sc.Fingerprint
	art.Attempt = sc.Attempt
	if sc.Source == string(SourceGenerated) {
		art.Source = SourceGenerated
	}
	if ts, err := time.Parse(time.RFC3339, sc.GeneratedAt); err == nil {
		art.GeneratedAt = ts
	}
	return art, nil
}

// Save writes the Dockerfile and sidecar atomically. The Dockerfile is
// written first so a reader racing the sidecar update sees, at worst, a
// fingerprint mismatch and regenerates.
func (a *Artifact) Save(root string) error {
	content := a.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := WriteAtomic(DockerfilePath(root), []byte(content)); err != nil {
		return fmt.Errorf("write dockerfile: %w", err)
	}

	sc := sidecar{
		Fingerprint: a.Fingerprint,
		Attempt:     a.Attempt,
		GeneratedAt: a.GeneratedAt.UTC().Format(time.RFC3339),
		Source:      string(a.Source),
	}
	if err := writeJSON(SidecarPath(root), &sc); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}
