// Package agent turns a project context into a validated Dockerfile by
// prompting a generative model. Model output is untrusted text: it is
// validated before acceptance and the call is retried a bounded number
// of times before giving up.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/artifact"
	"github.com/lucasnoah/dockhand/internal/prompt"
)

// maxValidationRetries is how many extra model calls are made when a
// response fails validation, before raising a GenerationError.
const maxValidationRetries = 2

// failureExcerptLines bounds how much of a build failure log is embedded
// in a retry prompt.
const failureExcerptLines = 40

// fileTreeLimit bounds how many tree entries are embedded in the prompt.
const fileTreeLimit = 100

// GenerationError is returned when the model call or validation fails
// after exhausting local retries. Every rejection reason is kept.
type GenerationError struct {
	Calls      int
	Rejections []string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dockerfile generation failed after %d model calls: %v", e.Calls, e.Err)
	}
	return fmt.Sprintf("dockerfile generation failed after %d model calls: %s",
		e.Calls, strings.Join(e.Rejections, "; "))
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Agent generates Dockerfile artifacts.
type Agent struct {
	client CompletionClient
}

// New creates an Agent backed by the given model client.
func New(client CompletionClient) *Agent {
	return &Agent{client: client}
}

// Generate prompts the model with the project facts and persists the
// validated result. prior and buildFailure are set when retrying after a
// failed build; the failure excerpt lets the model self-correct.
//
// The artifact is written atomically (Dockerfile first, then sidecar) so
// a concurrent reader never observes a partial Dockerfile.
func (a *Agent) Generate(ctx context.Context, pc *analyzer.ProjectContext, prior *artifact.Artifact, buildFailure string) (*artifact.Artifact, error) {
	rendered, err := a.buildPrompt(pc, prior, buildFailure)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	var rejections []string
	calls := 0
	for i := 0; i <= maxValidationRetries; i++ {
		calls++
		raw, err := a.client.Complete(ctx, rendered)
		if err != nil {
			// Transport and timeout failures are not retried locally;
			// the pipeline-level loop owns that accounting.
			return nil, &GenerationError{Calls: calls, Rejections: rejections, Err: err}
		}

		text, verr := validate(raw)
		if verr != nil {
			rejections = append(rejections, verr.Error())
			continue
		}

		attempt := 1
		if prior != nil {
			attempt = prior.Attempt + 1
		}
		art := &artifact.Artifact{
			Content:     text,
			Fingerprint: pc.Fingerprint,
			GeneratedAt: time.Now().UTC(),
			Attempt:     attempt,
			Source:      artifact.SourceGenerated,
		}
		if err := art.Save(pc.Root); err != nil {
			return nil, fmt.Errorf("persist dockerfile: %w", err)
		}
		return art, nil
	}

	return nil, &GenerationError{Calls: calls, Rejections: rejections}
}

// buildPrompt renders the dockerfile template with the context facts.
func (a *Agent) buildPrompt(pc *analyzer.ProjectContext, prior *artifact.Artifact, buildFailure string) (string, error) {
	vars := prompt.Vars{
		"language":          pc.Language,
		"framework":         pc.Framework,
		"manifest_list":     formatManifestList(pc),
		"ports":             formatPorts(pc.Ports),
		"manifest_contents": formatManifestContents(pc),
		"file_tree":         formatFileTree(pc.FileTree),
		"build_failure":     tailLines(buildFailure, failureExcerptLines),
	}
	if prior != nil && prior.Content != "" {
		vars["prior_dockerfile"] = prior.Content
	} else {
		vars["prior_dockerfile"] = ""
	}

	tmpl, err := prompt.LoadTemplate("dockerfile.md", pc.Root)
	if err != nil {
		return "", err
	}
	return prompt.Render(tmpl, vars)
}

func formatManifestList(pc *analyzer.ProjectContext) string {
	if len(pc.Manifests) == 0 {
		return "(no dependency manifests found)"
	}
	var b strings.Builder
	for _, m := range pc.Manifests {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPorts(ports []int) string {
	if len(ports) == 0 {
		return ""
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func formatManifestContents(pc *analyzer.ProjectContext) string {
	if len(pc.ManifestContents) == 0 {
		return "(none readable)"
	}
	names := make([]string, 0, len(pc.ManifestContents))
	for name := range pc.ManifestContents {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", name, strings.TrimRight(pc.ManifestContents[name], "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatFileTree(tree []string) string {
	if len(tree) == 0 {
		return ""
	}
	n := len(tree)
	truncated := false
	if n > fileTreeLimit {
		n = fileTreeLimit
		truncated = true
	}
	var b strings.Builder
	for _, f := range tree[:n] {
		b.WriteString(f)
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "... (%d more files)", len(tree)-n)
	}
	return strings.TrimRight(b.String(), "\n")
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
