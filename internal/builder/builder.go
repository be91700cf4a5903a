// Package builder invokes the container build engine and drives the
// pipeline's bounded regenerate-and-retry loop.
package builder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lucasnoah/dockhand/internal/pipeline"
)

// logTailLines bounds the log excerpt attached to build errors.
const logTailLines = 40

// BuildResult is the outcome of one container-build invocation.
type BuildResult struct {
	Success  bool
	ImageID  string
	Tag      string
	Log      []string
	Duration time.Duration
	Failure  *pipeline.AttemptFailure
}

// BuildError is reported when the build engine exits non-zero. After an
// exhausted retry loop, Attempts carries every attempt's classified
// failure, not just the last.
type BuildError struct {
	Tag      string
	ExitCode int
	LogTail  string
	Attempts []pipeline.AttemptFailure
}

func (e *BuildError) Error() string {
	if len(e.Attempts) > 0 {
		msg := fmt.Sprintf("build of %s failed after %d attempts:\n%s",
			e.Tag, len(e.Attempts), pipeline.FormatAttempts(e.Attempts))
		if e.LogTail != "" {
			msg += "\nlast failure log:\n" + e.LogTail
		}
		return msg
	}
	return fmt.Sprintf("docker build exited with code %d", e.ExitCode)
}

// Builder runs docker builds through a CommandRunner.
type Builder struct {
	runner CommandRunner
	// Timeout bounds a single build invocation.
	Timeout time.Duration
	// Platform is passed to docker build (empty to omit).
	Platform string
	// Output receives the live build log; nil discards it.
	Output io.Writer
}

// New creates a Builder using the given runner.
func New(runner CommandRunner) *Builder {
	return &Builder{
		runner:   runner,
		Timeout:  15 * time.Minute,
		Platform: "linux/amd64",
	}
}

// CheckEngine verifies the build engine is installed and responding.
func (b *Builder) CheckEngine(ctx context.Context) error {
	code, err := b.runner.Run(ctx, "", nil, "docker", "version", "--format", "{{.Server.Version}}")
	if err != nil || code != 0 {
		return fmt.Errorf("docker is not available: install Docker and ensure the daemon is running")
	}
	return nil
}

// Build runs a single tagged image build against the project directory.
// A non-zero engine exit returns a *BuildError with the captured log
// tail; exceeding the bound returns a *pipeline.TimeoutError. In both
// cases the returned result still carries the log and duration.
func (b *Builder) Build(ctx context.Context, root, tag, dockerfilePath string) (*BuildResult, error) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	buildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"build"}
	if b.Platform != "" {
		args = append(args, "--platform", b.Platform)
	}
	args = append(args, "-f", dockerfilePath, "-t", tag, root)

	res := &BuildResult{Tag: tag}
	start := time.Now()

	code, err := b.runner.Run(buildCtx, root, func(line string) {
		res.Log = append(res.Log, line)
		if b.Output != nil {
			fmt.Fprintln(b.Output, line)
		}
	}, "docker", args...)
	res.Duration = time.Since(start)

	if buildCtx.Err() == context.DeadlineExceeded {
		return res, &pipeline.TimeoutError{Op: "docker build", Limit: timeout}
	}
	// A killed subprocess surfaces as a plain non-zero exit; the parent
	// context is the only reliable cancellation signal.
	if cerr := ctx.Err(); cerr != nil {
		return res, fmt.Errorf("docker build interrupted: %w", cerr)
	}
	if err != nil {
		return res, fmt.Errorf("invoke docker build: %w", err)
	}
	if code != 0 {
		return res, &BuildError{Tag: tag, ExitCode: code, LogTail: tail(res.Log, logTailLines)}
	}

	res.Success = true
	res.ImageID = b.lookupImageID(ctx, tag, res.Log)
	return res, nil
}

// lookupImageID resolves the built image's identifier: first by asking
// the engine for the tag, then by scanning the build log.
func (b *Builder) lookupImageID(ctx context.Context, tag string, log []string) string {
	var out []string
	code, err := b.runner.Run(ctx, "", func(line string) {
		out = append(out, line)
	}, "docker", "images", "-q", tag)
	if err == nil && code == 0 {
		for _, line := range out {
			if id := strings.TrimSpace(line); id != "" {
				return id
			}
		}
	}

	// Fallback: BuildKit prints "writing image sha256:<id>" near the end.
	for i := len(log) - 1; i >= 0; i-- {
		line := strings.ToLower(log[i])
		if idx := strings.Index(line, "writing image sha256:"); idx != -1 {
			rest := log[i][idx+len("writing image "):]
			if fields := strings.Fields(rest); len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}

// tail returns the last n lines joined by newlines.
func tail(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
