package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/artifact"
	"github.com/lucasnoah/dockhand/internal/cache"
	"github.com/lucasnoah/dockhand/internal/pipeline"
)

// Generator produces Dockerfile artifacts. Satisfied by agent.Agent.
type Generator interface {
	Generate(ctx context.Context, pc *analyzer.ProjectContext, prior *artifact.Artifact, buildFailure string) (*artifact.Artifact, error)
}

// RunOpts configures one pipeline run.
type RunOpts struct {
	Tag             string
	ForceRegenerate bool
	// MaxAttempts caps total build attempts (default 3).
	MaxAttempts int
	// Logf receives human-readable progress lines; nil silences them.
	Logf func(format string, args ...interface{})
	// Notify receives pipeline events for journaling; nil disables it.
	Notify func(event string, attempt int, detail string)
}

// machine tracks the pipeline state and validates each step.
type machine struct {
	state pipeline.State
}

func (m *machine) to(s pipeline.State) error {
	next, err := pipeline.Transition(m.state, s)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// Run drives the full cache → generate → build pipeline with its
// bounded retry loop. A failed build with a machine-generated Dockerfile
// triggers regeneration with the failure text, up to the attempt cap.
// A user-authored Dockerfile is never regenerated.
func (b *Builder) Run(ctx context.Context, pc *analyzer.ProjectContext, gen Generator, opts RunOpts) (*BuildResult, error) {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(string, int, string) {}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	if err := b.CheckEngine(ctx); err != nil {
		return nil, err
	}

	m := &machine{state: pipeline.StateAnalyzed}
	notify("analyzed", 0, pc.Fingerprint)

	decision := cache.Lookup(pc, opts.ForceRegenerate)
	var art *artifact.Artifact
	if decision.Kind == cache.Reuse {
		if err := m.to(pipeline.StateCacheHit); err != nil {
			return nil, err
		}
		art = decision.Artifact
		logf("reusing %s dockerfile (fingerprint match)", art.Source)
		notify("cache_hit", 0, string(art.Source))
	} else {
		if err := m.to(pipeline.StateNeedsGeneration); err != nil {
			return nil, err
		}
		logf("dockerfile needs generation: %s", decision.Reason)
	}

	var (
		failures    []pipeline.AttemptFailure
		failureText string
		prior       *artifact.Artifact
		lastResult  *BuildResult
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if art == nil {
			if err := m.to(pipeline.StateGenerating); err != nil {
				return nil, err
			}
			notify("generating", attempt, "")
			logf("generating dockerfile (attempt %d/%d)", attempt, maxAttempts)

			generated, err := gen.Generate(ctx, pc, prior, failureText)
			if err != nil {
				var timeoutErr *pipeline.TimeoutError
				if errors.As(err, &timeoutErr) {
					// A model timeout counts as a failed attempt, same
					// as a build failure.
					failures = append(failures, pipeline.AttemptFailure{
						Attempt: attempt,
						Kind:    pipeline.KindTimeout,
						Message: timeoutErr.Error(),
					})
					notify("generation_timeout", attempt, timeoutErr.Error())
					if err := m.to(pipeline.StateFailed); err != nil {
						return nil, err
					}
					if attempt == maxAttempts {
						return lastResult, &BuildError{Tag: opts.Tag, Attempts: failures}
					}
					continue
				}

				// Validation/transport retries are exhausted inside the
				// agent; this is fatal, surfaced with full history.
				failures = append(failures, pipeline.AttemptFailure{
					Attempt: attempt,
					Kind:    pipeline.KindGeneration,
					Message: err.Error(),
				})
				notify("generation_failed", attempt, err.Error())
				if len(failures) > 1 {
					return nil, fmt.Errorf("%w\nattempt history:\n%s", err, pipeline.FormatAttempts(failures))
				}
				return nil, err
			}

			art = generated
			if err := m.to(pipeline.StateGenerated); err != nil {
				return nil, err
			}
			notify("generated", attempt, art.Fingerprint)
		}

		if err := m.to(pipeline.StateBuilding); err != nil {
			return nil, err
		}
		notify("building", attempt, opts.Tag)
		logf("building image %s (attempt %d/%d)", opts.Tag, attempt, maxAttempts)

		res, err := b.Build(ctx, pc.Root, opts.Tag, artifact.DockerfilePath(pc.Root))
		lastResult = res
		if err == nil {
			if serr := m.to(pipeline.StateSucceeded); serr != nil {
				return nil, serr
			}
			notify("build_succeeded", attempt, res.ImageID)
			return res, nil
		}

		failure := classify(attempt, err, res)
		failures = append(failures, failure)
		failureText = failure.LogTail
		if failureText == "" {
			failureText = failure.Message
		}
		if res != nil {
			res.Failure = &failure
		}
		notify("build_failed", attempt, failure.Message)
		logf("build attempt %d failed: %s", attempt, failure.Message)

		if serr := m.to(pipeline.StateFailed); serr != nil {
			return nil, serr
		}

		if ctx.Err() != nil {
			// External cancellation: stop here rather than retrying
			// against a dead context.
			return res, err
		}
		if failure.Kind != pipeline.KindBuild && failure.Kind != pipeline.KindTimeout {
			// Infrastructure failure (engine not invocable): not retryable.
			return res, err
		}
		if art.Source == artifact.SourceUser {
			logf("dockerfile is user-authored; not regenerating")
			break
		}
		if attempt == maxAttempts {
			break
		}

		prior = art
		art = nil
	}

	notify("exhausted", len(failures), pipeline.FormatAttempts(failures))
	var lastTail string
	if n := len(failures); n > 0 {
		lastTail = failures[n-1].LogTail
	}
	return lastResult, &BuildError{Tag: opts.Tag, LogTail: lastTail, Attempts: failures}
}

// classify turns a build invocation error into an attempt failure. The
// result's streamed log backs the excerpt for failures that carry no
// tail of their own, so a timed-out build keeps its partial log.
func classify(attempt int, err error, res *BuildResult) pipeline.AttemptFailure {
	var logTail string
	if res != nil {
		logTail = tail(res.Log, logTailLines)
	}

	var timeoutErr *pipeline.TimeoutError
	if errors.As(err, &timeoutErr) {
		return pipeline.AttemptFailure{
			Attempt: attempt,
			Kind:    pipeline.KindTimeout,
			Message: timeoutErr.Error(),
			LogTail: logTail,
		}
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return pipeline.AttemptFailure{
			Attempt: attempt,
			Kind:    pipeline.KindBuild,
			Message: fmt.Sprintf("docker build exited with code %d", buildErr.ExitCode),
			LogTail: buildErr.LogTail,
		}
	}
	return pipeline.AttemptFailure{
		Attempt: attempt,
		Kind:    "infrastructure",
		Message: err.Error(),
		LogTail: logTail,
	}
}
