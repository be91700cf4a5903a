package builder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lucasnoah/dockhand/internal/pipeline"
)

// fakeRunner scripts docker invocations without touching an engine.
type fakeRunner struct {
	engineDown bool
	// one entry per build invocation
	buildCodes []int
	buildLogs  [][]string
	builds     int
	// emitted for "docker images -q"
	imageID string
	// non-nil makes every build invocation fail at the exec layer
	invokeErr error
	// the first blockBuilds build invocations hang until the context ends
	blockBuilds int
	// invoked during a build to simulate external interruption
	interrupt func()
}

func (r *fakeRunner) Run(ctx context.Context, dir string, onLine func(string), name string, args ...string) (int, error) {
	if name != "docker" || len(args) == 0 {
		return -1, errors.New("unexpected command: " + name)
	}
	switch args[0] {
	case "version":
		if r.engineDown {
			return 1, nil
		}
		return 0, nil
	case "images":
		if onLine != nil && r.imageID != "" {
			onLine(r.imageID)
		}
		return 0, nil
	case "build":
		i := r.builds
		r.builds++
		if i < len(r.buildLogs) && onLine != nil {
			for _, line := range r.buildLogs[i] {
				onLine(line)
			}
		}
		if i < r.blockBuilds {
			<-ctx.Done()
			return -1, ctx.Err()
		}
		if r.interrupt != nil {
			// a killed subprocess exits non-zero without an exec error
			r.interrupt()
			return -1, nil
		}
		if r.invokeErr != nil {
			return -1, r.invokeErr
		}
		if i < len(r.buildCodes) {
			return r.buildCodes[i], nil
		}
		return 0, nil
	}
	return -1, errors.New("unexpected docker subcommand: " + args[0])
}

func TestBuild_Success(t *testing.T) {
	runner := &fakeRunner{
		buildCodes: []int{0},
		buildLogs:  [][]string{{"#1 FROM alpine", "#5 exporting layers"}},
		imageID:    "abc123def456",
	}
	var out bytes.Buffer
	b := New(runner)
	b.Output = &out

	res, err := b.Build(context.Background(), "/tmp/proj", "myapp:latest", "/tmp/proj/Dockerfile")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}
	if res.ImageID != "abc123def456" {
		t.Errorf("image id = %q", res.ImageID)
	}
	if res.Tag != "myapp:latest" {
		t.Errorf("tag = %q", res.Tag)
	}
	if len(res.Log) != 2 {
		t.Errorf("log lines = %d, want 2", len(res.Log))
	}
	if !strings.Contains(out.String(), "exporting layers") {
		t.Error("Output writer should receive the live log")
	}
}

func TestBuild_ImageIDFromLogFallback(t *testing.T) {
	runner := &fakeRunner{
		buildCodes: []int{0},
		buildLogs: [][]string{{
			"#7 exporting to image",
			"#7 writing image sha256:feedface00 done",
		}},
		imageID: "",
	}

	res, err := New(runner).Build(context.Background(), "/tmp/proj", "myapp:latest", "/tmp/proj/Dockerfile")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.ImageID != "sha256:feedface00" {
		t.Errorf("image id = %q, want sha256:feedface00", res.ImageID)
	}
}

func TestBuild_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		buildCodes: []int{1},
		buildLogs:  [][]string{{"step 3/5", "npm ERR! missing script: build"}},
	}

	res, err := New(runner).Build(context.Background(), "/tmp/proj", "myapp:latest", "/tmp/proj/Dockerfile")
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("error = %T, want *BuildError", err)
	}
	if buildErr.ExitCode != 1 {
		t.Errorf("exit code = %d", buildErr.ExitCode)
	}
	if !strings.Contains(buildErr.LogTail, "npm ERR!") {
		t.Errorf("log tail should carry the failure line: %q", buildErr.LogTail)
	}
	if res == nil || res.Success {
		t.Error("result should be present and unsuccessful")
	}
}

func TestBuild_Timeout(t *testing.T) {
	b := New(&fakeRunner{blockBuilds: 1})
	b.Timeout = 20 * time.Millisecond

	_, err := b.Build(context.Background(), "/tmp/proj", "myapp:latest", "/tmp/proj/Dockerfile")
	var timeoutErr *pipeline.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %T (%v), want *pipeline.TimeoutError", err, err)
	}
	if timeoutErr.Op != "docker build" {
		t.Errorf("op = %q", timeoutErr.Op)
	}
}

func TestBuild_CancellationIsNotABuildFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{interrupt: cancel}

	_, err := New(runner).Build(ctx, "/tmp/proj", "myapp:latest", "/tmp/proj/Dockerfile")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want wrapped context.Canceled", err)
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		t.Error("cancellation must not be reported as a build failure")
	}
}

func TestCheckEngine_Down(t *testing.T) {
	b := New(&fakeRunner{engineDown: true})
	if err := b.CheckEngine(context.Background()); err == nil {
		t.Error("expected error when engine is unavailable")
	}
}

func TestTail(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := tail(lines, 2); got != "c\nd" {
		t.Errorf("tail = %q", got)
	}
	if got := tail(lines, 10); got != "a\nb\nc\nd" {
		t.Errorf("tail = %q", got)
	}
}
