package builder

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CommandRunner abstracts build-engine invocation for testability.
// onLine receives each output line (stdout and stderr interleaved) as it
// is produced.
type CommandRunner interface {
	Run(ctx context.Context, dir string, onLine func(string), name string, args ...string) (exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out. Cancelling the
// context kills the subprocess.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, onLine func(string), name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", name, err)
	}

	// Both streams feed onLine; the mutex keeps lines whole.
	var mu sync.Mutex
	emit := func(line string) {
		if onLine == nil {
			return
		}
		mu.Lock()
		onLine(line)
		mu.Unlock()
	}

	var g errgroup.Group
	for _, r := range []interface{ Read([]byte) (int, error) }{stdout, stderr} {
		r := r
		g.Go(func() error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				emit(scanner.Text())
			}
			return scanner.Err()
		})
	}

	scanErr := g.Wait()
	err = cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait %s: %w", name, err)
	}
	if scanErr != nil {
		return -1, fmt.Errorf("read output: %w", scanErr)
	}
	return 0, nil
}
