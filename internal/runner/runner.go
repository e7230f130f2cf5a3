package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"
)

// Options controls a single process invocation.
type Options struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env replaces the child environment when non-nil.
	Env []string
	// Tag labels every drained output line in the log.
	Tag string
}

// Runner launches native executables.
type Runner interface {
	// Execute runs command to completion, logging stdout at info and stderr
	// at error, and returns the exit code.
	Execute(ctx context.Context, command string, args []string, opts Options) (int, error)
	// Capture runs command to completion and returns its stdout lines.
	// Stderr is still drained into the log.
	Capture(ctx context.Context, command string, args []string, opts Options) ([]string, int, error)
}

// PipeGrace bounds how long output is still drained after cancellation.
// Descendants that inherited the pipes and survived the kill are cut off
// after it.
const PipeGrace = 500 * time.Millisecond

// CmdRunner runs processes through os/exec.
type CmdRunner struct {
	Logger *log.Logger
}

// New returns a CmdRunner logging through logger.
func New(logger *log.Logger) CmdRunner {
	return CmdRunner{Logger: logger}
}

func (r CmdRunner) Execute(ctx context.Context, command string, args []string, opts Options) (int, error) {
	_, code, err := r.run(ctx, command, args, opts, false)
	return code, err
}

func (r CmdRunner) Capture(ctx context.Context, command string, args []string, opts Options) ([]string, int, error) {
	return r.run(ctx, command, args, opts, true)
}

func (r CmdRunner) run(ctx context.Context, command string, args []string, opts Options, capture bool) ([]string, int, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	tag := opts.Tag
	if tag == "" {
		tag = command
	}
	logger = logger.With("tool", tag)

	commandLine := shellquote.Join(append([]string{command}, args...)...)
	logger.Debug("exec", "cmd", commandLine, "dir", opts.Dir)

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	killGroupOnCancel(cmd)
	cmd.WaitDelay = PipeGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, -1, &ExecutionError{Command: commandLine, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, -1, &ExecutionError{Command: commandLine, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, -1, &ExecutionError{Command: commandLine, Err: err}
	}

	tooLong := func(stream string) func() {
		return func() {
			logger.Warn("discarded oversized output line", "stream", stream, "limit", MaxLineBytes)
		}
	}

	var (
		lines []string
		g     errgroup.Group
	)
	g.Go(func() error {
		return drainLines(stdout, MaxLineBytes, func(line string) {
			if capture {
				lines = append(lines, line)
				return
			}
			logger.Info(line)
		}, tooLong("stdout"))
	})
	g.Go(func() error {
		return drainLines(stderr, MaxLineBytes, func(line string) {
			logger.Error(line)
		}, tooLong("stderr"))
	})

	drained := make(chan struct{})
	go func() {
		select {
		case <-drained:
			return
		case <-ctx.Done():
		}
		select {
		case <-drained:
		case <-time.After(PipeGrace):
			_ = stdout.Close()
			_ = stderr.Close()
		}
	}()

	// Both pipes must be fully read before Wait closes them.
	drainErr := g.Wait()
	close(drained)
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return lines, -1, &ExecutionError{Command: commandLine, Interrupted: true, Err: ctxErr}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			logger.Debug("exit", "code", exitErr.ExitCode())
			return lines, exitErr.ExitCode(), nil
		}
		return lines, -1, &ExecutionError{Command: commandLine, Err: waitErr}
	}
	if drainErr != nil {
		return lines, 0, &ExecutionError{Command: commandLine, Err: fmt.Errorf("read output: %w", drainErr)}
	}
	return lines, 0, nil
}

var _ Runner = CmdRunner{}
