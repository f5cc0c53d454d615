package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// ExitError reports a child process that ran but exited with a non-zero code.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Runner starts external programs. Every subprocess pcdiag spawns goes
// through a Runner so tests can substitute a fake.
type Runner interface {
	// Output runs the program and returns its stdout. Output is returned
	// even when the program exits non-zero.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Run starts the program in dir and blocks until it exits.
	Run(ctx context.Context, dir, name string, args ...string) error
	// RunElevated is Run with administrator rights where the OS requires
	// an explicit elevation request.
	RunElevated(ctx context.Context, dir, name string, args ...string) error
	// Start launches the program and returns as soon as it is running.
	Start(ctx context.Context, name string, args ...string) (pid int, err error)
}

// waitDelay bounds how long a killed child's inherited pipes may keep Wait
// from returning.
const waitDelay = 2 * time.Second

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Log logr.Logger
}

// NewExecRunner returns a Runner that logs every command at V(1).
func NewExecRunner(log logr.Logger) *ExecRunner {
	return &ExecRunner{Log: log.WithName("exec")}
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.Log.V(1).Info("Running command", "name", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	return out, r.mapErr(ctx, name, err, stderr.String())
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	r.Log.V(1).Info("Running command", "name", name, "args", args, "dir", dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return r.mapErr(ctx, name, cmd.Run(), stderr.String())
}

func (r *ExecRunner) Start(_ context.Context, name string, args ...string) (int, error) {
	r.Log.V(1).Info("Starting command", "name", name, "args", args)
	// Not bound to ctx: the child must outlive the request that started it.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", name, err)
	}
	pid := cmd.Process.Pid
	go func() {
		if err := cmd.Wait(); err != nil {
			r.Log.V(1).Info("Detached command exited", "name", name, "pid", pid, "error", err.Error())
		}
	}()
	return pid, nil
}

func (r *ExecRunner) mapErr(ctx context.Context, name string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Name: name, Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr)}
	}
	return fmt.Errorf("%s: %w", name, err)
}

// queryRunner bounds every Output call with a timeout.
type queryRunner struct {
	Runner
	timeout time.Duration
}

// WithQueryTimeout returns a Runner whose Output calls give up after d.
// Run, RunElevated and Start pass through unchanged. A non-positive d
// returns r itself.
func WithQueryTimeout(r Runner, d time.Duration) Runner {
	if d <= 0 {
		return r
	}
	return &queryRunner{Runner: r, timeout: d}
}

func (q *queryRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	return q.Runner.Output(ctx, name, args...)
}
