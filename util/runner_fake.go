package util

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is the fake implementation of the Runner interface. Unset hooks
// behave as a missing executable.
type FakeRunner struct {
	OutputFunc func(name string, args []string) ([]byte, error)
	RunFunc    func(dir, name string, args []string) error
	StartFunc  func(name string, args []string) (int, error)

	// Hang makes Output block until its context ends, like a child that
	// never exits.
	Hang bool

	mu    sync.Mutex
	calls []string
}

// Calls returns every command line the fake has seen, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeRunner) record(name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

func (f *FakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if f.Hang {
		<-ctx.Done()
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if f.OutputFunc == nil {
		return nil, fmt.Errorf("%s: executable file not found", name)
	}
	return f.OutputFunc(name, args)
}

func (f *FakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.record(name, args)
	if f.RunFunc == nil {
		return fmt.Errorf("%s: executable file not found", name)
	}
	return f.RunFunc(dir, name, args)
}

func (f *FakeRunner) RunElevated(ctx context.Context, dir, name string, args ...string) error {
	return f.Run(ctx, dir, name, args...)
}

func (f *FakeRunner) Start(_ context.Context, name string, args ...string) (int, error) {
	f.record(name, args)
	if f.StartFunc == nil {
		return 0, fmt.Errorf("%s: executable file not found", name)
	}
	return f.StartFunc(name, args)
}
