//go:build windows

package util

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"
)

// appearGrace bounds how long we wait for an elevated child to show up in the
// process table. The UAC prompt sits between ShellExecute and process start.
const appearGrace = 5 * time.Second

// RunElevated runs the program directly when pcdiag already holds an elevated
// token. Otherwise it asks the shell for the "runas" verb and waits until no
// process with the program's image name remains. The child's exit code is not
// observable on the runas path; callers must verify the output it produces.
func (r *ExecRunner) RunElevated(ctx context.Context, dir, name string, args ...string) error {
	if windows.GetCurrentProcessToken().IsElevated() {
		return r.Run(ctx, dir, name, args...)
	}

	r.Log.Info("Requesting elevation", "name", name, "args", args)
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	params, err := windows.UTF16PtrFromString(strings.Join(args, " "))
	if err != nil {
		return err
	}
	cwd, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	if err := windows.ShellExecute(0, verb, file, params, cwd, windows.SW_HIDE); err != nil {
		return fmt.Errorf("runas %s: %w", name, err)
	}
	return waitForImageExit(ctx, filepath.Base(name))
}

func waitForImageExit(ctx context.Context, image string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	seen := false
	for {
		running, err := imageRunning(ctx, image)
		if err != nil {
			return fmt.Errorf("list processes: %w", err)
		}
		switch {
		case running:
			seen = true
		case seen, time.Since(start) > appearGrace:
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", image, ctx.Err())
		case <-ticker.C:
		}
	}
}

func imageRunning(ctx context.Context, image string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(n, image) {
			return true, nil
		}
	}
	return false, nil
}
