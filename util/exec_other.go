//go:build !windows

package util

import "context"

// RunElevated is Run: outside Windows, pcdiag is expected to be started with
// the privileges its tools need (sudo).
func (r *ExecRunner) RunElevated(ctx context.Context, dir, name string, args ...string) error {
	return r.Run(ctx, dir, name, args...)
}
