package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// nvidiaSMISource asks the NVIDIA driver directly; it is the only source that
// reports VRAM beyond 4 GiB and the driver version on every platform.
func nvidiaSMISource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		out, err := runner.Output(ctx, "nvidia-smi",
			"--query-gpu=name,memory.total,driver_version", "--format=csv,noheader")
		if err != nil {
			return fmt.Errorf("nvidia-smi: %w", err)
		}
		gpus := parseNvidiaSMI(string(out))
		if len(gpus) == 0 {
			return fmt.Errorf("nvidia-smi: no GPUs: %w", model.ErrDataUnavailable)
		}
		r.GPUs = gpus
		return nil
	}
}

// parseNvidiaSMI parses "name, 10240 MiB, 551.23" lines.
func parseNvidiaSMI(out string) []model.GPUInfo {
	var gpus []model.GPUInfo
	for _, line := range util.SplitLines(out) {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			continue
		}
		gpus = append(gpus, model.GPUInfo{
			Model:  name,
			VRAM:   strings.TrimSpace(fields[1]),
			Driver: strings.TrimSpace(fields[2]),
		})
	}
	return gpus
}
