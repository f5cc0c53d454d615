package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/ftahirops/pcdiag/model"
)

func hostSource(ctx context.Context, r *model.SystemInfoReport) error {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get host info: %w", err)
	}
	if info.Platform == "" && info.OS == "" {
		return fmt.Errorf("host info: empty platform: %w", model.ErrDataUnavailable)
	}

	r.Hostname = info.Hostname
	r.OS = model.OSInfo{
		Name:    platformName(info),
		Version: info.PlatformVersion,
		Kernel:  strings.TrimSpace(info.OS + " " + info.KernelVersion),
		Arch:    info.KernelArch,
	}
	return nil
}

// platformName prefers the distribution ("ubuntu"), falling back to the OS
// family ("linux"). On Windows gopsutil already reports the product caption.
func platformName(info *host.InfoStat) string {
	if info.Platform != "" {
		return info.Platform
	}
	return info.OS
}

func virtualMemorySource(ctx context.Context, r *model.SystemInfoReport) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get memory info: %w", err)
	}
	if vm.Total == 0 {
		return fmt.Errorf("memory info: zero total: %w", model.ErrDataUnavailable)
	}
	r.TotalMemory = humanize.IBytes(vm.Total)
	return nil
}

// maxClock returns the highest advertised clock of the first CPU, or "".
func maxClock(ctx context.Context) string {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 || infos[0].Mhz <= 0 {
		return ""
	}
	return fmt.Sprintf("%.0f MHz", infos[0].Mhz)
}
