package collector

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// Report sections, re-exported for callers that build custom registries.
const (
	SectionOS             = model.SectionOS
	SectionVirtualization = model.SectionVirtualization
	SectionCPU            = model.SectionCPU
	SectionTotalMemory    = model.SectionTotalMemory
	SectionMemory         = model.SectionMemory
	SectionStorage        = model.SectionStorage
	SectionGPU            = model.SectionGPU
	SectionMotherboard    = model.SectionMotherboard
)

// SysInfoCollector assembles a SystemInfoReport from the registered probes.
type SysInfoCollector struct {
	registry *Registry
	log      logr.Logger
	now      func() time.Time
}

// NewSysInfoCollector creates a collector over the default probes.
func NewSysInfoCollector(log logr.Logger, runner util.Runner) *SysInfoCollector {
	return NewSysInfoCollectorWithRegistry(log, NewRegistry(runner))
}

// NewSysInfoCollectorWithRegistry creates a collector over a custom registry.
func NewSysInfoCollectorWithRegistry(log logr.Logger, reg *Registry) *SysInfoCollector {
	return &SysInfoCollector{registry: reg, log: log.WithName("sysinfo"), now: time.Now}
}

// Collect queries every probe and never fails: a section whose probe failed
// holds model.Unavailable and is listed in the report's Unavailable field.
func (c *SysInfoCollector) Collect(ctx context.Context) *model.SystemInfoReport {
	rep := &model.SystemInfoReport{CollectedAt: c.now()}

	problems := c.registry.CollectAll(ctx, rep)
	for _, p := range problems {
		c.log.Info("Section unavailable", "section", p.Field, "reason", p.Reason)
	}
	rep.Unavailable = problems
	normalize(rep)

	c.log.V(1).Info("Collected system info",
		"os", rep.OS.Name, "cpu", rep.CPU.Model,
		"modules", len(rep.Memory), "disks", len(rep.Storage), "gpus", len(rep.GPUs))
	return rep
}

// normalize replaces every blank display field with the Unavailable marker.
func normalize(r *model.SystemInfoReport) {
	mark := func(s *string) {
		if strings.TrimSpace(*s) == "" {
			*s = model.Unavailable
		}
	}
	for _, s := range []*string{
		&r.Hostname, &r.Virtualization, &r.Motherboard, &r.TotalMemory,
		&r.OS.Name, &r.OS.Version, &r.OS.Kernel, &r.OS.Arch,
		&r.CPU.Model, &r.CPU.Cores, &r.CPU.Threads, &r.CPU.MaxClock,
	} {
		mark(s)
	}
	for i := range r.Memory {
		m := &r.Memory[i]
		for _, s := range []*string{&m.Slot, &m.ManufacturerAndModel, &m.Type, &m.Speed, &m.Capacity} {
			mark(s)
		}
	}
	for i := range r.Storage {
		d := &r.Storage[i]
		for _, s := range []*string{&d.Model, &d.Capacity, &d.Interface} {
			mark(s)
		}
	}
	for i := range r.GPUs {
		g := &r.GPUs[i]
		for _, s := range []*string{&g.Model, &g.VRAM, &g.Driver} {
			mark(s)
		}
	}
}

func linuxVirtSource(_ context.Context, r *model.SystemInfoReport) error {
	r.Virtualization = detectVirtualization()
	return nil
}

func detectVirtualization() string {
	// 1. Container checks first
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "Container (Docker)"
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return "Container (Podman)"
	}
	cgroup, _ := util.ReadFileString("/proc/1/cgroup")
	if strings.Contains(cgroup, "/lxc/") {
		return "Container (LXC)"
	}
	if strings.Contains(cgroup, "/docker/") || strings.Contains(cgroup, "/docker-") {
		return "Container (Docker)"
	}

	// 2. DMI-based detection (sys_vendor + product_name)
	vendor, _ := util.ReadFileString("/sys/class/dmi/id/sys_vendor")
	product, _ := util.ReadFileString("/sys/class/dmi/id/product_name")
	if v := classifyVendor(vendor, product); v != "" {
		return v
	}

	// 3. Check hypervisor flag in cpuinfo
	if cpuinfo, err := util.ReadFileLines("/proc/cpuinfo"); err == nil && hasHypervisorFlag(cpuinfo) {
		return "VM (unknown)"
	}

	return "Bare Metal"
}

// hasHypervisorFlag reports whether the cpuinfo "flags" line lists the
// hypervisor bit. Every processor block repeats the same flags.
func hasHypervisorFlag(cpuinfo []string) bool {
	for _, flag := range strings.Fields(util.ParseKeyValueLines(cpuinfo)["flags"]) {
		if flag == "hypervisor" {
			return true
		}
	}
	return false
}

// classifyVendor maps a system vendor and product name to a hypervisor
// label. Returns "" when neither names a known hypervisor.
func classifyVendor(vendor, product string) string {
	vendorLower := strings.ToLower(strings.TrimSpace(vendor))
	productLower := strings.ToLower(strings.TrimSpace(product))

	switch {
	case strings.Contains(vendorLower, "vmware"):
		return "VM (VMware)"
	case strings.Contains(vendorLower, "qemu") || strings.Contains(productLower, "kvm"):
		return "VM (KVM)"
	case strings.Contains(vendorLower, "xen"):
		return "VM (Xen)"
	case strings.Contains(vendorLower, "microsoft") && strings.Contains(productLower, "virtual"):
		return "VM (Hyper-V)"
	case strings.Contains(vendorLower, "innotek") || strings.Contains(productLower, "virtualbox"):
		return "VM (VirtualBox)"
	case strings.Contains(vendorLower, "parallels"):
		return "VM (Parallels)"
	case strings.Contains(vendorLower, "amazon") || strings.Contains(productLower, "hvm"):
		return "VM (AWS)"
	case strings.Contains(vendorLower, "google"):
		return "VM (GCE)"
	}
	return ""
}
