package collector

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// Collector is the interface for all report section collectors.
type Collector interface {
	Name() string
	Collect(ctx context.Context, r *model.SystemInfoReport) error
}

// Source fills one report section from a single backend. A Source either
// writes its section completely and returns nil, or writes nothing.
type Source func(ctx context.Context, r *model.SystemInfoReport) error

// Probe is a Collector that tries its sources in order until one succeeds.
type Probe struct {
	Section string
	Sources []Source
}

func (p *Probe) Name() string { return p.Section }

func (p *Probe) Collect(ctx context.Context, r *model.SystemInfoReport) (err error) {
	// Host libraries walk firmware tables and sysfs; a malformed table must
	// not take the whole report down.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s probe panicked: %v", p.Section, rec)
		}
	}()

	if len(p.Sources) == 0 {
		return fmt.Errorf("%s: no source for %s: %w", p.Section, runtime.GOOS, model.ErrDataUnavailable)
	}
	var errs []error
	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := src(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}
	return errors.Join(errs...)
}

// Registry holds all registered collectors.
type Registry struct {
	collectors []Collector
}

// NewRegistry creates a registry with the default probes for this host.
// Library-backed sources come first; on Windows each section falls back to
// CIM queries through PowerShell.
func NewRegistry(runner util.Runner) *Registry {
	cim := runtime.GOOS == "windows"
	withCIM := func(src Source, fallback Source) []Source {
		if cim {
			return []Source{src, fallback}
		}
		return []Source{src}
	}

	gpu := []Source{nvidiaSMISource(runner), ghwGPUSource}
	if cim {
		gpu = append(gpu, cimGPUSource(runner))
	}
	virt := []Source{}
	switch runtime.GOOS {
	case "linux":
		virt = append(virt, linuxVirtSource)
	case "windows":
		virt = append(virt, cimVirtSource(runner))
	}

	return &Registry{
		collectors: []Collector{
			&Probe{Section: SectionOS, Sources: withCIM(hostSource, cimOSSource(runner))},
			&Probe{Section: SectionVirtualization, Sources: virt},
			&Probe{Section: SectionCPU, Sources: withCIM(ghwCPUSource, cimCPUSource(runner))},
			&Probe{Section: SectionTotalMemory, Sources: withCIM(virtualMemorySource, cimTotalMemorySource(runner))},
			&Probe{Section: SectionMemory, Sources: withCIM(smbiosMemorySource, cimMemorySource(runner))},
			&Probe{Section: SectionStorage, Sources: withCIM(ghwBlockSource, cimDiskSource(runner))},
			&Probe{Section: SectionGPU, Sources: gpu},
			&Probe{Section: SectionMotherboard, Sources: withCIM(ghwBaseboardSource, cimBoardSource(runner))},
		},
	}
}

// Add registers an additional collector.
func (r *Registry) Add(c Collector) {
	r.collectors = append(r.collectors, c)
}

// Names lists the registered collectors in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for _, c := range r.collectors {
		names = append(names, c.Name())
	}
	return names
}

// CollectAll runs all collectors, populating the report. The returned slice
// pairs each failing collector with its error.
func (r *Registry) CollectAll(ctx context.Context, rep *model.SystemInfoReport) []model.FieldProblem {
	var problems []model.FieldProblem
	for _, c := range r.collectors {
		if err := c.Collect(ctx, rep); err != nil {
			problems = append(problems, model.FieldProblem{Field: c.Name(), Reason: err.Error()})
		}
	}
	return problems
}
