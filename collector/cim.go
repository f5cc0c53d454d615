package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// CIM queries used when the hardware libraries cannot read a Windows host.
const (
	cimOSQuery        = "Get-CimInstance Win32_OperatingSystem | Select-Object Caption, Version, OSArchitecture, CSName, BuildNumber | ConvertTo-Json -Compress"
	cimCPUQuery       = "Get-CimInstance Win32_Processor | Select-Object Name, NumberOfCores, NumberOfLogicalProcessors, MaxClockSpeed | ConvertTo-Json -Compress"
	cimComputerQuery  = "Get-CimInstance Win32_ComputerSystem | Select-Object Manufacturer, Model, TotalPhysicalMemory | ConvertTo-Json -Compress"
	cimMemoryQuery    = "Get-CimInstance Win32_PhysicalMemory | Select-Object DeviceLocator, Manufacturer, PartNumber, SMBIOSMemoryType, Speed, Capacity | ConvertTo-Json -Compress"
	cimDiskQuery      = "Get-CimInstance Win32_DiskDrive | Select-Object Model, Size, InterfaceType, SerialNumber | ConvertTo-Json -Compress"
	cimGPUQuery       = "Get-CimInstance Win32_VideoController | Select-Object Name, AdapterRAM, DriverVersion | ConvertTo-Json -Compress"
	cimBaseboardQuery = "Get-CimInstance Win32_BaseBoard | Select-Object Manufacturer, Product, Version | ConvertTo-Json -Compress"
)

// smbiosMemoryTypes maps SMBIOS type 17 memory type codes to names.
var smbiosMemoryTypes = map[int]string{
	1:  "Other",
	2:  "Unknown",
	3:  "DRAM",
	4:  "EDRAM",
	5:  "VRAM",
	6:  "SRAM",
	7:  "RAM",
	8:  "ROM",
	9:  "FLASH",
	10: "EEPROM",
	11: "FEPROM",
	12: "EPROM",
	13: "CDRAM",
	14: "3DRAM",
	15: "SDRAM",
	16: "SGRAM",
	17: "RDRAM",
	18: "DDR",
	19: "DDR2",
	20: "DDR2 FB-DIMM",
	24: "DDR3",
	25: "FBD2",
	26: "DDR4",
	27: "LPDDR",
	28: "LPDDR2",
	29: "LPDDR3",
	30: "LPDDR4",
	31: "Logical non-volatile device",
	32: "HBM",
	33: "HBM2",
	34: "DDR5",
	35: "LPDDR5",
	36: "HBM3",
}

func cimQuery(ctx context.Context, runner util.Runner, query string) ([]map[string]any, error) {
	v, err := util.PowerShellJSON(ctx, runner, query)
	if err != nil {
		return nil, err
	}
	objs := util.JSONObjects(v)
	if len(objs) == 0 {
		return nil, fmt.Errorf("cim: empty result: %w", model.ErrDataUnavailable)
	}
	return objs, nil
}

func cimString(obj map[string]any, key string) string {
	return strings.TrimSpace(cast.ToString(obj[key]))
}

func cimOSSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimOSQuery)
		if err != nil {
			return fmt.Errorf("failed to get OS info: %w", err)
		}
		os := objs[0]
		r.Hostname = cimString(os, "CSName")
		r.OS = model.OSInfo{
			Name:    cimString(os, "Caption"),
			Version: cimString(os, "Version"),
			Kernel:  "Windows NT " + cimString(os, "BuildNumber"),
			Arch:    cimString(os, "OSArchitecture"),
		}
		return nil
	}
}

func cimCPUSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimCPUQuery)
		if err != nil {
			return fmt.Errorf("failed to get CPU info: %w", err)
		}
		// Multiple sockets report one object each; the first names the model.
		var cores, threads uint32
		for _, cpu := range objs {
			cores += cast.ToUint32(cpu["NumberOfCores"])
			threads += cast.ToUint32(cpu["NumberOfLogicalProcessors"])
		}
		first := objs[0]
		clock := ""
		if mhz := cast.ToInt(first["MaxClockSpeed"]); mhz > 0 {
			clock = fmt.Sprintf("%d MHz", mhz)
		}
		r.CPU = model.CPUInfo{
			Model:    cimString(first, "Name"),
			Cores:    countString(cores),
			Threads:  countString(threads),
			MaxClock: clock,
		}
		return nil
	}
}

func cimTotalMemorySource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimComputerQuery)
		if err != nil {
			return fmt.Errorf("failed to get total memory: %w", err)
		}
		total := cast.ToUint64(objs[0]["TotalPhysicalMemory"])
		if total == 0 {
			return fmt.Errorf("total memory: %w", model.ErrDataUnavailable)
		}
		r.TotalMemory = humanize.IBytes(total)
		return nil
	}
}

func cimMemorySource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimMemoryQuery)
		if err != nil {
			return fmt.Errorf("failed to get memory modules: %w", err)
		}
		modules := make([]model.MemoryModule, 0, len(objs))
		for _, m := range objs {
			capacity := cast.ToUint64(m["Capacity"])
			mod := model.MemoryModule{
				Slot:                 cimString(m, "DeviceLocator"),
				ManufacturerAndModel: manufacturerAndModel(cimString(m, "Manufacturer"), cimString(m, "PartNumber")),
				Type:                 smbiosMemoryTypes[cast.ToInt(m["SMBIOSMemoryType"])],
				CapacityBytes:        capacity,
			}
			if speed := cast.ToInt(m["Speed"]); speed > 0 {
				mod.Speed = fmt.Sprintf("%d MHz", speed)
			}
			if capacity > 0 {
				mod.Capacity = humanize.IBytes(capacity)
			}
			modules = append(modules, mod)
		}
		r.Memory = modules
		return nil
	}
}

func cimDiskSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimDiskQuery)
		if err != nil {
			return fmt.Errorf("failed to get disks: %w", err)
		}
		devices := make([]model.StorageDevice, 0, len(objs))
		for _, d := range objs {
			size := cast.ToUint64(d["Size"])
			dev := model.StorageDevice{
				Model:         cimString(d, "Model"),
				CapacityBytes: size,
				Interface:     cimString(d, "InterfaceType"),
				Serial:        cimString(d, "SerialNumber"),
			}
			if size > 0 {
				dev.Capacity = humanize.Bytes(size)
			}
			devices = append(devices, dev)
		}
		r.Storage = devices
		return nil
	}
}

func cimGPUSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimGPUQuery)
		if err != nil {
			return fmt.Errorf("failed to get GPU info: %w", err)
		}
		gpus := make([]model.GPUInfo, 0, len(objs))
		for _, g := range objs {
			gpu := model.GPUInfo{
				Model:  cimString(g, "Name"),
				Driver: cimString(g, "DriverVersion"),
			}
			// AdapterRAM is a uint32 and saturates at 4 GiB.
			if ram := cast.ToUint64(g["AdapterRAM"]); ram > 0 {
				gpu.VRAM = humanize.IBytes(ram)
			}
			gpus = append(gpus, gpu)
		}
		r.GPUs = gpus
		return nil
	}
}

func cimBoardSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimBaseboardQuery)
		if err != nil {
			return fmt.Errorf("failed to get baseboard info: %w", err)
		}
		b := objs[0]
		desc := joinKnown(cimString(b, "Manufacturer"), cimString(b, "Product"), cimString(b, "Version"))
		if desc == "" {
			return fmt.Errorf("baseboard info: %w", model.ErrDataUnavailable)
		}
		r.Motherboard = desc
		return nil
	}
}

func cimVirtSource(runner util.Runner) Source {
	return func(ctx context.Context, r *model.SystemInfoReport) error {
		objs, err := cimQuery(ctx, runner, cimComputerQuery)
		if err != nil {
			return fmt.Errorf("failed to get computer system: %w", err)
		}
		v := classifyVendor(cimString(objs[0], "Manufacturer"), cimString(objs[0], "Model"))
		if v == "" {
			v = "Bare Metal"
		}
		r.Virtualization = v
		return nil
	}
}
