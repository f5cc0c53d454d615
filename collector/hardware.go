package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jaypipes/ghw"
	"github.com/siderolabs/go-smbios/smbios"

	"github.com/ftahirops/pcdiag/model"
)

func ghwCPUSource(ctx context.Context, r *model.SystemInfoReport) error {
	info, err := ghw.CPU()
	if err != nil {
		return fmt.Errorf("failed to get CPU info: %w", err)
	}
	if len(info.Processors) == 0 {
		return fmt.Errorf("CPU info: no processors: %w", model.ErrDataUnavailable)
	}

	var cores, threads uint32
	for _, p := range info.Processors {
		cores += uint32(p.TotalCores)
		threads += uint32(p.TotalHardwareThreads)
	}
	first := info.Processors[0]
	modelName := first.Model
	if len(info.Processors) > 1 {
		modelName = fmt.Sprintf("%s x%d", modelName, len(info.Processors))
	}

	r.CPU = model.CPUInfo{
		Model:    modelName,
		Cores:    countString(cores),
		Threads:  countString(threads),
		MaxClock: maxClock(ctx),
	}
	return nil
}

func countString(n uint32) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

// virtualDiskPrefixes are block devices that are not physical storage.
var virtualDiskPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "sr"}

func ghwBlockSource(_ context.Context, r *model.SystemInfoReport) error {
	blockStorage, err := ghw.Block()
	if err != nil {
		return fmt.Errorf("failed to get block devices: %w", err)
	}

	devices := make([]model.StorageDevice, 0, len(blockStorage.Disks))
	for _, d := range blockStorage.Disks {
		if d.SizeBytes == 0 || hasAnyPrefix(d.Name, virtualDiskPrefixes) {
			continue
		}
		devices = append(devices, model.StorageDevice{
			Model:         knownOrEmpty(d.Model),
			Capacity:      humanize.Bytes(d.SizeBytes),
			CapacityBytes: d.SizeBytes,
			Interface:     knownOrEmpty(d.StorageController.String()),
			Serial:        knownOrEmpty(d.SerialNumber),
		})
	}
	r.Storage = devices
	return nil
}

func ghwGPUSource(_ context.Context, r *model.SystemInfoReport) error {
	info, err := ghw.GPU()
	if err != nil {
		return fmt.Errorf("failed to get GPU info: %w", err)
	}
	gpus := make([]model.GPUInfo, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		dev := card.DeviceInfo
		if dev == nil || dev.Vendor == nil || dev.Product == nil {
			continue
		}
		name := strings.TrimSpace(fmt.Sprintf("%s %s", dev.Vendor.Name, dev.Product.Name))
		gpus = append(gpus, model.GPUInfo{Model: name})
	}
	if len(gpus) == 0 {
		return fmt.Errorf("GPU info: no graphics cards: %w", model.ErrDataUnavailable)
	}
	r.GPUs = gpus
	return nil
}

func ghwBaseboardSource(_ context.Context, r *model.SystemInfoReport) error {
	board, err := ghw.Baseboard()
	if err != nil {
		return fmt.Errorf("failed to get baseboard info: %w", err)
	}
	desc := joinKnown(board.Vendor, board.Product, board.Version)
	if desc == "" {
		return fmt.Errorf("baseboard info: %w", model.ErrDataUnavailable)
	}
	r.Motherboard = desc
	return nil
}

func smbiosMemorySource(_ context.Context, r *model.SystemInfoReport) error {
	sm, err := smbios.New()
	if err != nil {
		return fmt.Errorf("failed to read SMBIOS: %w", err)
	}

	modules := make([]model.MemoryModule, 0, len(sm.MemoryDevices))
	for _, m := range sm.MemoryDevices {
		if m.Size == 0 {
			continue
		}
		sizeBytes := uint64(m.Size.Megabytes()) * 1024 * 1024
		modules = append(modules, model.MemoryModule{
			Slot:                 m.DeviceLocator,
			ManufacturerAndModel: manufacturerAndModel(m.Manufacturer, m.PartNumber),
			Type:                 m.MemoryType.String(),
			Speed:                m.Speed.String(),
			Capacity:             humanize.IBytes(sizeBytes),
			CapacityBytes:        sizeBytes,
		})
	}
	r.Memory = modules
	return nil
}

// placeholderVendors are firmware fillers that carry no vendor information.
var placeholderVendors = map[string]bool{
	"":                       true,
	"unknown":                true,
	"not specified":          true,
	"to be filled by o.e.m.": true,
	"default string":         true,
	"(標準ディスク ドライブ)":          true,
	"(standard disk drives)": true,
}

// knownOrEmpty blanks firmware placeholder strings.
func knownOrEmpty(s string) string {
	s = strings.TrimSpace(s)
	if placeholderVendors[strings.ToLower(s)] {
		return ""
	}
	return s
}

// manufacturerAndModel joins a DIMM vendor and part number, dropping the
// vendor when the firmware did not fill it in.
func manufacturerAndModel(manufacturer, part string) string {
	return joinKnown(manufacturer, part)
}

func joinKnown(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = knownOrEmpty(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
