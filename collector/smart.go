package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// SmartTool is an external S.M.A.R.T. utility that writes its findings to a
// file the storage runner reads back.
type SmartTool interface {
	Kind() string
	Executable() string
	OutputFile() string
	// Capture runs the tool to completion. On success OutputFile holds the
	// fresh capture.
	Capture(ctx context.Context, runner util.Runner, exe string) error
}

// NewSmartTool builds the tool of the given kind ("crystaldiskinfo" or
// "smartctl").
func NewSmartTool(kind, path string, args []string, output string) (SmartTool, error) {
	switch kind {
	case "crystaldiskinfo":
		return &CrystalDiskInfoTool{Path: path, Args: args, Output: output}, nil
	case "smartctl":
		return &SmartctlTool{Path: path, Args: args, Output: output}, nil
	}
	return nil, fmt.Errorf("unknown S.M.A.R.T. tool %q", kind)
}

// CrystalDiskInfoTool runs DiskInfo32.exe /CopyExit, which needs
// administrator rights and writes DiskInfo.txt next to the executable.
type CrystalDiskInfoTool struct {
	Path   string
	Args   []string
	Output string
}

func (t *CrystalDiskInfoTool) Kind() string       { return "crystaldiskinfo" }
func (t *CrystalDiskInfoTool) Executable() string { return t.Path }
func (t *CrystalDiskInfoTool) OutputFile() string { return t.Output }

func (t *CrystalDiskInfoTool) Capture(ctx context.Context, runner util.Runner, exe string) error {
	return runner.RunElevated(ctx, filepath.Dir(exe), exe, t.Args...)
}

// SmartctlTool scans devices with smartctl and stores one JSON document per
// device, one per line, in Output.
type SmartctlTool struct {
	Path   string
	Args   []string // extra arguments for each device query
	Output string
}

func (t *SmartctlTool) Kind() string       { return "smartctl" }
func (t *SmartctlTool) Executable() string { return t.Path }
func (t *SmartctlTool) OutputFile() string { return t.Output }

func (t *SmartctlTool) Capture(ctx context.Context, runner util.Runner, exe string) error {
	scanOut, err := runner.Output(ctx, exe, "--scan", "--json")
	if err != nil && len(scanOut) == 0 {
		return fmt.Errorf("smartctl --scan: %w", err)
	}

	var scanResult struct {
		Devices []struct {
			Name     string `json:"name"`
			InfoName string `json:"info_name"`
			Type     string `json:"type"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(scanOut, &scanResult); err != nil {
		return fmt.Errorf("smartctl --scan: decode: %w", err)
	}
	if len(scanResult.Devices) == 0 {
		return fmt.Errorf("smartctl --scan: no devices found")
	}

	var buf bytes.Buffer
	for _, dev := range scanResult.Devices {
		args := []string{"-a", "--json=c"}
		if dev.Type != "" {
			args = append(args, "-d", dev.Type)
		}
		args = append(args, t.Args...)
		args = append(args, dev.Name)

		out, err := runner.Output(ctx, exe, args...)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// smartctl sets status bits for failing disks; only an empty
			// answer means the query itself failed.
			if len(bytes.TrimSpace(out)) == 0 {
				return fmt.Errorf("smartctl %s: %w", dev.Name, err)
			}
		}
		buf.Write(bytes.ReplaceAll(bytes.TrimSpace(out), []byte("\n"), nil))
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(t.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.Output, buf.Bytes(), 0o644)
}

// smartctlJSON is the relevant subset of smartctl --json output.
type smartctlJSON struct {
	Device struct {
		Name     string `json:"name"`
		InfoName string `json:"info_name"`
		Type     string `json:"type"`
		Protocol string `json:"protocol"`
	} `json:"device"`
	ModelFamily     string `json:"model_family"`
	ModelName       string `json:"model_name"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	UserCapacity    struct {
		Bytes uint64 `json:"bytes"`
	} `json:"user_capacity"`
	SmartStatus *struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
	Temperature struct {
		Current int `json:"current"`
	} `json:"temperature"`
	PowerOnTime struct {
		Hours int `json:"hours"`
	} `json:"power_on_time"`
	PowerCycleCount    int `json:"power_cycle_count"`
	ATASmartAttributes struct {
		Table []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Value  int    `json:"value"`
			Worst  int    `json:"worst"`
			Thresh int    `json:"thresh"`
			Raw    struct {
				Value  int64  `json:"value"`
				String string `json:"string"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes"`
	NVMeSmartHealthLog *struct {
		CriticalWarning  int   `json:"critical_warning"`
		Temperature      int   `json:"temperature"`
		AvailableSpare   int   `json:"available_spare"`
		PercentageUsed   int   `json:"percentage_used"`
		DataUnitsRead    int64 `json:"data_units_read"`
		DataUnitsWritten int64 `json:"data_units_written"`
		MediaErrors      int64 `json:"media_errors"`
	} `json:"nvme_smart_health_information_log"`
}

// ParseSmartctl parses a capture written by SmartctlTool.
func ParseSmartctl(text string) (*model.SmartReport, error) {
	rep := &model.SmartReport{Tool: "smartctl"}
	for _, line := range util.SplitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var data smartctlJSON
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			return nil, fmt.Errorf("smartctl: decode device %d: %w", len(rep.Disks)+1, err)
		}
		rep.Disks = append(rep.Disks, smartctlDisk(len(rep.Disks)+1, &data))
	}
	if len(rep.Disks) == 0 {
		return nil, fmt.Errorf("smartctl: no devices in capture")
	}
	return rep, nil
}

// nvmeDataUnit is the NVMe "data unit": 1000 512-byte sectors.
const nvmeDataUnit = 512 * 1000

func smartctlDisk(index int, data *smartctlJSON) model.SmartDisk {
	disk := model.SmartDisk{
		Index:     index,
		Device:    data.Device.Name,
		Model:     util.FirstNonEmpty(data.ModelName, data.ModelFamily),
		Firmware:  data.FirmwareVersion,
		Serial:    data.SerialNumber,
		Interface: strings.ToUpper(util.FirstNonEmpty(data.Device.Protocol, data.Device.Type)),
	}
	if data.UserCapacity.Bytes > 0 {
		disk.DiskSize = fmt.Sprintf("%.1f GB", float64(data.UserCapacity.Bytes)/1e9)
	}
	if data.PowerOnTime.Hours > 0 {
		disk.PowerOnHours = strconv.Itoa(data.PowerOnTime.Hours)
	}
	if data.PowerCycleCount > 0 {
		disk.PowerOnCount = strconv.Itoa(data.PowerCycleCount)
	}
	temp := data.Temperature.Current

	status := ""
	if data.SmartStatus != nil {
		status = "FAILED"
		if data.SmartStatus.Passed {
			status = "PASSED"
		}
	}

	caution := false
	if nv := data.NVMeSmartHealthLog; nv != nil {
		if temp == 0 {
			temp = nv.Temperature
		}
		disk.HostReads = fmt.Sprintf("%d GB", nv.DataUnitsRead*nvmeDataUnit/1_000_000_000)
		disk.HostWrites = fmt.Sprintf("%d GB", nv.DataUnitsWritten*nvmeDataUnit/1_000_000_000)
		caution = nv.CriticalWarning != 0 || nv.MediaErrors > 0 || nv.PercentageUsed >= 90
		disk.Attributes = append(disk.Attributes,
			model.SmartAttribute{ID: "01", Name: "Critical Warning", Raw: strconv.Itoa(nv.CriticalWarning)},
			model.SmartAttribute{ID: "03", Name: "Available Spare", Raw: strconv.Itoa(nv.AvailableSpare)},
			model.SmartAttribute{ID: "05", Name: "Percentage Used", Raw: strconv.Itoa(nv.PercentageUsed)},
			model.SmartAttribute{ID: "0E", Name: "Media and Data Integrity Errors", Raw: strconv.FormatInt(nv.MediaErrors, 10)},
		)
	}

	for _, attr := range data.ATASmartAttributes.Table {
		raw := util.FirstNonEmpty(attr.Raw.String, strconv.FormatInt(attr.Raw.Value, 10))
		disk.Attributes = append(disk.Attributes, model.SmartAttribute{
			ID:        fmt.Sprintf("%02X", attr.ID),
			Name:      attr.Name,
			Current:   strconv.Itoa(attr.Value),
			Worst:     strconv.Itoa(attr.Worst),
			Threshold: strconv.Itoa(attr.Thresh),
			Raw:       raw,
		})
		switch attr.ID {
		case 5, 197, 198: // Reallocated, Current_Pending, Offline_Uncorrectable
			if attr.Raw.Value > 0 {
				caution = true
			}
		case 194: // Temperature_Celsius
			if temp == 0 {
				temp = int(attr.Raw.Value & 0xff)
			}
		}
	}
	if temp > 0 {
		disk.Temperature = fmt.Sprintf("%d C", temp)
	}

	switch {
	case status == "FAILED":
		disk.Health = model.DiskHealthBad
	case status == "PASSED" && caution:
		disk.Health = model.DiskHealthCaution
		status = "PASSED (caution)"
	case status == "PASSED":
		disk.Health = model.DiskHealthGood
	default:
		disk.Health = model.DiskHealthUnknown
	}
	disk.HealthStatus = status
	return disk
}

// ParseCapture parses a raw capture of either tool, telling them apart by
// content.
func ParseCapture(data []byte) (*model.SmartReport, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		return ParseSmartctl(text)
	}
	return ParseCrystalDiskInfo(text)
}
