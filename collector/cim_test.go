package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// cimRunner answers PowerShell CIM queries by WMI class name.
func cimRunner(answers map[string]string) *util.FakeRunner {
	return &util.FakeRunner{
		OutputFunc: func(name string, args []string) ([]byte, error) {
			if name != "powershell" {
				return nil, errors.New(name + ": executable file not found")
			}
			cmdline := args[len(args)-1]
			for class, out := range answers {
				if strings.Contains(cmdline, class+" ") {
					return []byte(out), nil
				}
			}
			return nil, nil
		},
	}
}

func TestCIMOSSource(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_OperatingSystem": `{"Caption":"Microsoft Windows 11 Pro","Version":"10.0.22631","OSArchitecture":"64-bit","CSName":"DESKTOP-01","BuildNumber":"22631"}`,
	})
	var rep model.SystemInfoReport
	if err := cimOSSource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimOSSource: %v", err)
	}
	want := model.OSInfo{Name: "Microsoft Windows 11 Pro", Version: "10.0.22631", Kernel: "Windows NT 22631", Arch: "64-bit"}
	if diff := cmp.Diff(want, rep.OS); diff != "" {
		t.Errorf("OS mismatch (-want +got):\n%s", diff)
	}
	if rep.Hostname != "DESKTOP-01" {
		t.Errorf("Hostname = %q", rep.Hostname)
	}
}

func TestCIMCPUSource_SumsSockets(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_Processor": `[{"Name":"Intel(R) Xeon(R) Silver 4210","NumberOfCores":10,"NumberOfLogicalProcessors":20,"MaxClockSpeed":2195},` +
			`{"Name":"Intel(R) Xeon(R) Silver 4210","NumberOfCores":10,"NumberOfLogicalProcessors":20,"MaxClockSpeed":2195}]`,
	})
	var rep model.SystemInfoReport
	if err := cimCPUSource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimCPUSource: %v", err)
	}
	want := model.CPUInfo{Model: "Intel(R) Xeon(R) Silver 4210", Cores: "20", Threads: "40", MaxClock: "2195 MHz"}
	if diff := cmp.Diff(want, rep.CPU); diff != "" {
		t.Errorf("CPU mismatch (-want +got):\n%s", diff)
	}
}

func TestCIMMemorySource(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_PhysicalMemory": `[{"DeviceLocator":"DIMM1","Manufacturer":"Kingston","PartNumber":"KF432C16BB/16 ","SMBIOSMemoryType":26,"Speed":3200,"Capacity":17179869184},` +
			`{"DeviceLocator":"DIMM2","Manufacturer":"Unknown","PartNumber":"M425R1GB4BB0-CWM0D","SMBIOSMemoryType":34,"Speed":5600,"Capacity":"17179869184"}]`,
	})
	var rep model.SystemInfoReport
	if err := cimMemorySource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimMemorySource: %v", err)
	}
	want := []model.MemoryModule{
		{Slot: "DIMM1", ManufacturerAndModel: "Kingston KF432C16BB/16", Type: "DDR4", Speed: "3200 MHz", Capacity: "16 GiB", CapacityBytes: 16 << 30},
		{Slot: "DIMM2", ManufacturerAndModel: "M425R1GB4BB0-CWM0D", Type: "DDR5", Speed: "5600 MHz", Capacity: "16 GiB", CapacityBytes: 16 << 30},
	}
	if diff := cmp.Diff(want, rep.Memory); diff != "" {
		t.Errorf("Memory mismatch (-want +got):\n%s", diff)
	}
}

func TestCIMDiskSource_SingleObject(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_DiskDrive": `{"Model":"Samsung SSD 980 PRO 1TB","Size":1000202273280,"InterfaceType":"SCSI","SerialNumber":" 0025_38B2_1140_1234."}`,
	})
	var rep model.SystemInfoReport
	if err := cimDiskSource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimDiskSource: %v", err)
	}
	if len(rep.Storage) != 1 {
		t.Fatalf("len(Storage) = %d; want 1", len(rep.Storage))
	}
	d := rep.Storage[0]
	if d.Model != "Samsung SSD 980 PRO 1TB" || d.Capacity != "1.0 TB" || d.Interface != "SCSI" {
		t.Errorf("disk = %+v", d)
	}
	if d.Serial != "0025_38B2_1140_1234." {
		t.Errorf("Serial = %q; want trimmed", d.Serial)
	}
}

func TestCIMGPUSource(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_VideoController": `{"Name":"Intel(R) UHD Graphics 770","AdapterRAM":2147483648,"DriverVersion":"31.0.101.4502"}`,
	})
	var rep model.SystemInfoReport
	if err := cimGPUSource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimGPUSource: %v", err)
	}
	want := []model.GPUInfo{{Model: "Intel(R) UHD Graphics 770", VRAM: "2.0 GiB", Driver: "31.0.101.4502"}}
	if diff := cmp.Diff(want, rep.GPUs); diff != "" {
		t.Errorf("GPUs mismatch (-want +got):\n%s", diff)
	}
}

func TestCIMVirtSource(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_ComputerSystem": `{"Manufacturer":"Microsoft Corporation","Model":"Virtual Machine","TotalPhysicalMemory":8589934592}`,
	})
	var rep model.SystemInfoReport
	if err := cimVirtSource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimVirtSource: %v", err)
	}
	if rep.Virtualization != "VM (Hyper-V)" {
		t.Errorf("Virtualization = %q; want VM (Hyper-V)", rep.Virtualization)
	}
	if err := cimTotalMemorySource(runner)(context.Background(), &rep); err != nil {
		t.Fatalf("cimTotalMemorySource: %v", err)
	}
	if rep.TotalMemory != "8.0 GiB" {
		t.Errorf("TotalMemory = %q; want 8.0 GiB", rep.TotalMemory)
	}
}

func TestCIMBoardSource_PlaceholdersOnly(t *testing.T) {
	runner := cimRunner(map[string]string{
		"Win32_BaseBoard": `{"Manufacturer":"To Be Filled By O.E.M.","Product":"Default string","Version":""}`,
	})
	var rep model.SystemInfoReport
	err := cimBoardSource(runner)(context.Background(), &rep)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("err = %v; want ErrDataUnavailable", err)
	}
	if rep.Motherboard != "" {
		t.Errorf("Motherboard = %q; want untouched", rep.Motherboard)
	}
}

func TestCIMQuery_EmptyOutputIsUnavailable(t *testing.T) {
	var rep model.SystemInfoReport
	err := cimOSSource(cimRunner(nil))(context.Background(), &rep)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("err = %v; want ErrDataUnavailable", err)
	}
}

func TestNvidiaSMISource_MissingDriver(t *testing.T) {
	var rep model.SystemInfoReport
	if err := nvidiaSMISource(&util.FakeRunner{})(context.Background(), &rep); err == nil {
		t.Error("want error without nvidia-smi")
	}
	if rep.GPUs != nil {
		t.Errorf("GPUs = %v; want untouched", rep.GPUs)
	}
}
