package collector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ftahirops/pcdiag/model"
	"github.com/ftahirops/pcdiag/util"
)

// CrystalDiskInfo writes DiskInfo.txt as a header, a "-- Disk List" index and
// one block per disk:
//
//	----------------------------------------------------------------------------
//	 (1) Samsung SSD 980 PRO 1TB
//	----------------------------------------------------------------------------
//	           Model : Samsung SSD 980 PRO 1TB
//	   Health Status : Good (99 %)
//	-- S.M.A.R.T. --------------------------------------------------------------
//	ID RawValues(6) Attribute Name
//	01 _____________00 Critical Warning

var (
	cdiDiskEntry = regexp.MustCompile(`^\s*\((\d+)\)\s+(.+?)\s*$`)
	cdiNumber    = regexp.MustCompile(`[\d][\d,\.]*`)
)

// cdiFields maps English and Japanese CrystalDiskInfo labels to disk fields.
var cdiFields = map[string]func(d *model.SmartDisk, v string){
	"model":          func(d *model.SmartDisk, v string) { d.Model = v },
	"モデル":            func(d *model.SmartDisk, v string) { d.Model = v },
	"firmware":       func(d *model.SmartDisk, v string) { d.Firmware = v },
	"ファームウェア":        func(d *model.SmartDisk, v string) { d.Firmware = v },
	"serial number":  func(d *model.SmartDisk, v string) { d.Serial = v },
	"シリアルナンバー":       func(d *model.SmartDisk, v string) { d.Serial = v },
	"disk size":      func(d *model.SmartDisk, v string) { d.DiskSize = v },
	"ディスクサイズ":        func(d *model.SmartDisk, v string) { d.DiskSize = v },
	"interface":      func(d *model.SmartDisk, v string) { d.Interface = v },
	"インターフェース":       func(d *model.SmartDisk, v string) { d.Interface = v },
	"power on hours": func(d *model.SmartDisk, v string) { d.PowerOnHours = leadingNumber(v) },
	"使用時間":           func(d *model.SmartDisk, v string) { d.PowerOnHours = leadingNumber(v) },
	"power on count": func(d *model.SmartDisk, v string) { d.PowerOnCount = leadingNumber(v) },
	"電源投入回数":         func(d *model.SmartDisk, v string) { d.PowerOnCount = leadingNumber(v) },
	"host reads":     func(d *model.SmartDisk, v string) { d.HostReads = stripThousands(v) },
	"総読込量 (ホスト)":     func(d *model.SmartDisk, v string) { d.HostReads = stripThousands(v) },
	"host writes":    func(d *model.SmartDisk, v string) { d.HostWrites = stripThousands(v) },
	"総書込量 (ホスト)":     func(d *model.SmartDisk, v string) { d.HostWrites = stripThousands(v) },
	"temperature":    func(d *model.SmartDisk, v string) { d.Temperature = celsius(v) },
	"温度":             func(d *model.SmartDisk, v string) { d.Temperature = celsius(v) },
	"health status":  func(d *model.SmartDisk, v string) { d.HealthStatus = v },
	"健康状態":           func(d *model.SmartDisk, v string) { d.HealthStatus = v },
	"drive letter":   func(d *model.SmartDisk, v string) { d.Device = v },
	"ドライブレター":        func(d *model.SmartDisk, v string) { d.Device = v },
}

type cdiSection int

const (
	cdiHeader cdiSection = iota
	cdiDiskList
	cdiDiskInfo
	cdiAttributes
	cdiOther
)

// ParseCrystalDiskInfo parses a DiskInfo.txt capture.
func ParseCrystalDiskInfo(text string) (*model.SmartReport, error) {
	rep := &model.SmartReport{Tool: "crystaldiskinfo"}
	lines := util.SplitLines(strings.TrimPrefix(text, "\ufeff"))

	listed := map[int]string{} // index -> disk list line
	var (
		section  = cdiHeader
		cur      *model.SmartDisk
		attrCols int
	)
	flush := func() {
		if cur != nil {
			rep.Disks = append(rep.Disks, *cur)
			cur = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		// Disk block banner: dashes, "(N) name", dashes.
		if isDashRule(trimmed) {
			if i+2 < len(lines) && isDashRule(strings.TrimSpace(lines[i+2])) {
				if m := cdiDiskEntry.FindStringSubmatch(lines[i+1]); m != nil {
					flush()
					idx, _ := strconv.Atoi(m[1])
					cur = &model.SmartDisk{Index: idx, Model: m[2]}
					section = cdiDiskInfo
					i += 2
					continue
				}
			}
			if section == cdiDiskList {
				section = cdiOther
			}
			continue
		}

		if strings.HasPrefix(trimmed, "-- ") {
			name := strings.TrimSpace(strings.Trim(trimmed, "- "))
			switch {
			case strings.HasPrefix(name, "Disk List"), strings.HasPrefix(name, "ディスクリスト"):
				flush()
				section = cdiDiskList
			case strings.HasPrefix(name, "S.M.A.R.T.") && cur != nil:
				section = cdiAttributes
				attrCols = 0
			default:
				section = cdiOther
			}
			continue
		}
		if trimmed == "" {
			continue
		}

		switch section {
		case cdiHeader:
			if k, v, ok := util.SplitKeyValue(trimmed); ok && (k == "Date" || k == "日付") {
				if t, err := time.ParseInLocation("2006/01/02 15:04:05", v, time.Local); err == nil {
					rep.CapturedAt = t
				}
			}
		case cdiDiskList:
			if m := cdiDiskEntry.FindStringSubmatch(trimmed); m != nil {
				idx, _ := strconv.Atoi(m[1])
				listed[idx] = m[2]
			}
		case cdiDiskInfo:
			k, v, ok := util.SplitKeyValue(trimmed)
			if !ok {
				continue
			}
			if set, known := cdiFields[strings.ToLower(k)]; known {
				set(cur, v)
			}
		case cdiAttributes:
			fields := strings.Fields(trimmed)
			if len(fields) > 0 && fields[0] == "ID" {
				// "ID Cur Wor Thr RawValues(6) Attribute Name" (ATA) or
				// "ID RawValues(6) Attribute Name" (NVMe).
				attrCols = 2
				if len(fields) > 1 && fields[1] == "Cur" {
					attrCols = 5
				}
				continue
			}
			if attrCols == 0 || len(fields) < attrCols {
				continue
			}
			cur.Attributes = append(cur.Attributes, parseCDIAttribute(fields, attrCols))
		}
	}
	flush()

	if len(rep.Disks) == 0 {
		// No detail blocks; fall back to the disk list alone.
		for idx := 1; idx <= len(listed); idx++ {
			entry, ok := listed[idx]
			if !ok {
				continue
			}
			d := model.SmartDisk{Index: idx}
			d.Model, d.DiskSize = splitDiskListEntry(entry)
			rep.Disks = append(rep.Disks, d)
		}
	}
	if len(rep.Disks) == 0 {
		return nil, fmt.Errorf("crystaldiskinfo: no disks found")
	}

	for i := range rep.Disks {
		d := &rep.Disks[i]
		if d.Device == "" {
			d.Device = fmt.Sprintf("(%d)", d.Index)
		}
		if d.DiskSize == "" {
			_, d.DiskSize = splitDiskListEntry(listed[d.Index])
		}
		d.Health = ClassifyHealth(d.HealthStatus)
	}
	return rep, nil
}

// parseCDIAttribute reads one attribute row. Values are left-padded with
// underscores ("_83", "0000096C5A18").
func parseCDIAttribute(fields []string, cols int) model.SmartAttribute {
	attr := model.SmartAttribute{
		ID:   fields[0],
		Name: strings.Join(fields[cols:], " "),
	}
	if cols == 5 {
		attr.Current = unpad(fields[1])
		attr.Worst = unpad(fields[2])
		attr.Threshold = unpad(fields[3])
		attr.Raw = unpad(fields[4])
	} else {
		attr.Raw = unpad(fields[1])
	}
	return attr
}

func unpad(s string) string {
	s = strings.TrimLeft(s, "_")
	if s == "" {
		return "0"
	}
	return s
}

// splitDiskListEntry splits "Samsung SSD 980 PRO 1TB : 1000.2 GB [0/-/-, sq] - nvme"
// into model and size.
func splitDiskListEntry(entry string) (modelName, size string) {
	idx := strings.LastIndex(entry, " : ")
	if idx < 0 {
		return strings.TrimSpace(entry), ""
	}
	modelName = strings.TrimSpace(entry[:idx])
	rest := strings.TrimSpace(entry[idx+3:])
	if b := strings.Index(rest, "["); b >= 0 {
		rest = rest[:b]
	}
	return modelName, strings.TrimSpace(rest)
}

func isDashRule(s string) bool {
	return len(s) >= 20 && strings.Trim(s, "-") == ""
}

// leadingNumber returns the first number in v without thousands separators
// ("1,234 hours" -> "1234", "567 回" -> "567"), or v when there is none.
func leadingNumber(v string) string {
	if m := cdiNumber.FindString(v); m != "" {
		return strings.ReplaceAll(m, ",", "")
	}
	return v
}

func stripThousands(v string) string {
	return strings.ReplaceAll(v, ",", "")
}

// celsius keeps the Celsius part of "38 C (100 F)".
func celsius(v string) string {
	if i := strings.Index(v, "("); i > 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}

// ClassifyHealth maps a tool health text ("Good (99 %)", "注意") to a level.
func ClassifyHealth(status string) model.DiskHealth {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "":
		return model.DiskHealthUnknown
	case strings.HasPrefix(s, "good"), strings.HasPrefix(s, "正常"), strings.HasPrefix(s, "passed"):
		return model.DiskHealthGood
	case strings.HasPrefix(s, "caution"), strings.HasPrefix(s, "注意"):
		return model.DiskHealthCaution
	case strings.HasPrefix(s, "bad"), strings.HasPrefix(s, "異常"), strings.HasPrefix(s, "failed"):
		return model.DiskHealthBad
	}
	return model.DiskHealthUnknown
}
