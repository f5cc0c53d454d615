package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// utf8Prelude forces UTF-8 on stdout; the default console code page mangles
// localized WMI strings.
const utf8Prelude = "[Console]::OutputEncoding = [System.Text.Encoding]::UTF8; "

// PowerShellJSON runs a PowerShell pipeline ending in ConvertTo-Json and
// decodes the result. Empty output yields a nil value and no error.
func PowerShellJSON(ctx context.Context, r Runner, command string) (any, error) {
	out, err := r.Output(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", utf8Prelude+command)
	if err != nil {
		return nil, fmt.Errorf("powershell: %w", err)
	}
	out = bytes.TrimSpace(out)
	// Strip a UTF-8 BOM if the host emitted one.
	out = bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))
	if len(out) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(out, &v); err != nil {
		return nil, fmt.Errorf("powershell: decode json: %w", err)
	}
	return v, nil
}

// JSONObjects normalizes ConvertTo-Json output, which is a bare object for a
// single item and an array otherwise.
func JSONObjects(v any) []map[string]any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return []map[string]any{t}
	case []any:
		objs := make([]map[string]any, 0, len(t))
		for _, item := range cast.ToSlice(t) {
			m, err := cast.ToStringMapE(item)
			if err != nil {
				continue
			}
			objs = append(objs, m)
		}
		return objs
	}
	return nil
}
