package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		line   string
		key    string
		val    string
		wantOK bool
	}{
		{"           Model : Samsung SSD 980 PRO 1TB", "Model", "Samsung SSD 980 PRO 1TB", true},
		{"  Date : 2024/05/01 12:34:56", "Date", "2024/05/01 12:34:56", true},
		{"no colon here", "", "", false},
		{" : orphan value", "", "orphan value", false},
	}
	for _, tt := range tests {
		key, val, ok := SplitKeyValue(tt.line)
		if key != tt.key || val != tt.val || ok != tt.wantOK {
			t.Errorf("SplitKeyValue(%q) = (%q, %q, %v); want (%q, %q, %v)",
				tt.line, key, val, ok, tt.key, tt.val, tt.wantOK)
		}
	}
}

func TestParseKeyValueLines_MixedFormats(t *testing.T) {
	m := ParseKeyValueLines([]string{"Interface : NVM Express", "MemTotal 16384", "", "lonely"})
	if m["Interface"] != "NVM Express" {
		t.Errorf("Interface = %q", m["Interface"])
	}
	if m["MemTotal"] != "16384" {
		t.Errorf("MemTotal = %q", m["MemTotal"])
	}
	if _, ok := m["lonely"]; !ok {
		t.Error("single-field line should produce a key")
	}
}

func TestSplitLines_CRLF(t *testing.T) {
	got := SplitLines("a\r\nb\nc")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("SplitLines = %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", " x "); got != "x" {
		t.Errorf("FirstNonEmpty = %q; want x", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Errorf("FirstNonEmpty() = %q; want empty", got)
	}
}

func TestPowerShellJSON_EmptyOutputIsNil(t *testing.T) {
	r := &FakeRunner{OutputFunc: func(string, []string) ([]byte, error) { return []byte("\r\n"), nil }}
	v, err := PowerShellJSON(context.Background(), r, "Get-Nothing")
	if err != nil || v != nil {
		t.Fatalf("PowerShellJSON = (%v, %v); want (nil, nil)", v, err)
	}
}

func TestPowerShellJSON_RunnerError(t *testing.T) {
	r := &FakeRunner{OutputFunc: func(string, []string) ([]byte, error) {
		return nil, &ExitError{Name: "powershell", Code: 1}
	}}
	_, err := PowerShellJSON(context.Background(), r, "Get-CimInstance Win32_Processor")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("err = %v; want wrapped ExitError code 1", err)
	}
}

func TestJSONObjects_ObjectAndArray(t *testing.T) {
	single := JSONObjects(map[string]any{"Name": "A"})
	if len(single) != 1 || single[0]["Name"] != "A" {
		t.Errorf("single = %v", single)
	}
	many := JSONObjects([]any{map[string]any{"Name": "A"}, "junk", map[string]any{"Name": "B"}})
	if len(many) != 2 || many[1]["Name"] != "B" {
		t.Errorf("many = %v", many)
	}
	if JSONObjects(nil) != nil {
		t.Error("nil input should give nil")
	}
}

func TestWithQueryTimeout_BoundsOutput(t *testing.T) {
	fake := &FakeRunner{Hang: true, StartFunc: func(string, []string) (int, error) { return 7, nil }}
	r := WithQueryTimeout(fake, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := r.Output(context.Background(), "nvidia-smi")
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v; want DeadlineExceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Output still blocked past its timeout")
	}

	if pid, err := r.Start(context.Background(), "mdsched.exe"); err != nil || pid != 7 {
		t.Errorf("Start = (%d, %v); want pass-through", pid, err)
	}
	if WithQueryTimeout(fake, 0) != Runner(fake) {
		t.Error("zero timeout should return the runner unchanged")
	}
}
