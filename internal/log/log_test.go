package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("records below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn line") {
		t.Errorf("missing warn record: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error line err=boom") {
		t.Errorf("missing error record: %q", out)
	}
}

func TestKeyValueFormatting(t *testing.T) {
	buf := capture(t, LevelDebug)

	Info("exported", "path", "/tmp/a b.json", "count", 3, "dangling")

	out := buf.String()
	if !strings.Contains(out, `path="/tmp/a b.json"`) {
		t.Errorf("value with space not quoted: %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("missing count: %q", out)
	}
	if strings.Contains(out, "dangling") {
		t.Errorf("odd trailing key should be dropped: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" Warning ", LevelWarn, true},
		{"", LevelInfo, true},
		{"ERROR", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
