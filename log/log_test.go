package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_Module(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, slog.LevelDebug)
	l.Module("vm").Info("frame enter", "depth", 1)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "vm" {
		t.Fatalf("module = %v, want %q", entry["module"], "vm")
	}
	if entry["depth"] != float64(1) {
		t.Fatalf("depth = %v, want 1", entry["depth"])
	}
}

func TestLogger_ModuleChain(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, slog.LevelDebug).Module("state").With("slot", "0x01")
	l.Info("fetched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "state" || entry["slot"] != "0x01" {
		t.Fatalf("entry = %v, want module=state slot=0x01", entry)
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level  slog.Level
		logFn  func(l *Logger)
		expect bool
	}{
		{slog.LevelInfo, func(l *Logger) { l.Debug("nope") }, false},
		{slog.LevelInfo, func(l *Logger) { l.Info("yes") }, true},
		{slog.LevelWarn, func(l *Logger) { l.Info("nope") }, false},
		{slog.LevelWarn, func(l *Logger) { l.Error("yes") }, true},
		{slog.LevelDebug, func(l *Logger) { l.Debug("yes") }, true},
	}
	for i, tt := range tests {
		var buf bytes.Buffer
		tt.logFn(NewJSON(&buf, tt.level))
		if got := buf.Len() > 0; got != tt.expect {
			t.Fatalf("case %d: output = %v, want %v", i, got, tt.expect)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{" Warning ", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel(loud) should fail")
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf, slog.LevelInfo).Info("halted", "pc", 5)
	if !strings.Contains(buf.String(), "pc=5") {
		t.Fatalf("text output %q missing pc=5", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(slog.LevelError) {
		t.Fatal("discard logger should not be enabled")
	}
	l.Error("dropped")
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(NewJSON(&buf, slog.LevelDebug))
	Warn("pkg level")
	if !strings.Contains(buf.String(), "pkg level") {
		t.Fatalf("default logger output = %q", buf.String())
	}
	SetDefault(nil)
	if Default() == nil {
		t.Fatal("SetDefault(nil) cleared the default logger")
	}
}
