package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "planner.log")

	for i := 0; i < 2; i++ {
		logger, closer, err := New(Options{Path: path, Level: "info", Format: "logfmt"})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		logger.Info("flushed", "tasks", i)
		logger.Debug("hidden")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Count(out, "msg=flushed") != 2 {
		t.Errorf("expected two appended records, got:\n%s", out)
	}
	if !strings.Contains(out, "tasks=1") {
		t.Errorf("missing structured field:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level:\n%s", out)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, _, err := New(Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, Options{Level: "debug", Format: "json", Prefix: "planner"})
	logger.Debug("task created", "id", "a1")

	out := buf.String()
	for _, want := range []string{`"msg":"task created"`, `"id":"a1"`, `"prefix":"planner"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
