package transfer

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/WillyV3/planner/internal/task"
)

var sample = []task.Task{
	{ID: "a1", Description: "Buy milk", ScheduledAt: "2026-01-01T10:00"},
	{ID: "b2", Description: "Walk dog", ScheduledAt: "2026-01-01T18:30", Completed: true},
}

func TestExportImport(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, sample, format); err != nil {
				t.Fatalf("Export: %v", err)
			}
			if !strings.Contains(buf.String(), "Buy milk") {
				t.Fatalf("export output missing description:\n%s", buf.String())
			}

			got, err := Import(&buf, format)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if !reflect.DeepEqual(got, sample) {
				t.Fatalf("Import = %+v, want %+v", got, sample)
			}
		})
	}
}

func TestExportFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sample, FormatYAML); err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, want := range []string{"tasks:", "task: Buy milk", "dateTime:", "completed: true"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("yaml output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestImportLegacyJSON(t *testing.T) {
	in := strings.NewReader(`[{"task":"Old","dateTime":"2025-05-05T05:05"}]`)
	got, err := Import(in, FormatJSON)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(got) != 1 || got[0].Description != "Old" || got[0].Completed {
		t.Fatalf("Import = %+v", got)
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatJSON, `[{"task":1}]`},
		{FormatYAML, "tasks: [:"},
		{FormatTOML, "tasks = ["},
	}
	for _, tt := range tests {
		if _, err := Import(strings.NewReader(tt.data), tt.format); err == nil {
			t.Errorf("Import(%s, %q) expected error", tt.format, tt.data)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON,
		".YML": FormatYAML,
		"yaml": FormatYAML,
		"toml": FormatTOML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected error for csv")
	}
	if got, err := FormatForPath("/tmp/tasks.toml"); err != nil || got != FormatTOML {
		t.Errorf("FormatForPath = %q, %v", got, err)
	}
}
