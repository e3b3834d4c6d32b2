// Package transfer reads and writes task lists as JSON, YAML or TOML files.
//
// JSON uses the same array layout the store persists, so a raw storage value
// can be imported directly. YAML and TOML wrap the records in a "tasks" list.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/WillyV3/planner/internal/task"
)

// Format names a file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type document struct {
	Tasks []task.Task `yaml:"tasks" toml:"tasks"`
}

// ParseFormat accepts json, yaml/yml or toml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json, yaml or toml)", s)
	}
}

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Export writes tasks to w.
func Export(w io.Writer, tasks []task.Task, format Format) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Tasks: tasks}); err != nil {
			return fmt.Errorf("export yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(document{Tasks: tasks}); err != nil {
			return fmt.Errorf("export toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Import reads tasks from r. Records are not validated here; callers feed
// them through task.Store.Create, which assigns fresh ids.
func Import(r io.Reader, format Format) ([]task.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	switch format {
	case FormatJSON:
		tasks, _, err := task.DecodeTasks(string(data), nil)
		if err != nil {
			return nil, fmt.Errorf("import json: %w", err)
		}
		return tasks, nil
	case FormatYAML:
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("import yaml: %w", err)
		}
		return doc.Tasks, nil
	case FormatTOML:
		var doc document
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("import toml: %w", err)
		}
		return doc.Tasks, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
