package task

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Keys under which the store persists its state.
const (
	TasksKey = "taskList"
	ThemeKey = "isDark"
)

//go:embed tasklist.schema.json
var taskListSchemaJSON string

var taskListSchema = jsonschema.MustCompileString("tasklist.schema.json", taskListSchemaJSON)

// EncodeTasks serializes the list as a JSON array of records.
func EncodeTasks(tasks []Task) (string, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(data), nil
}

// DecodeTasks parses a stored task list. Records without an id (or with an id
// already used earlier in the list) get one from newID, and migrated reports
// that this happened so the caller can persist the result. A missing or null
// "completed" reads as false.
func DecodeTasks(data string, newID func() string) (tasks []Task, migrated bool, err error) {
	if newID == nil {
		newID = NewID
	}

	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, false, fmt.Errorf("parse tasks: %w", err)
	}
	if err := taskListSchema.Validate(doc); err != nil {
		return nil, false, fmt.Errorf("validate tasks: %s", schemaErrorSummary(err))
	}

	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		return nil, false, fmt.Errorf("decode tasks: %w", err)
	}

	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		id := tasks[i].ID
		if id == "" || seen[id] {
			id = newID()
			for seen[id] {
				id = newID()
			}
			tasks[i].ID = id
			migrated = true
		}
		seen[id] = true
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, migrated, nil
}

// schemaErrorSummary flattens a jsonschema error tree into one line.
func schemaErrorSummary(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var parts []string
	collectSchemaErrors(ve, &parts)
	if len(parts) == 0 {
		return ve.Message
	}
	return strings.Join(parts, "; ")
}

func collectSchemaErrors(ve *jsonschema.ValidationError, parts *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*parts = append(*parts, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, parts)
	}
}

// EncodeTheme stores dark as "true" and light as "false".
func EncodeTheme(t Theme) string {
	return strconv.FormatBool(t == ThemeDark)
}

// DecodeTheme is the inverse of EncodeTheme.
func DecodeTheme(s string) (Theme, error) {
	dark, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return ThemeLight, fmt.Errorf("parse theme flag %q: %w", s, err)
	}
	if dark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}
