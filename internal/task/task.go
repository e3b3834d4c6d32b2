// Package task holds the planner's task list, the edit session and view
// preferences, and mirrors the list to a kv.Store after every change.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleLayout is the local, minute-precision form schedules are kept in.
const ScheduleLayout = "2006-01-02T15:04"

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrEmptySchedule    = errors.New("schedule is required")
	ErrInvalidSchedule  = errors.New("schedule must look like YYYY-MM-DDTHH:mm")
	ErrTaskNotFound     = errors.New("task not found")
	ErrNotEditing       = errors.New("no task is being edited")
)

// Task is a single planner entry.
type Task struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Description string `json:"task" yaml:"task" toml:"task"`
	ScheduledAt string `json:"dateTime" yaml:"dateTime" toml:"dateTime"`
	Completed   bool   `json:"completed" yaml:"completed" toml:"completed"`
}

// When parses ScheduledAt in the local time zone.
func (t Task) When() (time.Time, error) {
	return time.ParseInLocation(ScheduleLayout, t.ScheduledAt, time.Local)
}

// Overdue reports whether a pending task's schedule lies before now.
func (t Task) Overdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	when, err := t.When()
	if err != nil {
		return false
	}
	return when.Before(now)
}

// NewID returns a short random task identifier.
func NewID() string {
	return uuid.New().String()[:8]
}

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateInput checks description and scheduledAt. Both create and commit go
// through it. A blank description is rejected but a valid one is returned as
// typed; the schedule is returned trimmed so it always parses.
func ValidateInput(description, scheduledAt string) (string, string, error) {
	scheduledAt = strings.TrimSpace(scheduledAt)

	if strings.TrimSpace(description) == "" {
		return "", "", &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if scheduledAt == "" {
		return "", "", &ValidationError{Field: "schedule", Err: ErrEmptySchedule}
	}
	if _, err := time.ParseInLocation(ScheduleLayout, scheduledAt, time.Local); err != nil {
		return "", "", &ValidationError{Field: "schedule", Err: ErrInvalidSchedule}
	}
	return description, scheduledAt, nil
}

// FilterMode restricts the derived view by completion state.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterCompleted FilterMode = "completed"
	FilterPending   FilterMode = "pending"
)

// FilterModes lists the modes in display order.
var FilterModes = []FilterMode{FilterAll, FilterCompleted, FilterPending}

// ParseFilterMode accepts "all", "completed" or "pending" in any case.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case FilterAll:
		return FilterAll, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterPending:
		return FilterPending, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q", s)
	}
}

// Next cycles all -> completed -> pending -> all.
func (f FilterMode) Next() FilterMode {
	for i, m := range FilterModes {
		if m == f {
			return FilterModes[(i+1)%len(FilterModes)]
		}
	}
	return FilterAll
}

func (f FilterMode) matches(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}

// Theme is the presentation flag persisted next to the task list.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return ThemeLight, fmt.Errorf("unknown theme %q", s)
	}
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences are the view settings. Only Theme is persisted.
type Preferences struct {
	Theme  Theme
	Filter FilterMode
	Search string
}

// Draft mirrors the task form's two inputs.
type Draft struct {
	Description string
	ScheduledAt string
}

// EditSession names the task currently being edited.
type EditSession struct {
	TaskID string
}
