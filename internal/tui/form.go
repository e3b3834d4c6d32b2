package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WillyV3/planner/internal/task"
)

const (
	inputDescription = iota
	inputSchedule
)

// formModel is the add/edit form. editingID is empty when creating.
type formModel struct {
	focusIndex int
	inputs     []textinput.Model
	editingID  string
	err        string
	palette    palette
}

func newTaskForm(draft task.Draft, editingID string, p palette) formModel {
	m := formModel{
		inputs:    make([]textinput.Model, 2),
		editingID: editingID,
		palette:   p,
	}
	focused := lipgloss.NewStyle().Foreground(p.Selected)

	t := textinput.New()
	t.Cursor.Style = focused
	t.Placeholder = "Enter task..."
	t.CharLimit = 200
	t.Focus()
	t.PromptStyle = focused
	t.TextStyle = focused
	t.SetValue(draft.Description)
	m.inputs[inputDescription] = t

	t = textinput.New()
	t.Cursor.Style = focused
	t.Placeholder = "YYYY-MM-DDTHH:mm"
	t.CharLimit = len(task.ScheduleLayout)
	t.SetValue(draft.ScheduledAt)
	m.inputs[inputSchedule] = t

	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) editing() bool {
	return m.editingID != ""
}

// draft returns the current input values.
func (m formModel) draft() task.Draft {
	return task.Draft{
		Description: m.inputs[inputDescription].Value(),
		ScheduledAt: m.inputs[inputSchedule].Value(),
	}
}

// submitReady reports whether enter should submit rather than advance focus.
func (m formModel) submitReady() bool {
	return m.focusIndex >= inputSchedule
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "shift+tab", "up", "down", "enter":
			s := msg.String()

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			return m, m.refocus()
		}
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *formModel) refocus() tea.Cmd {
	focused := lipgloss.NewStyle().Foreground(m.palette.Selected)
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focused
			m.inputs[i].TextStyle = focused
			continue
		}
		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = lipgloss.NewStyle()
		m.inputs[i].TextStyle = lipgloss.NewStyle()
	}
	return tea.Batch(cmds...)
}

func (m *formModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	// Any typing clears a stale validation message.
	if _, ok := msg.(tea.KeyMsg); ok {
		m.err = ""
	}
	return tea.Batch(cmds...)
}

func (m formModel) View() string {
	var b strings.Builder

	focusedStyle := lipgloss.NewStyle().Foreground(m.palette.Selected)
	blurredStyle := lipgloss.NewStyle().Foreground(m.palette.Muted)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.palette.Title).
		MarginBottom(1)

	if m.editing() {
		b.WriteString(titleStyle.Render("Edit Task"))
	} else {
		b.WriteString(titleStyle.Render("New Task"))
	}
	b.WriteString("\n\n")

	labels := []string{
		"Task:",
		"Date & time (YYYY-MM-DDTHH:mm):",
	}
	for i := range m.inputs {
		label := labels[i]
		if i == m.focusIndex {
			label = focusedStyle.Render(label)
		} else {
			label = blurredStyle.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n\n")
	}

	caption := "[ Add Task ]"
	if m.editing() {
		caption = "[ Update Task ]"
	}
	if m.focusIndex == len(m.inputs) {
		b.WriteString(focusedStyle.Render(caption))
	} else {
		b.WriteString(blurredStyle.Render(caption))
	}
	b.WriteString("  ")
	b.WriteString(blurredStyle.Render("[ Cancel (Esc) ]"))
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle(m.palette).Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(blurredStyle.Render("Tab: next field • Enter: save • Esc: cancel"))

	return b.String()
}
