// Package tui is the Bubble Tea front end for the task store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/WillyV3/planner/internal/task"
)

type viewMode int

const (
	listView viewMode = iota
	formView
	searchView
)

const (
	statusDuration = 3 * time.Second
	headerLines    = 8
	footerLines    = 4
)

type tickMsg time.Time

// Model renders the store's derived view and turns keys into store calls.
// Tasks are always addressed by id, never by row.
type Model struct {
	store    *task.Store
	logger   *log.Logger
	mode     viewMode
	cursor   int
	width    int
	height   int
	progress progress.Model
	help     help.Model
	search   textinput.Model
	form     formModel

	statusMsg    string
	statusErr    bool
	statusExpire time.Time
	now          func() time.Time
}

// NewModel builds the TUI on top of an opened store.
func NewModel(store *task.Store, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	search := textinput.New()
	search.Placeholder = "Search task..."
	search.Prompt = "/ "
	search.CharLimit = 100
	search.SetValue(store.Preferences().Search)

	return Model{
		store:    store,
		logger:   logger,
		mode:     listView,
		progress: prog,
		help:     help.New(),
		search:   search,
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-20, 10)
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case formView:
			return m.updateForm(msg)
		case searchView:
			return m.updateSearch(msg)
		default:
			return m.updateList(msg)
		}
	}

	// Non-key messages (cursor blink) still reach the active input.
	switch m.mode {
	case formView:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case searchView:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	// Every change is already flushed; retry only if the last write failed.
	if m.store.LastSaveErr() != nil {
		if err := m.store.Flush(); err != nil {
			m.logger.Error("final flush failed", "err", err)
		}
	}
	return m, tea.Quit
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.store.View())-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Toggle):
		if id, ok := m.selectedID(); ok {
			t, err := m.store.Toggle(id)
			if err != nil {
				m.setError(err.Error())
				break
			}
			if t.Completed {
				m.setStatus("Task completed")
			} else {
				m.setStatus("Task reopened")
			}
			m.reportSaveErr()
		}

	case key.Matches(msg, keys.Delete):
		if id, ok := m.selectedID(); ok {
			if err := m.store.Remove(id); err != nil {
				m.setError(err.Error())
				break
			}
			m.setStatus("Task deleted")
			m.reportSaveErr()
		}

	case key.Matches(msg, keys.Add):
		return m.openForm("")

	case key.Matches(msg, keys.Edit):
		if id, ok := m.selectedID(); ok {
			return m.openForm(id)
		}

	case key.Matches(msg, keys.Search):
		m.mode = searchView
		return m, m.search.Focus()

	case key.Matches(msg, keys.Filter):
		m.store.SetFilter(m.store.Preferences().Filter.Next())
	case key.Matches(msg, keys.All):
		m.store.SetFilter(task.FilterAll)
	case key.Matches(msg, keys.Completed):
		m.store.SetFilter(task.FilterCompleted)
	case key.Matches(msg, keys.Pending):
		m.store.SetFilter(task.FilterPending)

	case key.Matches(msg, keys.Theme):
		theme := m.store.ToggleTheme()
		m.setStatus(fmt.Sprintf("%s mode", titleCase(string(theme))))
		m.reportSaveErr()

	case key.Matches(msg, keys.Refresh):
		if err := m.store.Reload(context.Background()); err != nil {
			m.setError("Reload failed: " + err.Error())
			break
		}
		m.setStatus("Tasks reloaded")
	}

	m.clampCursor()
	return m, nil
}

// openForm starts the add form, or an edit session when id is set.
func (m Model) openForm(id string) (tea.Model, tea.Cmd) {
	draft := m.store.Draft()
	if id != "" {
		d, err := m.store.BeginEdit(id)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		draft = d
	}
	m.form = newTaskForm(draft, id, paletteFor(m.store.Preferences().Theme))
	m.mode = formView
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.store.CancelEdit()
		m.store.SetDraft(task.Draft{})
		m.mode = listView
		return m, nil
	case "enter":
		if m.form.submitReady() {
			return m.submitForm()
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	m.store.SetDraft(m.form.draft())
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	d := m.form.draft()

	var (
		saved task.Task
		err   error
	)
	if m.form.editing() {
		saved, err = m.store.CommitEdit(d.Description, d.ScheduledAt)
	} else {
		saved, err = m.store.Create(d.Description, d.ScheduledAt)
	}

	var ve *task.ValidationError
	switch {
	case errors.As(err, &ve):
		m.form.err = formErrorText(ve)
		return m, nil
	case err != nil:
		// The edited task vanished (e.g. removed by a reload).
		m.mode = listView
		m.setError(err.Error())
		return m, nil
	}

	if m.form.editing() {
		m.setStatus("Task updated")
	} else {
		m.setStatus("Task added")
	}
	m.reportSaveErr()
	m.mode = listView
	m.selectID(saved.ID)
	return m, nil
}

func formErrorText(ve *task.ValidationError) string {
	switch {
	case errors.Is(ve, task.ErrEmptyDescription), errors.Is(ve, task.ErrEmptySchedule):
		return "Enter both fields"
	default:
		return titleCase(ve.Err.Error())
	}
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.store.SetSearch("")
		m.search.Blur()
		m.mode = listView
		m.clampCursor()
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = listView
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.store.SetSearch(m.search.Value())
	m.cursor = 0
	return m, cmd
}

func (m Model) selectedID() (string, bool) {
	view := m.store.View()
	if m.cursor < 0 || m.cursor >= len(view) {
		return "", false
	}
	return view[m.cursor].ID, true
}

func (m *Model) selectID(id string) {
	for i, t := range m.store.View() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.store.View())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusErr = false
	m.statusExpire = m.now().Add(statusDuration)
}

func (m *Model) setError(msg string) {
	m.setStatus(msg)
	m.statusErr = true
}

func (m *Model) reportSaveErr() {
	if err := m.store.LastSaveErr(); err != nil {
		m.setError("Not saved: " + err.Error())
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	prefs := m.store.Preferences()
	st := newStyles(paletteFor(prefs.Theme), m.width)

	var b strings.Builder
	b.WriteString(st.title.Render("Smart Task Planner"))
	b.WriteString("\n")

	stats := m.store.Stats()
	b.WriteString(st.subtitle.Render(fmt.Sprintf("%d/%d complete (%d%%) • %s mode",
		stats.Completed, stats.Total, stats.Percent(), prefs.Theme)))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(stats.Ratio()))
	b.WriteString("\n\n")

	if m.mode == formView {
		b.WriteString(m.form.View())
		return st.frame.Render(b.String())
	}

	b.WriteString(m.renderFilters(st, prefs.Filter))
	b.WriteString("\n")
	if m.mode == searchView || prefs.Search != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderTasks(st))

	if m.now().Before(m.statusExpire) {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(st.errorText.Render(m.statusMsg))
		} else {
			b.WriteString(st.status.Render(m.statusMsg))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))

	return st.frame.Render(b.String())
}

func (m Model) renderFilters(st styles, active task.FilterMode) string {
	tabs := make([]string, 0, len(task.FilterModes))
	for _, mode := range task.FilterModes {
		label := strings.ToUpper(string(mode))
		if mode == active {
			tabs = append(tabs, st.activeTab.Render(label))
		} else {
			tabs = append(tabs, st.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(tabs, " "))
}

func (m Model) renderTasks(st styles) string {
	view := m.store.View()
	if len(view) == 0 {
		msg := "No tasks yet. Press a to add one."
		if m.store.Stats().Total > 0 {
			msg = "No tasks match."
		}
		return st.muted.Italic(true).Render(msg) + "\n"
	}

	available := max(m.height-headerLines-footerLines, 3)
	start := 0
	if m.cursor >= available {
		start = m.cursor - available + 1
	}

	now := m.now()
	var b strings.Builder
	for i := start; i < len(view) && i < start+available; i++ {
		b.WriteString(m.renderTask(st, view[i], i == m.cursor, now))
		b.WriteString("\n")
	}
	if remaining := len(view) - (start + available); remaining > 0 {
		b.WriteString(st.muted.Italic(true).Render(fmt.Sprintf("... %d more tasks", remaining)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTask(st styles, t task.Task, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = "→ "
	}
	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}

	descStyle := st.text
	switch {
	case t.Completed:
		descStyle = st.done
	case selected:
		descStyle = st.selected
	}

	maxDesc := max(m.width-len(task.ScheduleLayout)-16, 10)
	desc := t.Description
	if len([]rune(desc)) > maxDesc {
		desc = string([]rune(desc)[:maxDesc-3]) + "..."
	}

	when := st.muted.Render(t.ScheduledAt)
	if t.Overdue(now) {
		when = st.overdue.Render(t.ScheduledAt + " !")
	}

	return fmt.Sprintf("%s%s %s  %s", cursor, checkbox, descStyle.Render(desc), when)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
