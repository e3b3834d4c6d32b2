package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/WillyV3/planner/internal/task"
)

// palette holds the colors for one theme.
type palette struct {
	Title     lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Selected  lipgloss.Color
	Done      lipgloss.Color
	Danger    lipgloss.Color
	ActiveTab lipgloss.Color
	Tab       lipgloss.Color
	Border    lipgloss.Color
}

var (
	lightPalette = palette{
		Title:     lipgloss.Color("#374151"),
		Text:      lipgloss.Color("#1f2937"),
		Muted:     lipgloss.Color("#6b7280"),
		Selected:  lipgloss.Color("#7c3aed"),
		Done:      lipgloss.Color("#9ca3af"),
		Danger:    lipgloss.Color("#dc2626"),
		ActiveTab: lipgloss.Color("#16a34a"),
		Tab:       lipgloss.Color("#000000"),
		Border:    lipgloss.Color("#a855f7"),
	}
	darkPalette = palette{
		Title:     lipgloss.Color("#3b82f6"),
		Text:      lipgloss.Color("#d4d4d4"),
		Muted:     lipgloss.Color("#999999"),
		Selected:  lipgloss.Color("#4ec9b0"),
		Done:      lipgloss.Color("#666666"),
		Danger:    lipgloss.Color("#f44336"),
		ActiveTab: lipgloss.Color("#16a34a"),
		Tab:       lipgloss.Color("#3b82f6"),
		Border:    lipgloss.Color("#a855f7"),
	}
)

func paletteFor(t task.Theme) palette {
	if t == task.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

func errorStyle(p palette) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Danger).Bold(true)
}

// styles are rebuilt from the palette on every render so a theme toggle
// applies immediately.
type styles struct {
	title     lipgloss.Style
	subtitle  lipgloss.Style
	text      lipgloss.Style
	selected  lipgloss.Style
	done      lipgloss.Style
	muted     lipgloss.Style
	overdue   lipgloss.Style
	status    lipgloss.Style
	errorText lipgloss.Style
	activeTab lipgloss.Style
	tab       lipgloss.Style
	frame     lipgloss.Style
}

func newStyles(p palette, width int) styles {
	inner := max(width-6, 20)
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Title).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border).
			Width(inner).
			Align(lipgloss.Center),
		subtitle: lipgloss.NewStyle().
			Foreground(p.Muted).
			Width(inner).
			Align(lipgloss.Center),
		text:     lipgloss.NewStyle().Foreground(p.Text),
		selected: lipgloss.NewStyle().Foreground(p.Selected).Bold(true),
		done: lipgloss.NewStyle().
			Foreground(p.Done).
			Strikethrough(true),
		muted:     lipgloss.NewStyle().Foreground(p.Muted),
		overdue:   lipgloss.NewStyle().Foreground(p.Danger),
		status:    lipgloss.NewStyle().Foreground(p.Selected).Italic(true),
		errorText: errorStyle(p),
		activeTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(p.ActiveTab).
			Padding(0, 1),
		tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(p.Tab).
			Padding(0, 1),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),
	}
}
