package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/health"
)

// Theme defines the color scheme and styles for the UI
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	Subtle        lipgloss.Color
	Highlight     lipgloss.Color
	Border        lipgloss.Color

	// Semantic colors
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Info          lipgloss.Color

	// Connectivity colors
	Online   lipgloss.Color
	Offline  lipgloss.Color
	Checking lipgloss.Color

	// Task colors
	TaskPending lipgloss.Color
	TaskDone    lipgloss.Color
	Assignee    lipgloss.Color
	Overdue     lipgloss.Color

	// Completion bar
	ProgressFill  lipgloss.Color
	ProgressTrack lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style

	// Task styles
	TaskNormal  lipgloss.Style
	TaskDone    lipgloss.Style
	TaskOverdue lipgloss.Style

	// Component styles
	Title    lipgloss.Style
	Label    lipgloss.Style
	Assignee lipgloss.Style
	DueDate  lipgloss.Style
	Warning  lipgloss.Style

	InputFocused lipgloss.Style
	PanelTitle   lipgloss.Style

	// Help styles
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		// Task styles
		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.TaskDone).
			Strikethrough(true),

		TaskOverdue: lipgloss.NewStyle().
			Foreground(t.Overdue),

		// Component styles
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Assignee: lipgloss.NewStyle().
			Foreground(t.Assignee),

		DueDate: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Warning: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		PanelTitle: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		// Help styles
		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Dracula,
		Gruvbox,
		Catppuccin,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the current one, wrapping around
func Next() Theme {
	themes := Available()
	for i, t := range themes {
		if t.Name == Current.Theme.Name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// StatusColor maps a connectivity status to its color
func StatusColor(s health.Status) lipgloss.Color {
	switch s {
	case health.StatusOnline:
		return Current.Theme.Online
	case health.StatusOffline:
		return Current.Theme.Offline
	default:
		return Current.Theme.Checking
	}
}
