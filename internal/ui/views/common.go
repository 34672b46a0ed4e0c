package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// NoticeMsg asks the root model to show a one-line status. It is cleared
// on the next keypress.
type NoticeMsg struct {
	Text  string
	Error bool
}

func notice(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg {
		return NoticeMsg{Text: text}
	}
}

// failure reports err as an error notice
func failure(err error) tea.Cmd {
	text := syncer.Describe(err)
	return func() tea.Msg {
		return NoticeMsg{Text: text, Error: true}
	}
}

// background is the context for calls started from the UI. Every call
// is bounded by the client's own timeout.
func background() context.Context {
	return context.Background()
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return s
}

// renderConnectivity renders "● todo service: online" in the status color
func renderConnectivity(service string, status health.Status, sp spinner.Model) string {
	dot := "●"
	if status == health.StatusChecking {
		dot = sp.View()
	}
	style := lipgloss.NewStyle().Foreground(theme.StatusColor(status))
	return style.Render(dot) + " " +
		lipgloss.NewStyle().Foreground(theme.Current.Theme.Subtle).Render(service+": ") +
		style.Render(status.String())
}

// clampCursor keeps cursor inside [0, n)
func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// scrollWindow returns the [start, end) slice of n rows that keeps cursor
// visible in height rows, given the previous offset
func scrollWindow(cursor, offset, n, height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	if maxOffset := n - height; offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + height
	if end > n {
		end = n
	}
	return offset, end
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 {
		return string(r[:width])
	}
	for lipgloss.Width(string(r)) > width-1 {
		r = r[:len(r)-1]
	}
	return strings.TrimRight(string(r), " ") + "…"
}
