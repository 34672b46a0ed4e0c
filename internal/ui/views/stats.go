package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/poll"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// StatsView is the statistics dashboard. It polls while active.
type StatsView struct {
	board     *syncer.StatsBoard
	refresher *poll.Refresher

	width  int
	height int

	lastRefresh time.Time
	lastErr     error

	spinner spinner.Model
}

// NewStatsView creates a dashboard that refreshes every interval while
// it is active
func NewStatsView(board *syncer.StatsBoard, interval time.Duration) StatsView {
	return StatsView{
		board:     board,
		refresher: poll.New(interval, board.Load),
		spinner:   newSpinner(),
	}
}

type statsRefreshedMsg struct {
	result poll.Result
	from   <-chan poll.Result
}

type statsManualMsg struct {
	err error
}

// Init starts polling. The first fetch happens immediately.
func (v StatsView) Init() tea.Cmd {
	v.refresher.Start(context.Background())
	return tea.Batch(waitForRefresh(v.refresher.Updates()), v.spinner.Tick)
}

// Stop ends polling without blocking. A fetch already in flight still
// records connectivity but is not shown. It is safe to call on an
// inactive view.
func (v StatsView) Stop() {
	v.refresher.Stop()
}

// Polling reports whether the refresher is running
func (v StatsView) Polling() bool {
	return v.refresher.Running()
}

// waitForRefresh blocks on ch and reports the next result. A closed
// channel means polling stopped, and the wait ends without a message.
func waitForRefresh(ch <-chan poll.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return statsRefreshedMsg{result: res, from: ch}
	}
}

func (v StatsView) refreshNow() tea.Cmd {
	board := v.board
	return func() tea.Msg {
		return statsManualMsg{err: board.Load(background())}
	}
}

// IsInputMode is always false; the dashboard has no inputs
func (v StatsView) IsInputMode() bool {
	return false
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case statsRefreshedMsg:
		v.lastRefresh = msg.result.At
		v.lastErr = msg.result.Err
		// a result from a stopped run must not start a second waiter
		current := v.refresher.Updates()
		if !v.refresher.Running() || msg.from != current {
			return v, nil
		}
		return v, waitForRefresh(current)

	case statsManualMsg:
		v.lastErr = msg.err
		if msg.err != nil {
			return v, failure(msg.err)
		}
		v.lastRefresh = time.Now()
		return v, notice("Statistics refreshed")

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.refreshNow()
		}
	}

	return v, nil
}

// View renders the stats view
func (v StatsView) View() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	var sections []string

	status := v.board.Health().Status()
	left := styles.PanelTitle.Render("Statistics")
	right := renderConnectivity(v.board.Health().Service(), status, v.spinner)
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	sections = append(sections, left+strings.Repeat(" ", gap)+right)
	sections = append(sections, "")

	snap, ok := v.board.Snapshot()
	if !ok {
		emptyStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Padding(1, 0)
		if status == health.StatusOffline {
			sections = append(sections, emptyStyle.Render("Statistics are unavailable. Press 'r' to retry."))
		} else {
			sections = append(sections, emptyStyle.Render("Loading statistics... "+v.spinner.View()))
		}
		return strings.Join(sections, "\n")
	}

	// Summary cards (side by side)
	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)

	valueStyle := theme.Current.Styles.Title
	labelStyle := theme.Current.Styles.Label

	card := func(value, label string) string {
		return cardStyle.Render(valueStyle.Render(value) + "\n" + labelStyle.Render(label))
	}

	usersValue := fmt.Sprintf("%d", snap.TotalUsers)
	if snap.UsersMissing() {
		usersValue = "?"
	}

	cardRow := lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprintf("%d", snap.TotalTodos), "Total tasks"),
		card(fmt.Sprintf("%d", snap.CompletedTodos), "Completed"),
		card(fmt.Sprintf("%d", snap.PendingTodos), "Pending"),
		card(usersValue, "Users"),
	)
	sections = append(sections, cardRow)
	sections = append(sections, "")

	sections = append(sections, v.renderCompletion(snap.CompletionRate))
	sections = append(sections, "")

	// Dependency state as reported by the stats service
	dep := v.board.UsersDependency()
	depLine := renderConnectivity("user service (via stats)", dep, v.spinner)
	sections = append(sections, depLine)
	if dep == health.StatusOffline {
		sections = append(sections, styles.Warning.Render(
			"The stats service could not reach the user service; the user count is unavailable."))
	}
	sections = append(sections, "")

	// Refresh info
	info := fmt.Sprintf("auto-refresh every %s", v.refresher.Interval())
	if !v.lastRefresh.IsZero() {
		info = fmt.Sprintf("updated %s • %s", v.lastRefresh.Format("15:04:05"), info)
	}
	if v.lastErr != nil && status == health.StatusOffline {
		info = fmt.Sprintf("showing last known values • %s", syncer.Describe(v.lastErr))
	}
	sections = append(sections, lipgloss.NewStyle().Foreground(t.Subtle).Render(info))

	return strings.Join(sections, "\n")
}

// renderCompletion renders the completion rate bar
func (v StatsView) renderCompletion(rate float64) string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	barMaxWidth := 40
	if v.width > 0 && v.width-20 < barMaxWidth {
		barMaxWidth = max(10, v.width-20)
	}

	filled := completionWidth(rate, barMaxWidth)
	bar := lipgloss.NewStyle().Foreground(t.ProgressFill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.ProgressTrack).Render(strings.Repeat("░", barMaxWidth-filled))

	return headerStyle.Render("Completion rate") + "\n" +
		bar + " " + lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%.2f%%", rate))
}

// completionWidth scales a 0-100 rate to width cells
func completionWidth(rate float64, width int) int {
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	filled := int(rate / 100 * float64(width))
	if filled == 0 && rate > 0 {
		filled = 1
	}
	return filled
}
