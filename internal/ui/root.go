package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/ui/theme"
	"github.com/dori/taskdeck/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	todosView   views.TodosView
	usersView   views.UsersView
	statsView   views.StatsView
	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model. Each view owns its own
// synchronizer; connectivity trackers are shared through the app.
func NewRootModel(application *app.App, start View, filter model.FilterMode) RootModel {
	h := help.New()
	h.ShowAll = false

	return RootModel{
		app:         application,
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: start,
		todosView:   views.NewTodosView(application.NewTaskList(), application.NewUserList()).WithFilter(filter),
		usersView:   views.NewUsersView(application.NewUserList()),
		statsView:   views.NewStatsView(application.NewStatsBoard(), application.Config.StatsInterval),
	}
}

// CurrentView returns the active view
func (m RootModel) CurrentView() View {
	return m.currentView
}

// Close stops background polling. Call it on the model returned by the
// program once it exits.
func (m RootModel) Close() {
	m.statsView.Stop()
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	m.app.Logger.Debug("init", "view", m.currentView)
	return m.initView(m.currentView)
}

func (m RootModel) initView(v View) tea.Cmd {
	switch v {
	case ViewUsers:
		return m.usersView.Init()
	case ViewStats:
		return m.statsView.Init()
	default:
		return m.todosView.Init()
	}
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewTodos:
		return m.todosView.IsInputMode()
	case ViewUsers:
		return m.usersView.IsInputMode()
	case ViewStats:
		return m.statsView.IsInputMode()
	}
	return false
}

// switchTo activates v. Polling only runs while the stats view is shown.
func (m RootModel) switchTo(v View) (RootModel, tea.Cmd) {
	if v == m.currentView {
		return m, nil
	}
	if m.currentView == ViewStats {
		m.statsView.Stop()
	}
	m.app.Logger.Debug("switch view", "from", m.currentView, "to", v)
	m.currentView = v
	return m, m.initView(v)
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (2 lines) and footer (3 lines)
		contentHeight := m.height - 5
		m.todosView = m.todosView.SetSize(m.width, contentHeight)
		m.usersView = m.usersView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := m.isInputMode()

		// Global keybindings
		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				m.statsView.Stop()
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			next := theme.Next()
			theme.SetTheme(next)
			return m, func() tea.Msg { return ThemeChangedMsg{ThemeName: next.Name} }
		}

		if !isInputMode {
			switch {
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				m.help.ShowAll = m.helpVisible
				return m, nil
			case m.helpVisible && key.Matches(msg, m.keys.Back):
				m.helpVisible = false
				return m, nil

			case key.Matches(msg, m.keys.TodosView):
				return m.switchTo(ViewTodos)
			case key.Matches(msg, m.keys.UsersView):
				return m.switchTo(ViewUsers)
			case key.Matches(msg, m.keys.StatsView):
				return m.switchTo(ViewStats)
			}
		}

		return m.updateCurrent(msg)

	case tea.MouseMsg:
		return m.updateCurrent(msg)

	case views.NoticeMsg:
		if msg.Error {
			m.errorMsg = msg.Text
			m.app.Logger.Debug("error notice", "text", msg.Text)
		} else {
			m.statusMsg = msg.Text
		}
		return m, nil

	case SwitchViewMsg:
		return m.switchTo(msg.View)

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	// Async results and ticks go to every view so that a response that
	// lands after a view switch still reaches the view that asked for it.
	return m.broadcast(msg)
}

func (m RootModel) updateCurrent(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTodos:
		var next tea.Model
		next, cmd = m.todosView.Update(msg)
		m.todosView = next.(views.TodosView)
	case ViewUsers:
		var next tea.Model
		next, cmd = m.usersView.Update(msg)
		m.usersView = next.(views.UsersView)
	case ViewStats:
		var next tea.Model
		next, cmd = m.statsView.Update(msg)
		m.statsView = next.(views.StatsView)
	}
	return m, cmd
}

func (m RootModel) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	next, cmd := m.todosView.Update(msg)
	m.todosView = next.(views.TodosView)
	cmds = append(cmds, cmd)

	next, cmd = m.usersView.Update(msg)
	m.usersView = next.(views.UsersView)
	cmds = append(cmds, cmd)

	next, cmd = m.statsView.Update(msg)
	m.statsView = next.(views.StatsView)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader(), "")

	// Reserve: 2 lines for header + 2 hint lines, and 1 for a status message
	contentHeight := m.height - 4
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewTodos:
			content = m.todosView.View()
		case ViewUsers:
			content = m.usersView.View()
		case ViewStats:
			content = m.statsView.View()
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the title, the view tabs and a dot per service
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("taskdeck")

	tabStyle := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1)
	activeTab := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Padding(0, 1)
	var tabs []string
	for i, v := range []View{ViewTodos, ViewUsers, ViewStats} {
		label := fmt.Sprintf("%d %s", i+1, v)
		if v == m.currentView {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	var dots []string
	for _, tr := range []*health.Tracker{m.app.TodoHealth, m.app.UserHealth, m.app.StatsHealth} {
		status := tr.Status()
		name := strings.TrimSuffix(tr.Service(), " service")
		dots = append(dots,
			lipgloss.NewStyle().Foreground(theme.StatusColor(status)).Render("●")+
				lipgloss.NewStyle().Foreground(t.Subtle).Render(" "+name))
	}
	right := strings.Join(dots, "  ") + tabStyle.Render("theme: "+t.Name)

	left := lipgloss.JoinHorizontal(lipgloss.Center, append([]string{title}, tabs...)...)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var statusLine string
	if m.errorMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	}

	var line1, line2 string
	general := key("1-3", "views") + sep + key("C-t", "theme") + sep + key("?", "help") + sep + key("q", "quit")

	switch {
	case m.helpVisible:
		line1 = key("?/esc", "close help")
	case m.currentView == ViewTodos && m.todosView.IsInputMode():
		line1 = key("enter", "confirm") + sep + key("esc", "cancel")
	case m.currentView == ViewUsers && m.usersView.IsInputMode():
		line1 = key("tab", "next field") + sep + key("enter", "save") + sep + key("esc", "cancel")
	case m.currentView == ViewTodos:
		line1 = key("a", "add") + sep +
			key("enter", "edit") + sep +
			key("tab", "done") + sep +
			key("u", "assign") + sep +
			key("d", "del") + sep +
			key("f", "filter: "+m.todosView.Filter().String()) + sep +
			key("r", "refresh")
		line2 = general
	case m.currentView == ViewUsers:
		line1 = key("a", "add user") + sep +
			key("d", "delete") + sep +
			key("j/k", "navigate") + sep +
			key("r", "retry")
		line2 = general
	case m.currentView == ViewStats:
		polling := "paused"
		if m.statsView.Polling() {
			polling = "live"
		}
		line1 = key("r", "refresh now") + sep + styles.HelpDesc.Render("auto-refresh "+polling)
		line2 = general
	}

	var lines []string
	if statusLine != "" {
		lines = append(lines, statusLine)
	}
	if line1 != "" {
		lines = append(lines, line1)
	}
	if line2 != "" {
		lines = append(lines, line2)
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("taskdeck help"))
	b.WriteString("\n")

	section := func(name string, rows [][]string) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, kv := range rows {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}

	section("Navigation", [][]string{
		{"↑/k ↓/j", "Move up/down"},
		{"g / G", "Go to top/bottom"},
	})
	section("Tasks", [][]string{
		{"a", "Add task (@user due:friday)"},
		{"enter / e", "Edit task text"},
		{"tab / space", "Toggle done"},
		{"u", "Assign to a user"},
		{"d", "Delete task"},
		{"f", "Cycle filter (all, completed, processing)"},
		{"r", "Reload from the todo service"},
	})
	section("Users", [][]string{
		{"a", "Add user"},
		{"d", "Delete user"},
		{"r", "Re-check the user service"},
	})
	section("Stats", [][]string{
		{"r", "Refresh now"},
	})
	section("System", [][]string{
		{"1 / 2 / 3", "Todos, users, stats"},
		{"ctrl+t", "Cycle theme"},
		{"q / ctrl+c", "Quit"},
	})

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))

	return b.String()
}
