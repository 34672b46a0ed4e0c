package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// UsersMode represents the current interaction mode
type UsersMode int

const (
	UsersModeNormal UsersMode = iota
	UsersModeForm
	UsersModeConfirmDelete
)

// Form fields, in tab order
const (
	fieldUsername = iota
	fieldEmail
	fieldFullName
	fieldRole
	fieldDepartment
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Username *",
	"Email *",
	"Full name",
	"Role",
	"Department",
}

// UsersView is the user directory
type UsersView struct {
	users *syncer.UserList

	width  int
	height int
	cursor int

	mode     UsersMode
	fields   [fieldCount]textinput.Model
	focus    int
	pending  bool
	deleteID int64

	spinner spinner.Model
}

// NewUsersView creates a user directory view
func NewUsersView(users *syncer.UserList) UsersView {
	v := UsersView{
		users:   users,
		spinner: newSpinner(),
	}
	placeholders := [fieldCount]string{"alice", "alice@example.com", "defaults to username", "Member", "General"}
	for i := range v.fields {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Placeholder = placeholders[i]
		v.fields[i] = ti
	}
	return v
}

type usersPingedMsg struct {
	err error
}

type usersLoadedMsg struct {
	err error
}

type userCreatedMsg struct {
	user model.User
	err  error
}

type userDeletedMsg struct {
	err error
}

// Init probes the service and loads the directory
func (v UsersView) Init() tea.Cmd {
	return tea.Batch(v.ping(), v.loadUsers(), v.spinner.Tick)
}

// IsInputMode returns true when keys belong to the form or a prompt
func (v UsersView) IsInputMode() bool {
	return v.mode != UsersModeNormal
}

// SetSize updates the view dimensions
func (v UsersView) SetSize(width, height int) UsersView {
	v.width = width
	v.height = height
	for i := range v.fields {
		v.fields[i].Width = min(40, width-20)
	}
	return v
}

func (v UsersView) ping() tea.Cmd {
	users := v.users
	return func() tea.Msg {
		return usersPingedMsg{err: users.Ping(background())}
	}
}

func (v UsersView) loadUsers() tea.Cmd {
	users := v.users
	return func() tea.Msg {
		return usersLoadedMsg{err: users.Load(background())}
	}
}

func (v UsersView) createUser(d model.UserDraft) tea.Cmd {
	users := v.users
	return func() tea.Msg {
		u, err := users.Create(background(), d)
		return userCreatedMsg{user: u, err: err}
	}
}

func (v UsersView) deleteUser(id int64) tea.Cmd {
	users := v.users
	return func() tea.Msg {
		return userDeletedMsg{err: users.Delete(background(), id)}
	}
}

func (v UsersView) draft() model.UserDraft {
	return model.UserDraft{
		Username:   v.fields[fieldUsername].Value(),
		Email:      v.fields[fieldEmail].Value(),
		FullName:   v.fields[fieldFullName].Value(),
		Role:       v.fields[fieldRole].Value(),
		Department: v.fields[fieldDepartment].Value(),
	}
}

func (v *UsersView) focusField(i int) tea.Cmd {
	v.fields[v.focus].Blur()
	v.focus = (i + fieldCount) % fieldCount
	v.fields[v.focus].Focus()
	return textinput.Blink
}

func (v *UsersView) resetForm() {
	for i := range v.fields {
		v.fields[i].Reset()
		v.fields[i].Blur()
	}
	v.focus = fieldUsername
}

// Update handles messages for the user directory
func (v UsersView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case usersPingedMsg:
		// status lives in the tracker; nothing else to do
		return v, nil

	case usersLoadedMsg:
		v.cursor = clampCursor(v.cursor, len(v.users.Users()))
		if msg.err != nil {
			return v, failure(msg.err)
		}
		return v, nil

	case userCreatedMsg:
		v.pending = false
		if msg.err != nil {
			// the form keeps its values so the entry can be corrected
			return v, failure(msg.err)
		}
		v.resetForm()
		v.mode = UsersModeNormal
		v.cursor = len(v.users.Users()) - 1
		return v, notice("User added: %s", msg.user.Username)

	case userDeletedMsg:
		if msg.err != nil {
			return v, failure(msg.err)
		}
		v.cursor = clampCursor(v.cursor, len(v.users.Users()))
		return v, notice("User deleted")

	case tea.KeyMsg:
		switch v.mode {
		case UsersModeForm:
			return v.handleFormMode(msg)
		case UsersModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == UsersModeForm {
		var cmd tea.Cmd
		v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleNormalMode handles keypresses in normal mode
func (v UsersView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	users := v.users.Users()

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(users)-1 {
			v.cursor++
		}
	case "g", "home":
		v.cursor = 0
	case "G", "end":
		v.cursor = clampCursor(len(users)-1, len(users))

	case "a":
		if v.users.Health().Status() == health.StatusOffline {
			return v, func() tea.Msg {
				return NoticeMsg{Text: "User service is offline; press r to retry", Error: true}
			}
		}
		v.mode = UsersModeForm
		return v, v.focusField(fieldUsername)

	case "d":
		if v.cursor < len(users) {
			v.deleteID = users[v.cursor].ID
			v.mode = UsersModeConfirmDelete
		}

	case "r":
		v.users.Health().Reset()
		return v, tea.Batch(v.ping(), v.loadUsers(), v.spinner.Tick)
	}

	return v, nil
}

// handleFormMode handles keypresses while the add form is open
func (v UsersView) handleFormMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return v, v.focusField(v.focus + 1)
	case "shift+tab", "up":
		return v, v.focusField(v.focus - 1)
	case "enter":
		if v.pending {
			return v, nil
		}
		v.pending = true
		return v, v.createUser(v.draft())
	case "esc":
		v.resetForm()
		v.pending = false
		v.mode = UsersModeNormal
		return v, nil
	}

	var cmd tea.Cmd
	v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
	return v, cmd
}

// handleDeleteConfirm handles keypresses in delete confirmation
func (v UsersView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = UsersModeNormal
		return v, v.deleteUser(v.deleteID)
	case "n", "N", "esc":
		v.mode = UsersModeNormal
		v.deleteID = 0
	}
	return v, nil
}

// View renders the user directory
func (v UsersView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	status := v.users.Health().Status()
	users := v.users.Users()

	var b strings.Builder

	left := styles.PanelTitle.Render("Users") +
		lipgloss.NewStyle().Foreground(t.Subtle).Render(fmt.Sprintf("  %d total", len(users)))
	right := renderConnectivity(v.users.Health().Service(), status, v.spinner)
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left + strings.Repeat(" ", gap) + right)
	b.WriteString("\n\n")

	if v.mode == UsersModeForm {
		b.WriteString(v.renderForm())
		b.WriteString("\n\n")
	} else if status == health.StatusOffline {
		b.WriteString(styles.Warning.Render("The user service is unreachable. Adding users is disabled until it responds."))
		b.WriteString("\n\n")
	}

	if v.mode == UsersModeConfirmDelete {
		for _, u := range users {
			if u.ID == v.deleteID {
				warn := lipgloss.NewStyle().Foreground(t.Error).Bold(true)
				b.WriteString(warn.Render(fmt.Sprintf("Delete user %s? (y/n)", u.Username)))
				b.WriteString("\n\n")
				break
			}
		}
	}

	if len(users) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Padding(1, 0)
		if status == health.StatusChecking {
			b.WriteString(emptyStyle.Render("Loading users... " + v.spinner.View()))
		} else {
			b.WriteString(emptyStyle.Render("No users. Press 'a' to add one."))
		}
		return b.String()
	}

	header := lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	b.WriteString("  " + header.Render(fmt.Sprintf("%-16s %-26s %-20s %-10s %-12s %s", "USERNAME", "EMAIL", "NAME", "ROLE", "DEPARTMENT", "ACTIVE")))
	b.WriteString("\n")

	used := strings.Count(b.String(), "\n") + 2
	start, end := scrollWindow(v.cursor, 0, len(users), v.height-used)
	for i := start; i < end; i++ {
		b.WriteString(v.renderUser(users[i], i == v.cursor))
		b.WriteString("\n")
	}
	if remaining := len(users) - end; remaining > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Subtle).Render(fmt.Sprintf("  ↓ %d more below", remaining)))
		b.WriteString("\n")
	}

	return b.String()
}

func (v UsersView) renderUser(u model.User, isCursor bool) string {
	t := theme.Current.Theme

	cursor := "  "
	style := lipgloss.NewStyle().Foreground(t.Foreground)
	if isCursor {
		cursor = lipgloss.NewStyle().Foreground(t.Primary).Render("> ")
		style = style.Bold(true)
	}

	active := lipgloss.NewStyle().Foreground(t.Success).Render("yes")
	if !u.Active {
		active = lipgloss.NewStyle().Foreground(t.Subtle).Render("no")
	}

	row := fmt.Sprintf("%-16s %-26s %-20s %-10s %-12s ",
		truncate(u.Username, 16),
		truncate(u.Email, 26),
		truncate(u.FullName, 20),
		truncate(u.Role, 10),
		truncate(u.Department, 12),
	)
	return cursor + style.Render(row) + active
}

func (v UsersView) renderForm() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	title := "Add user"
	if v.pending {
		title += " " + v.spinner.View()
	}
	b.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(title))
	b.WriteString("\n")

	labelStyle := styles.Label.Width(14)
	for i, field := range v.fields {
		label := labelStyle.Render(fieldLabels[i])
		if i == v.focus {
			label = labelStyle.Foreground(t.Primary).Bold(true).Render(fieldLabels[i])
		}
		b.WriteString(label + field.View())
		b.WriteString("\n")
	}

	hintStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)
	b.WriteString(hintStyle.Render("(tab: next field, enter: save, esc: cancel)"))
	return b.String()
}
