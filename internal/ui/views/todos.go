package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/quickadd"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// TodosMode represents the current interaction mode
type TodosMode int

const (
	TodosModeNormal TodosMode = iota
	TodosModeAdd
	TodosModeEdit
	TodosModeConfirmDelete
	TodosModeAssign
)

// TodosView is the task list
type TodosView struct {
	tasks *syncer.TaskList
	users *syncer.UserList // assignee lookup
	now   func() time.Time

	width  int
	height int

	cursor int
	filter model.FilterMode

	mode    TodosMode
	input   textinput.Model
	pending bool // a save is in flight for the open input

	deleteID int64

	// assignee picker; index 0 is "nobody"
	assignID     int64
	assignees    []model.User
	assignCursor int
	assignLoaded bool

	spinner spinner.Model
	loading bool
}

// NewTodosView creates a task list view. users is only used to resolve
// assignees.
func NewTodosView(tasks *syncer.TaskList, users *syncer.UserList) TodosView {
	ti := textinput.New()
	ti.CharLimit = 256

	return TodosView{
		tasks:   tasks,
		users:   users,
		now:     time.Now,
		input:   ti,
		spinner: newSpinner(),
	}
}

type todosLoadedMsg struct {
	err error
}

type todoCreatedMsg struct {
	task model.Task
	err  error
}

type todoUpdatedMsg struct {
	task   model.Task
	action todoAction
	err    error
}

type todoDeletedMsg struct {
	id  int64
	err error
}

type assigneesLoadedMsg struct {
	err error
}

type todoAction int

const (
	actionToggle todoAction = iota
	actionEdit
	actionAssign
)

// Init loads the list
func (v TodosView) Init() tea.Cmd {
	return tea.Batch(v.loadTasks(), v.spinner.Tick)
}

// IsInputMode returns true when keys belong to an input or a prompt
func (v TodosView) IsInputMode() bool {
	return v.mode != TodosModeNormal
}

// SetSize updates the view dimensions
func (v TodosView) SetSize(width, height int) TodosView {
	v.width = width
	v.height = height
	v.input.Width = width - 6
	return v
}

// Filter returns the active filter
func (v TodosView) Filter() model.FilterMode {
	return v.filter
}

// WithFilter sets the active filter
func (v TodosView) WithFilter(mode model.FilterMode) TodosView {
	v.filter = mode
	return v
}

func (v TodosView) visible() []model.Task {
	return v.tasks.Filtered(v.filter)
}

func (v TodosView) selected() (model.Task, bool) {
	tasks := v.visible()
	if v.cursor < 0 || v.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[v.cursor], true
}

// Commands

func (v TodosView) loadTasks() tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		return todosLoadedMsg{err: tasks.Load(background())}
	}
}

func (v TodosView) createTask(text string) tea.Cmd {
	tasks, users := v.tasks, v.users
	now := v.now()
	return func() tea.Msg {
		entry := quickadd.Parse(text, now)
		draft := model.TaskDraft{Content: entry.Content, DueDate: entry.DueDate}
		if entry.Assignee != "" && strings.TrimSpace(entry.Content) != "" {
			u, err := resolveAssignee(users, entry.Assignee)
			if err != nil {
				return todoCreatedMsg{err: err}
			}
			draft.Assignee = &u
		}
		task, err := tasks.Create(background(), draft)
		return todoCreatedMsg{task: task, err: err}
	}
}

// resolveAssignee finds username in the directory, reloading it once if
// the name is not known yet
func resolveAssignee(users *syncer.UserList, username string) (model.User, error) {
	if users == nil {
		return model.User{}, &syncer.ValidationError{Message: "Assignment is not available"}
	}
	if u, ok := users.Find(username); ok {
		return u, nil
	}
	if err := users.Load(background()); err != nil {
		return model.User{}, err
	}
	if u, ok := users.Find(username); ok {
		return u, nil
	}
	return model.User{}, &syncer.ValidationError{Message: fmt.Sprintf("No user named @%s", username)}
}

func (v TodosView) toggleTask(id int64) tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		task, err := tasks.Toggle(background(), id)
		return todoUpdatedMsg{task: task, action: actionToggle, err: err}
	}
}

func (v TodosView) saveEdit(id int64, content string) tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		task, err := tasks.Edit(background(), id, content)
		return todoUpdatedMsg{task: task, action: actionEdit, err: err}
	}
}

func (v TodosView) assignTask(id int64, u *model.User) tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		task, err := tasks.Assign(background(), id, u)
		return todoUpdatedMsg{task: task, action: actionAssign, err: err}
	}
}

func (v TodosView) deleteTask(id int64) tea.Cmd {
	tasks := v.tasks
	return func() tea.Msg {
		return todoDeletedMsg{id: id, err: tasks.Delete(background(), id)}
	}
}

func (v TodosView) loadAssignees() tea.Cmd {
	users := v.users
	return func() tea.Msg {
		return assigneesLoadedMsg{err: users.Load(background())}
	}
}

// Update handles messages for the task list
func (v TodosView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case todosLoadedMsg:
		v.loading = false
		v.cursor = clampCursor(v.cursor, len(v.visible()))
		if msg.err != nil {
			return v, failure(msg.err)
		}
		return v, nil

	case todoCreatedMsg:
		v.pending = false
		if msg.err != nil {
			// keep the input so the entry can be retried
			return v, failure(msg.err)
		}
		v.mode = TodosModeNormal
		v.input.Reset()
		v.input.Blur()
		if v.filter.Matches(msg.task) {
			v.cursor = len(v.visible()) - 1
		}
		return v, notice("Task added")

	case todoUpdatedMsg:
		if msg.action == actionEdit {
			v.pending = false
			if msg.err != nil {
				return v, failure(msg.err)
			}
			v.mode = TodosModeNormal
			v.input.Reset()
			v.input.Blur()
		}
		if msg.err != nil {
			return v, failure(msg.err)
		}
		v.cursor = clampCursor(v.cursor, len(v.visible()))
		switch msg.action {
		case actionToggle:
			if msg.task.Done {
				return v, notice("Completed: %s", msg.task.Content)
			}
			return v, notice("Reopened: %s", msg.task.Content)
		case actionAssign:
			if msg.task.IsAssigned() {
				return v, notice("Assigned to %s", msg.task.AssignedToName)
			}
			return v, notice("Unassigned")
		default:
			return v, notice("Task saved")
		}

	case todoDeletedMsg:
		if msg.err != nil {
			return v, failure(msg.err)
		}
		v.cursor = clampCursor(v.cursor, len(v.visible()))
		return v, notice("Task deleted")

	case assigneesLoadedMsg:
		if v.mode != TodosModeAssign {
			return v, nil
		}
		v.assignLoaded = true
		v.assignees = v.users.Users()
		v.assignCursor = clampCursor(v.assignCursor, len(v.assignees)+1)
		if msg.err != nil {
			if len(v.assignees) == 0 {
				v.mode = TodosModeNormal
			}
			return v, failure(msg.err)
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case TodosModeAdd:
			return v.handleAddMode(msg)
		case TodosModeEdit:
			return v.handleEditMode(msg)
		case TodosModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		case TodosModeAssign:
			return v.handleAssignSelector(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == TodosModeAdd || v.mode == TodosModeEdit {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleNormalMode handles keypresses in normal mode
func (v TodosView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(v.visible())

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < n-1 {
			v.cursor++
		}
	case "g", "home":
		v.cursor = 0
	case "G", "end":
		v.cursor = clampCursor(n-1, n)

	case "a":
		v.mode = TodosModeAdd
		v.input.Reset()
		v.input.Placeholder = "New task... (due:friday @username)"
		v.input.Focus()
		return v, textinput.Blink

	case "enter", "e":
		task, ok := v.selected()
		if !ok || !v.tasks.BeginEdit(task.ID) {
			return v, nil
		}
		v.mode = TodosModeEdit
		v.input.Placeholder = "Task content"
		v.input.SetValue(task.Content)
		v.input.CursorEnd()
		v.input.Focus()
		return v, textinput.Blink

	case "tab", " ":
		if task, ok := v.selected(); ok {
			return v, v.toggleTask(task.ID)
		}

	case "d":
		if task, ok := v.selected(); ok {
			v.deleteID = task.ID
			v.mode = TodosModeConfirmDelete
		}

	case "u":
		task, ok := v.selected()
		if !ok || v.users == nil {
			return v, nil
		}
		v.assignID = task.ID
		v.assignees = v.users.Users()
		v.assignLoaded = len(v.assignees) > 0
		v.assignCursor = 0
		v.mode = TodosModeAssign
		return v, v.loadAssignees()

	case "f":
		v.filter = v.filter.Next()
		v.cursor = clampCursor(v.cursor, len(v.visible()))
		return v, notice("Filter: %s", v.filter)

	case "r":
		v.loading = true
		return v, v.loadTasks()
	}

	return v, nil
}

// handleAddMode handles keypresses in add mode
func (v TodosView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if v.pending {
			return v, nil
		}
		v.pending = true
		return v, v.createTask(v.input.Value())
	case "esc":
		v.mode = TodosModeNormal
		v.pending = false
		v.input.Reset()
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleEditMode handles keypresses in edit mode
func (v TodosView) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		id, ok := v.tasks.EditingID()
		if !ok {
			// the task went away in a reload
			v.mode = TodosModeNormal
			v.pending = false
			v.input.Reset()
			v.input.Blur()
			return v, func() tea.Msg {
				return NoticeMsg{Text: "The task being edited no longer exists; your change was not saved", Error: true}
			}
		}
		if v.pending {
			return v, nil
		}
		v.pending = true
		return v, v.saveEdit(id, v.input.Value())
	case "esc":
		v.tasks.CancelEdit()
		v.mode = TodosModeNormal
		v.pending = false
		v.input.Reset()
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleDeleteConfirm handles keypresses in delete confirmation
func (v TodosView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = TodosModeNormal
		return v, v.deleteTask(v.deleteID)
	case "n", "N", "esc":
		v.mode = TodosModeNormal
		v.deleteID = 0
	}
	return v, nil
}

// handleAssignSelector handles the assignee picker
func (v TodosView) handleAssignSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(v.assignees) + 1
	switch msg.String() {
	case "up", "k":
		if v.assignCursor > 0 {
			v.assignCursor--
		} else {
			v.assignCursor = n - 1 // Wrap to bottom
		}
	case "down", "j":
		if v.assignCursor < n-1 {
			v.assignCursor++
		} else {
			v.assignCursor = 0 // Wrap to top
		}
	case "enter":
		v.mode = TodosModeNormal
		if v.assignCursor == 0 {
			return v, v.assignTask(v.assignID, nil)
		}
		u := v.assignees[v.assignCursor-1]
		return v, v.assignTask(v.assignID, &u)
	case "esc":
		v.mode = TodosModeNormal
	}
	return v, nil
}

// View renders the task list
func (v TodosView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	all := v.tasks.Tasks()
	tasks := syncer.Filter(all, v.filter)

	var b strings.Builder

	// Title row: filter and counts on the left, connectivity on the right
	done := 0
	for _, task := range all {
		if task.Done {
			done++
		}
	}
	left := styles.PanelTitle.Render("Tasks") +
		lipgloss.NewStyle().Foreground(t.Secondary).Render(fmt.Sprintf("[%s]", v.filter)) +
		lipgloss.NewStyle().Foreground(t.Subtle).Render(fmt.Sprintf("  %d/%d done", done, len(all)))
	if v.loading {
		left += " " + v.spinner.View()
	}
	right := renderConnectivity(v.tasks.Health().Service(), v.tasks.Health().Status(), v.spinner)
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left + strings.Repeat(" ", gap) + right)
	b.WriteString("\n\n")

	// Input field
	if v.mode == TodosModeAdd || v.mode == TodosModeEdit {
		label := "Add"
		if v.mode == TodosModeEdit {
			label = "Edit"
		}
		if v.pending {
			label += " " + v.spinner.View()
		}
		b.WriteString(styles.Label.Render(label))
		b.WriteString("\n")
		b.WriteString(styles.InputFocused.Render(v.input.View()))
		b.WriteString("\n\n")
	}

	if v.mode == TodosModeConfirmDelete {
		if task, ok := v.tasks.Get(v.deleteID); ok {
			warn := lipgloss.NewStyle().Foreground(t.Error).Bold(true)
			b.WriteString(warn.Render(fmt.Sprintf("Delete \"%s\"? (y/n)", truncate(task.Content, 40))))
			b.WriteString("\n\n")
		}
	}

	if v.mode == TodosModeAssign {
		b.WriteString(v.renderAssignSelector())
		b.WriteString("\n\n")
	}

	if len(tasks) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Padding(1, 0)
		switch {
		case v.tasks.Health().Status() == health.StatusOffline && len(all) == 0:
			b.WriteString(emptyStyle.Render("Cannot load tasks. Press 'r' to retry."))
		case len(all) > 0:
			b.WriteString(emptyStyle.Render(fmt.Sprintf("No %s tasks. Press 'f' to change the filter.", strings.ToLower(v.filter.String()))))
		default:
			b.WriteString(emptyStyle.Render("No tasks. Press 'a' to add one."))
		}
		return b.String()
	}

	used := strings.Count(b.String(), "\n") + 2
	start, end := scrollWindow(v.cursor, 0, len(tasks), v.height-used)

	if start > 0 {
		scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↑ %d more above", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		b.WriteString(v.renderTask(tasks[i], i == v.cursor))
		b.WriteString("\n")
	}
	if remaining := len(tasks) - end; remaining > 0 {
		scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTask renders a single task line
func (v TodosView) renderTask(task model.Task, isCursor bool) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	cursor := "  "
	if isCursor {
		cursor = lipgloss.NewStyle().Foreground(t.Primary).Render("> ")
	}

	checkbox := "[ ]"
	if task.Done {
		checkbox = lipgloss.NewStyle().Foreground(t.Success).Render("[x]")
	}

	editMark := " "
	if task.Editing {
		editMark = lipgloss.NewStyle().Foreground(t.Warning).Render("✎")
	}

	var meta []string
	if task.DueDate != "" {
		due := quickadd.FormatDue(task.DueDate, v.now())
		style := dueStyle(task, styles)
		meta = append(meta, style.Render(due))
	}
	if task.IsAssigned() {
		name := task.AssignedToName
		if name == "" {
			name = fmt.Sprintf("user #%d", *task.AssignedToUserID)
		}
		meta = append(meta, styles.Assignee.Render("→ "+name))
	}
	metaStr := strings.Join(meta, "  ")

	contentWidth := v.width - 12 - lipgloss.Width(metaStr)
	content := truncate(task.Content, contentWidth)

	contentStyle := taskStyle(task, styles)
	if isCursor {
		contentStyle = contentStyle.Bold(true)
	}

	line := cursor + checkbox + " " + editMark + " " + contentStyle.Render(content)
	if metaStr != "" {
		line += "  " + metaStr
	}
	return line
}

func taskStyle(task model.Task, styles theme.Styles) lipgloss.Style {
	switch {
	case task.Done:
		return styles.TaskDone
	case task.IsOverdue():
		return styles.TaskOverdue
	}
	return styles.TaskNormal
}

// dueStyle highlights dates that are overdue or due today
func dueStyle(task model.Task, styles theme.Styles) lipgloss.Style {
	switch {
	case task.IsOverdue():
		return styles.TaskOverdue
	case !task.Done && task.IsDueToday():
		return styles.Warning
	}
	return styles.DueDate
}

// renderAssignSelector renders the assignee picker
func (v TodosView) renderAssignSelector() string {
	t := theme.Current.Theme

	var b strings.Builder
	b.WriteString(theme.Current.Styles.Title.Render("Assign to:"))
	if !v.assignLoaded {
		b.WriteString(" " + v.spinner.View())
	}
	b.WriteString("\n")

	options := []string{"(nobody)"}
	for _, u := range v.assignees {
		options = append(options, fmt.Sprintf("%s (@%s)", u.DisplayName(), u.Username))
	}
	for i, opt := range options {
		cursor := "  "
		style := lipgloss.NewStyle().Foreground(t.Foreground)
		if i == v.assignCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(t.Assignee)
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(opt))
		b.WriteString("\n")
	}

	hintStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)
	b.WriteString(hintStyle.Render("(Enter to select, Esc to cancel)"))

	return b.String()
}
