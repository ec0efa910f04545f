package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/todo-go/internal/todo"
)

type model struct {
	ctx     context.Context
	ops     Operations
	watcher *watcher

	tasks  []todo.Task
	cursor int
	adding bool
	input  textinput.Model

	// gen identifies the newest pending reload.
	gen int

	err    error
	status string
}

func newModel(ctx context.Context, ops Operations) *model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 500
	ti.Width = 50

	return &model{
		ctx:   ctx,
		ops:   ops,
		input: ti,
	}
}

func (m *model) Init() tea.Cmd {
	m.reload()
	return m.watchNext()
}

func (m *model) watchNext() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.next()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateList(msg)

	case fileChangedMsg:
		m.gen++
		return m, tea.Batch(reloadAfter(m.gen), m.watchNext())

	case reloadMsg:
		if msg.gen == m.gen {
			m.reload()
		}
		return m, nil

	case watchErrMsg:
		m.err = fmt.Errorf("watch: %w", msg.err)
		return m, m.watchNext()
	}
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case " ", "space", "enter", "x":
		m.toggleSelected()
	case "d", "delete", "backspace":
		m.deleteSelected()
	case "a", "n":
		m.adding = true
		m.input.Reset()
		return m, m.input.Focus()
	case "r", "f5":
		m.reload()
	}
	return m, nil
}

func (m *model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.stopAdding()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.stopAdding()
		if text == "" {
			return m, nil
		}
		task, err := m.ops.AddTodo(m.ctx, text)
		m.afterMutation(err)
		if err == nil {
			m.cursor = m.indexOf(task.ID)
			m.status = fmt.Sprintf("added #%d", task.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) stopAdding() {
	m.adding = false
	m.input.Blur()
	m.input.Reset()
}

func (m *model) selected() (todo.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return todo.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *model) toggleSelected() {
	task, ok := m.selected()
	if !ok {
		return
	}
	_, err := m.ops.ToggleTodo(m.ctx, task.ID)
	m.afterMutation(err)
}

func (m *model) deleteSelected() {
	task, ok := m.selected()
	if !ok {
		return
	}
	err := m.ops.DeleteTodo(m.ctx, task.ID)
	m.afterMutation(err)
	if err == nil {
		m.status = fmt.Sprintf("deleted #%d", task.ID)
	}
}

// afterMutation refreshes the view from memory. A failed save still leaves
// the change in memory, so the list is refreshed either way.
func (m *model) afterMutation(err error) {
	m.err = err
	m.status = ""
	m.tasks = m.ops.GetTodos()
	m.clampCursor()
}

func (m *model) reload() {
	tasks, err := m.ops.LoadTodos()
	if err != nil {
		m.err = err
		m.tasks = m.ops.GetTodos()
	} else {
		m.err = nil
		m.tasks = tasks
	}
	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) indexOf(id uint32) int {
	if i := todo.IndexOf(m.tasks, id); i >= 0 {
		return i
	}
	return m.cursor
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Todos"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(m.ops.Path()))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(subtleStyle.Render("  Nothing to do. Press a to add a task."))
		b.WriteString("\n")
	}
	for i, task := range m.tasks {
		b.WriteString(renderTask(task, i == m.cursor))
		b.WriteString("\n")
	}

	done, pending := todo.Counts(m.tasks)
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d pending, %d done", pending, done)))
	b.WriteString("\n")

	if m.adding {
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(m.input.View()))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.adding {
		b.WriteString(subtleStyle.Render("enter: add • esc: cancel"))
	} else {
		b.WriteString(subtleStyle.Render("↑/↓: move • space: toggle • d: delete • a: add • r: reload • q: quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func renderTask(task todo.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}
	box := "[ ]"
	text := task.Text
	if task.Completed {
		box = "[x]"
		text = doneStyle.Render(text)
	}
	return fmt.Sprintf("%s%s %s %s", pointer, box, subtleStyle.Render(fmt.Sprintf("#%d", task.ID)), text)
}
