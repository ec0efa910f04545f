// Package ui provides the interactive terminal front-end.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/todo"
)

// Operations is the task list surface the TUI drives.
type Operations interface {
	LoadTodos() ([]todo.Task, error)
	AddTodo(ctx context.Context, text string) (todo.Task, error)
	ToggleTodo(ctx context.Context, id uint32) (todo.Task, error)
	DeleteTodo(ctx context.Context, id uint32) error
	GetTodos() []todo.Task
	Path() string
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	watch  bool
	logger *log.Logger
}

// WithWatch reloads the list when the todo file changes on disk.
func WithWatch(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.watch = enabled
	}
}

// WithLogger sets the logger used for watcher problems.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// RunTUI loads the list and runs the TUI until the user quits.
func RunTUI(ctx context.Context, ops Operations, opts ...TUIOption) error {
	c := &tuiConfig{
		watch:  true,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	m := newModel(ctx, ops)
	if c.watch {
		w, err := newWatcher(ops.Path())
		if err != nil {
			// The list still works without live reload.
			c.logger.Warn("file watch disabled", "err", err)
		} else {
			defer w.Close()
			m.watcher = w
		}
	}
	return runProgram(ctx, m)
}

func runProgram(ctx context.Context, m *model) error {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
