// Package app exposes the six task list operations used by front-ends.
//
// Every mutating operation locks the Store, mutates, unlocks, and only then
// writes a snapshot of the whole list to disk. Two concurrent mutations may
// therefore finish their writes in either order: the last write wins, and
// for a short window the file can lag behind memory. Callers wanting the file
// to match memory exactly can follow up with SaveTodos(GetTodos()).
package app

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/hooks"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
)

// Operation names, as seen by front-ends and hooks.
const (
	OpLoadTodos  = "load_todos"
	OpSaveTodos  = "save_todos"
	OpAddTodo    = "add_todo"
	OpToggleTodo = "toggle_todo"
	OpDeleteTodo = "delete_todo"
	OpGetTodos   = "get_todos"
)

// Persister reads and writes the whole task list.
type Persister interface {
	Load(dst storage.Installer) ([]todo.Task, error)
	Save(tasks []todo.Task) error
	Path() string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithHook runs command after every successful save.
func WithHook(command, workDir string) Option {
	return func(a *App) {
		a.hookCommand = command
		a.hookWorkDir = workDir
	}
}

// App ties the in-memory Store to its Persister.
type App struct {
	store       *todo.Store
	persist     Persister
	logger      *log.Logger
	hookCommand string
	hookWorkDir string
}

// New returns an App over store and persist.
func New(store *todo.Store, persist Persister, opts ...Option) *App {
	if store == nil {
		store = todo.NewStore()
	}
	a := &App{
		store:   store,
		persist: persist,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Path returns the todo file path.
func (a *App) Path() string {
	return a.persist.Path()
}

// LoadTodos reads the todo file and installs it as the current list.
// A missing file yields an empty list and leaves memory untouched.
func (a *App) LoadTodos() ([]todo.Task, error) {
	tasks, err := a.persist.Load(a.store)
	if err != nil {
		a.logger.Error("load failed", "op", OpLoadTodos, "err", err)
		return nil, err
	}
	a.logger.Debug("loaded todos", "count", len(tasks))
	return tasks, nil
}

// SaveTodos replaces the whole list with tasks and writes it. Changes made
// by other operations since the caller last read the list are overwritten.
func (a *App) SaveTodos(ctx context.Context, tasks []todo.Task) error {
	tasks = todo.Clone(tasks)
	a.store.ReplaceAll(tasks)
	return a.save(ctx, OpSaveTodos, tasks)
}

// AddTodo appends a new pending task and writes the list.
func (a *App) AddTodo(ctx context.Context, text string) (todo.Task, error) {
	task, err := a.store.Create(text)
	if err != nil {
		return todo.Task{}, err
	}
	a.logger.Debug("added todo", "id", task.ID)
	if err := a.save(ctx, OpAddTodo, a.store.All()); err != nil {
		return todo.Task{}, err
	}
	return task, nil
}

// ToggleTodo flips the completion flag of id and writes the list.
func (a *App) ToggleTodo(ctx context.Context, id uint32) (todo.Task, error) {
	task, err := a.store.Toggle(id)
	if err != nil {
		return todo.Task{}, err
	}
	a.logger.Debug("toggled todo", "id", id, "completed", task.Completed)
	if err := a.save(ctx, OpToggleTodo, a.store.All()); err != nil {
		return todo.Task{}, err
	}
	return task, nil
}

// DeleteTodo removes id and writes the list.
func (a *App) DeleteTodo(ctx context.Context, id uint32) error {
	if err := a.store.Delete(id); err != nil {
		return err
	}
	a.logger.Debug("deleted todo", "id", id)
	return a.save(ctx, OpDeleteTodo, a.store.All())
}

// GetTodos returns the in-memory list without touching disk.
func (a *App) GetTodos() []todo.Task {
	return a.store.All()
}

func (a *App) save(ctx context.Context, op string, snapshot []todo.Task) error {
	if err := a.persist.Save(snapshot); err != nil {
		a.logger.Error("save failed", "op", op, "err", err)
		return err
	}
	a.logger.Debug("saved todos", "op", op, "count", len(snapshot))

	if a.hookCommand == "" {
		return nil
	}
	result, err := hooks.Invoke(ctx, hooks.Options{
		Command:   a.hookCommand,
		Operation: op,
		TodoPath:  a.persist.Path(),
		Count:     len(snapshot),
		WorkDir:   a.hookWorkDir,
	})
	if err != nil {
		// The save itself succeeded; a broken hook must not fail the operation.
		a.logger.Warn("hook failed", "op", op, "exit_code", result.ExitCode, "err", err)
	}
	return nil
}
