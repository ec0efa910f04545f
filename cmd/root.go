// Package cmd implements the CLI command structure for todo.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/app"
	"github.com/nibzard/todo-go/internal/appdir"
	"github.com/nibzard/todo-go/internal/bridge"
	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
	"github.com/nibzard/todo-go/internal/ui"
	"github.com/nibzard/todo-go/internal/utils"
)

// Version is set via ldflags at build time.
var Version = "dev"

// IO holds the streams commands read from and write to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// env is what every subcommand receives.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	cws    *config.ConfigWithSources
	io     IO
	logger *log.Logger
}

// Run executes the todo CLI on the process streams.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, StdIO())
}

// RunWithIO executes the todo CLI on the given streams.
func RunWithIO(ctx context.Context, args []string, stdio IO) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stdio.Err)
	fs.Usage = func() {
		printUsage(fs, stdio.Err)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdio.Out)
		return nil
	}
	if *showVersion {
		return versionCommand(stdio.Out)
	}

	cfg := cws.Config
	e := &env{
		ctx: ctx,
		cfg: cfg,
		cws: cws,
		io:  stdio,
		logger: logging.NewWithWriter(stdio.Err, logging.OptionsFromConfig(
			cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)),
	}
	for _, w := range cws.Warnings {
		e.logger.Warn(w)
	}

	// Determine the subcommand
	// With no arguments the list is shown.
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "ls", "list":
		return lsCommand(e, remainingArgs)
	case "add":
		return addCommand(e, remainingArgs)
	case "toggle", "done":
		return toggleCommand(e, remainingArgs)
	case "rm", "delete":
		return deleteCommand(e, remainingArgs)
	case "save":
		return saveCommand(e, remainingArgs)
	case "load":
		return loadCommand(e, remainingArgs)
	case "serve":
		return serveCommand(e, remainingArgs)
	case "tui":
		return tuiCommand(e, remainingArgs)
	case "doctor":
		return doctorCommand(e, remainingArgs)
	case "config":
		return configCommand(e, remainingArgs)
	case "path":
		if err := cfg.RequireDataDir(); err != nil {
			return err
		}
		fmt.Fprintln(stdio.Out, cfg.TodoPath())
		return nil
	case "completion":
		return completionCommand(stdio.Out, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand(stdio.Out)
	case "help", "--help", "-h":
		printUsage(fs, stdio.Out)
		return nil
	default:
		fmt.Fprintf(stdio.Err, "Unknown command: %s\n", subcommand)
		printUsage(fs, stdio.Err)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newApp opens the gateway for the configured data dir. Each CLI process
// starts with an empty list, so callers load before mutating.
func newApp(e *env) (*app.App, error) {
	if err := e.cfg.RequireDataDir(); err != nil {
		return nil, err
	}
	gw, err := storage.NewOsGateway(e.cfg.DataDir, storage.WithStrictLoad(e.cfg.StrictLoad))
	if err != nil {
		return nil, err
	}
	return app.New(todo.NewStore(), gw,
		app.WithLogger(e.logger),
		app.WithHook(e.cfg.HookCommand, e.cfg.DataDir),
	), nil
}

// loadedApp returns an App with the todo file already loaded.
func loadedApp(e *env) (*app.App, error) {
	a, err := newApp(e)
	if err != nil {
		return nil, err
	}
	if _, err := a.LoadTodos(); err != nil {
		return nil, fmt.Errorf("loading todo file: %w", err)
	}
	return a, nil
}

func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("todo "+name, flag.ContinueOnError)
	fs.SetOutput(e.io.Err)
	return fs
}

// lsCommand prints the list.
func lsCommand(e *env, args []string) error {
	fs := newFlagSet(e, "ls")
	asJSON := fs.Bool("json", false, "Print as JSON")
	onlyDone := fs.Bool("done", false, "Only completed todos")
	onlyPending := fs.Bool("pending", false, "Only pending todos")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *onlyDone && *onlyPending {
		return fmt.Errorf("-done and -pending are mutually exclusive")
	}

	a, err := loadedApp(e)
	if err != nil {
		return err
	}
	tasks := filterTasks(a.GetTodos(), *onlyDone, *onlyPending)

	if *asJSON {
		return writeJSON(e.io.Out, tasks)
	}
	printTaskList(e.io.Out, tasks)
	return nil
}

func filterTasks(tasks []todo.Task, onlyDone, onlyPending bool) []todo.Task {
	if !onlyDone && !onlyPending {
		return tasks
	}
	filtered := make([]todo.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed == onlyDone {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// addCommand appends a new todo.
func addCommand(e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todo add <text...>")
	}
	text := strings.Join(args, " ")

	a, err := loadedApp(e)
	if err != nil {
		return err
	}
	task, err := a.AddTodo(e.ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.io.Out, "Added #%d: %s\n", task.ID, task.Text)
	return nil
}

// toggleCommand flips a todo's completion flag.
func toggleCommand(e *env, args []string) error {
	id, err := parseIDArg("toggle", args)
	if err != nil {
		return err
	}
	a, err := loadedApp(e)
	if err != nil {
		return err
	}
	task, err := a.ToggleTodo(e.ctx, id)
	if err != nil {
		return err
	}
	if task.Completed {
		fmt.Fprintf(e.io.Out, "Completed #%d: %s\n", task.ID, task.Text)
	} else {
		fmt.Fprintf(e.io.Out, "Reopened #%d: %s\n", task.ID, task.Text)
	}
	return nil
}

// deleteCommand removes a todo.
func deleteCommand(e *env, args []string) error {
	id, err := parseIDArg("rm", args)
	if err != nil {
		return err
	}
	a, err := loadedApp(e)
	if err != nil {
		return err
	}
	if err := a.DeleteTodo(e.ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(e.io.Out, "Deleted #%d\n", id)
	return nil
}

func parseIDArg(name string, args []string) (uint32, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: todo %s <id>", name)
	}
	return utils.ParseID(args[0])
}

// saveCommand replaces the whole list with a JSON array read from a file
// or stdin.
func saveCommand(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: todo save <file|->")
	}
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(e.io.In)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	tasks, err := todo.DecodeList(data, !e.cfg.StrictLoad)
	if err != nil {
		return fmt.Errorf("input is not a todo list: %w", err)
	}

	a, err := newApp(e)
	if err != nil {
		return err
	}
	if err := a.SaveTodos(e.ctx, tasks); err != nil {
		return err
	}
	fmt.Fprintf(e.io.Out, "Saved %d todos to %s\n", len(tasks), a.Path())
	return nil
}

// loadCommand prints the loaded list as indented JSON.
func loadCommand(e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	a, err := newApp(e)
	if err != nil {
		return err
	}
	tasks, err := a.LoadTodos()
	if err != nil {
		return fmt.Errorf("loading todo file: %w", err)
	}
	return writeJSON(e.io.Out, tasks)
}

// serveCommand runs the JSON-lines bridge on stdin and stdout. Nothing is
// loaded up front; clients send load_todos first.
func serveCommand(e *env, args []string) error {
	fs := newFlagSet(e, "serve")
	workers := fs.Int("workers", bridge.DefaultMaxInFlight, "Maximum requests handled at once (0 for no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	a, err := newApp(e)
	if err != nil {
		return err
	}
	e.logger.Info("serving", "path", a.Path(), "workers", *workers)
	return bridge.Serve(e.ctx, bridge.NewDispatcher(a, e.logger), e.io.In, e.io.Out,
		bridge.WithMaxInFlight(*workers))
}

// tuiCommand launches the terminal UI.
func tuiCommand(e *env, args []string) error {
	fs := newFlagSet(e, "tui")
	noWatch := fs.Bool("no-watch", false, "Do not reload when the file changes on disk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(e)
	if err != nil {
		return err
	}
	return ui.RunTUI(e.ctx, a, ui.WithWatch(!*noWatch), ui.WithLogger(e.logger))
}

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(e *env, args []string) error {
	fs := newFlagSet(e, "config")
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w := e.io.Out
	if *example {
		fmt.Fprint(w, config.ExampleConfig())
		return nil
	}

	configFile := e.cfg.ConfigFile
	if configFile == "" {
		configFile = "(none)"
	}
	todoFile := e.cfg.TodoPath()
	if err := e.cfg.RequireDataDir(); err != nil {
		todoFile = fmt.Sprintf("(unresolved: %v)", err)
	}
	fmt.Fprintf(w, "Config file: %s\n", configFile)
	fmt.Fprintf(w, "Todo file:   %s\n\n", todoFile)
	for _, field := range config.Fields() {
		value := e.cfg.Value(field)
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(w, "  %-15s %-30s (%s)\n", field, value, e.cws.Sources[field])
	}
	for _, warning := range e.cws.Warnings {
		fmt.Fprintf(w, "\nwarning: %s\n", warning)
	}
	return nil
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "todo version %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "todo - a small local task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todo [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls [-json] [-done|-pending]  List todos (default command)")
	fmt.Fprintln(w, "  add <text...>                Add a todo")
	fmt.Fprintln(w, "  toggle <id>                  Mark a todo done or not done")
	fmt.Fprintln(w, "  rm <id>                      Delete a todo (alias: delete)")
	fmt.Fprintln(w, "  save <file|->                Replace all todos with a JSON array")
	fmt.Fprintln(w, "  load                         Print the stored todos as JSON")
	fmt.Fprintln(w, "  serve [-workers n]          Serve JSON-lines requests on stdin/stdout")
	fmt.Fprintln(w, "  tui [-no-watch]              Launch terminal UI")
	fmt.Fprintln(w, "  doctor [-v] [-schema file]   Check the data directory and todo file")
	fmt.Fprintln(w, "  config [-example]            Show effective configuration")
	fmt.Fprintln(w, "  path                         Print the todo file path")
	fmt.Fprintln(w, "  completion <shell>           Print a shell completion script")
	fmt.Fprintln(w, "  version                      Show version information")
	fmt.Fprintln(w, "  help                         Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: ~/%s/%s, ~/%s/%s\n", appdir.Dir, appdir.TodoFile, appdir.Dir, appdir.ConfigFile)
}

func printTaskList(w io.Writer, tasks []todo.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No todos.")
		return
	}
	for _, t := range tasks {
		printTask(w, t)
	}
	done, pending := todo.Counts(tasks)
	fmt.Fprintf(w, "\n%d pending, %d done\n", pending, done)
}

func printTask(w io.Writer, t todo.Task) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d %s %s\n", t.ID, box, t.Text)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
