// Package storage maps the task list to and from a single JSON document.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/nibzard/todo-go/internal/appdir"
	"github.com/nibzard/todo-go/internal/todo"
)

// ParseError reports a todo file that exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse todo file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Installer receives a successfully loaded task list.
type Installer interface {
	LoadFrom(tasks []todo.Task)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStrictLoad also rejects documents whose ids are not pairwise distinct.
func WithStrictLoad(strict bool) Option {
	return func(g *Gateway) {
		g.strict = strict
	}
}

// Gateway reads and writes the whole task list as one JSON file.
// It holds no lock: the file is read and written in one shot, and the last
// write wins.
type Gateway struct {
	fs     afero.Fs
	dir    string
	path   string
	strict bool
}

// Open returns a Gateway for dataDir, creating the directory if needed.
// A failure here is an environment problem, not a per-operation error.
func Open(fs afero.Fs, dataDir string, opts ...Option) (*Gateway, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return New(fs, dataDir, opts...), nil
}

// New returns a Gateway for dataDir without touching the filesystem, for
// callers that only inspect the todo file.
func New(fs afero.Fs, dataDir string, opts ...Option) *Gateway {
	g := &Gateway{
		fs:   fs,
		dir:  dataDir,
		path: appdir.TodoPath(dataDir),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewOsGateway opens a Gateway on the real filesystem.
func NewOsGateway(dataDir string, opts ...Option) (*Gateway, error) {
	return Open(afero.NewOsFs(), dataDir, opts...)
}

// Path returns the todo file path.
func (g *Gateway) Path() string {
	return g.path
}

// Dir returns the data directory.
func (g *Gateway) Dir() string {
	return g.dir
}

// Exists reports whether the todo file is present.
func (g *Gateway) Exists() (bool, error) {
	ok, err := afero.Exists(g.fs, g.path)
	if err != nil {
		return false, fmt.Errorf("stat todo file: %w", err)
	}
	return ok, nil
}

// ReadRaw returns the file content. found is false when the file does not
// exist.
func (g *Gateway) ReadRaw() (data []byte, found bool, err error) {
	ok, err := g.Exists()
	if err != nil || !ok {
		return nil, false, err
	}
	data, err = afero.ReadFile(g.fs, g.path)
	if err != nil {
		return nil, true, fmt.Errorf("read todo file: %w", err)
	}
	return data, true, nil
}

// Read decodes the todo file without installing it anywhere. A missing file
// yields an empty list.
func (g *Gateway) Read() ([]todo.Task, error) {
	data, found, err := g.ReadRaw()
	if err != nil {
		return nil, err
	}
	if !found {
		return []todo.Task{}, nil
	}
	return g.Decode(data)
}

// Load reads the todo file and, when it exists and decodes, installs the
// list into dst. dst is left untouched on any error or when the file is
// missing.
func (g *Gateway) Load(dst Installer) ([]todo.Task, error) {
	data, found, err := g.ReadRaw()
	if err != nil {
		return nil, err
	}
	if !found {
		return []todo.Task{}, nil
	}
	tasks, err := g.Decode(data)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		dst.LoadFrom(tasks)
	}
	return tasks, nil
}

// Decode checks that data is an array of complete task records and decodes
// it. A document of any other shape, including null, is a *ParseError.
func (g *Gateway) Decode(data []byte) ([]todo.Task, error) {
	tasks, err := todo.DecodeList(data, !g.strict)
	if err != nil {
		return nil, &ParseError{Path: g.path, Err: err}
	}
	return tasks, nil
}

// Save overwrites the todo file with tasks as indented JSON.
func (g *Gateway) Save(tasks []todo.Task) error {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal todo file: %w", err)
	}
	data = append(data, '\n')

	if err := afero.WriteFile(g.fs, g.path, data, 0o644); err != nil {
		return fmt.Errorf("write todo file: %w", err)
	}
	return nil
}
