// Package bridge serves the task list operations over a line-delimited JSON
// protocol, one request object per input line and one response object per
// output line.
//
//	-> {"id": 1, "cmd": "add_todo", "args": {"text": "buy milk"}}
//	<- {"id": 1, "ok": true, "data": {"id": 1, "text": "buy milk", "completed": false}}
//
// Requests are handled concurrently, so responses follow completion order and
// callers must match them by id.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/app"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/parallel"
	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
)

const (
	// MaxScanTokenSize is the longest request line accepted.
	MaxScanTokenSize = 16 * 1024 * 1024

	// ScanBufferSize is the initial buffer size for the scanner.
	ScanBufferSize = 64 * 1024
)

// Error codes carried in Response.Code.
const (
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeParse      = "parse_error"
	CodeInternal   = "internal"
)

// Request is one input line.
type Request struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response is one output line.
type Response struct {
	ID    json.RawMessage `json:"id,omitempty"`
	OK    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// Operations is the surface the bridge dispatches to.
type Operations interface {
	LoadTodos() ([]todo.Task, error)
	SaveTodos(ctx context.Context, tasks []todo.Task) error
	AddTodo(ctx context.Context, text string) (todo.Task, error)
	ToggleTodo(ctx context.Context, id uint32) (todo.Task, error)
	DeleteTodo(ctx context.Context, id uint32) error
	GetTodos() []todo.Task
}

type textArgs struct {
	Text *string `json:"text"`
}

type idArgs struct {
	ID *uint32 `json:"id"`
}

type todosArgs struct {
	Todos json.RawMessage `json:"todos"`
}

// badRequestError marks malformed requests and arguments.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// Dispatcher maps requests onto Operations.
type Dispatcher struct {
	ops    Operations
	logger *log.Logger
}

// NewDispatcher returns a Dispatcher over ops. A nil logger discards output.
func NewDispatcher(ops Operations, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{ops: ops, logger: logger}
}

// Handle runs one request and never fails: every error becomes a
// Response with OK set to false.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	data, err := d.dispatch(ctx, req)
	if err != nil {
		d.logger.Debug("request failed", "cmd", req.Cmd, "err", err)
		return Response{ID: req.ID, Error: err.Error(), Code: errorCode(err)}
	}
	d.logger.Debug("request done", "cmd", req.Cmd)
	return Response{ID: req.ID, OK: true, Data: data}
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Cmd {
	case app.OpLoadTodos:
		return d.ops.LoadTodos()

	case app.OpGetTodos:
		return d.ops.GetTodos(), nil

	case app.OpAddTodo:
		var args textArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		if args.Text == nil {
			return nil, badRequest("%s: missing text", req.Cmd)
		}
		return d.ops.AddTodo(ctx, *args.Text)

	case app.OpToggleTodo:
		id, err := decodeID(req)
		if err != nil {
			return nil, err
		}
		return d.ops.ToggleTodo(ctx, id)

	case app.OpDeleteTodo:
		id, err := decodeID(req)
		if err != nil {
			return nil, err
		}
		return nil, d.ops.DeleteTodo(ctx, id)

	case app.OpSaveTodos:
		var args todosArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		if len(args.Todos) == 0 {
			return nil, badRequest("%s: missing todos", req.Cmd)
		}
		// Ids are not required to be distinct, as with any wholesale replace.
		tasks, err := todo.DecodeList(args.Todos, true)
		if err != nil {
			return nil, badRequest("%s: invalid todos: %v", req.Cmd, err)
		}
		return nil, d.ops.SaveTodos(ctx, tasks)

	case "":
		return nil, badRequest("missing cmd")

	default:
		return nil, badRequest("unknown cmd %q", req.Cmd)
	}
}

func decodeID(req Request) (uint32, error) {
	var args idArgs
	if err := decodeArgs(req.Args, &args); err != nil {
		return 0, err
	}
	if args.ID == nil {
		return 0, badRequest("%s: missing id", req.Cmd)
	}
	return *args.ID, nil
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("invalid args: %v", err)
	}
	return nil
}

func errorCode(err error) string {
	var bad *badRequestError
	var parse *storage.ParseError
	switch {
	case errors.As(err, &bad):
		return CodeBadRequest
	case errors.Is(err, todo.ErrNotFound):
		return CodeNotFound
	case errors.As(err, &parse):
		return CodeParse
	default:
		return CodeInternal
	}
}

// DefaultMaxInFlight bounds concurrent requests when no limit is given.
const DefaultMaxInFlight = 8

// ServeOption configures Serve.
type ServeOption func(*serveOptions)

type serveOptions struct {
	maxInFlight int
}

// WithMaxInFlight caps how many requests are handled at once. Zero or less
// removes the cap.
func WithMaxInFlight(n int) ServeOption {
	return func(o *serveOptions) {
		o.maxInFlight = n
	}
}

// Serve reads requests from r until EOF and writes responses to w. Requests
// run concurrently, up to the in-flight limit; reading pauses while the
// limit is reached. Serve returns once every started request has answered.
// A line that is not a JSON object gets an error response.
func Serve(ctx context.Context, d *Dispatcher, r io.Reader, w io.Writer, opts ...ServeOption) error {
	o := serveOptions{maxInFlight: DefaultMaxInFlight}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		mu  sync.Mutex
		enc = json.NewEncoder(w)
	)
	write := func(resp Response) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(resp); err != nil {
			d.logger.Error("write response failed", "err", err)
		}
	}

	pool := parallel.NewWorkerPool(ctx, o.maxInFlight, func(res parallel.Result) {
		d.logger.Debug("request done", "cmd", res.ID, "duration", res.Duration)
	})
	defer pool.Cancel()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, ScanBufferSize), MaxScanTokenSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			write(Response{Error: fmt.Sprintf("invalid request: %v", err), Code: CodeBadRequest})
			continue
		}

		if !pool.Submit(req.Cmd, func(ctx context.Context) error {
			write(d.Handle(ctx, req))
			return nil
		}) {
			break
		}
	}
	pool.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	return ctx.Err()
}
