package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/nibzard/todo-go/internal/app"
	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *app.App, afero.Fs, *storage.Gateway) {
	t.Helper()
	fs := afero.NewMemMapFs()
	gw, err := storage.Open(fs, "/home/tester/.todotauriapp")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	a := app.New(todo.NewStore(), gw)
	return NewDispatcher(a, nil), a, fs, gw
}

func request(t *testing.T, line string) Request {
	t.Helper()
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.Fatalf("bad test request %s: %v", line, err)
	}
	return req
}

func TestHandleErrors(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		line     string
		wantCode string
		wantMsg  string
	}{
		{"unknown cmd", `{"id": 1, "cmd": "purge"}`, CodeBadRequest, `unknown cmd "purge"`},
		{"missing cmd", `{"id": 2}`, CodeBadRequest, "missing cmd"},
		{"add without text", `{"cmd": "add_todo", "args": {}}`, CodeBadRequest, "missing text"},
		{"toggle without id", `{"cmd": "toggle_todo"}`, CodeBadRequest, "missing id"},
		{"negative id", `{"cmd": "delete_todo", "args": {"id": -1}}`, CodeBadRequest, "invalid args"},
		{"string id", `{"cmd": "toggle_todo", "args": {"id": "1"}}`, CodeBadRequest, "invalid args"},
		{"args not an object", `{"cmd": "add_todo", "args": [1]}`, CodeBadRequest, "invalid args"},
		{"save without todos", `{"cmd": "save_todos", "args": {}}`, CodeBadRequest, "missing todos"},
		{"save null todos", `{"cmd": "save_todos", "args": {"todos": null}}`, CodeBadRequest, "invalid todos"},
		{"save incomplete todos", `{"cmd": "save_todos", "args": {"todos": [{"id": 7}]}}`, CodeBadRequest, "invalid todos"},
		{"toggle unknown id", `{"cmd": "toggle_todo", "args": {"id": 9}}`, CodeNotFound, "todo 9 not found"},
		{"delete unknown id", `{"cmd": "delete_todo", "args": {"id": 9}}`, CodeNotFound, "todo 9 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Handle(ctx, request(t, tt.line))
			if resp.OK {
				t.Fatalf("expected failure, got %+v", resp)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", resp.Code, tt.wantCode)
			}
			if !strings.Contains(resp.Error, tt.wantMsg) {
				t.Errorf("Error = %q, want it to contain %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestHandleEchoesID(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)
	for _, id := range []string{`7`, `"abc"`, `{"n": 1}`} {
		resp := d.Handle(context.Background(), request(t, `{"id": `+id+`, "cmd": "get_todos"}`))
		if string(resp.ID) != id {
			t.Errorf("ID = %s, want %s", resp.ID, id)
		}
	}
}

func TestHandleOperations(t *testing.T) {
	d, a, fs, gw := newTestDispatcher(t)
	ctx := context.Background()

	resp := d.Handle(ctx, request(t, `{"cmd": "load_todos"}`))
	if !resp.OK {
		t.Fatalf("load_todos failed: %s", resp.Error)
	}
	if tasks, ok := resp.Data.([]todo.Task); !ok || len(tasks) != 0 {
		t.Errorf("load_todos data = %#v, want empty list", resp.Data)
	}

	resp = d.Handle(ctx, request(t, `{"cmd": "add_todo", "args": {"text": "buy milk"}}`))
	if !resp.OK || resp.Data != (todo.Task{ID: 1, Text: "buy milk"}) {
		t.Fatalf("add_todo = %+v", resp)
	}

	resp = d.Handle(ctx, request(t, `{"cmd": "toggle_todo", "args": {"id": 1}}`))
	if !resp.OK || resp.Data != (todo.Task{ID: 1, Text: "buy milk", Completed: true}) {
		t.Fatalf("toggle_todo = %+v", resp)
	}

	resp = d.Handle(ctx, request(t, `{"cmd": "save_todos", "args": {"todos": [{"id": 4, "text": "x", "completed": false}, {"id": 2, "text": "y", "completed": true}]}}`))
	if !resp.OK || resp.Data != nil {
		t.Fatalf("save_todos = %+v", resp)
	}

	resp = d.Handle(ctx, request(t, `{"cmd": "delete_todo", "args": {"id": 4}}`))
	if !resp.OK {
		t.Fatalf("delete_todo failed: %s", resp.Error)
	}

	resp = d.Handle(ctx, request(t, `{"cmd": "get_todos"}`))
	want := []todo.Task{{ID: 2, Text: "y", Completed: true}}
	got, ok := resp.Data.([]todo.Task)
	if !ok || len(got) != 1 || got[0] != want[0] {
		t.Errorf("get_todos = %#v, want %+v", resp.Data, want)
	}
	if len(a.GetTodos()) != 1 {
		t.Errorf("app holds %d tasks", len(a.GetTodos()))
	}

	data, err := afero.ReadFile(fs, gw.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), `"text": "y"`) || strings.Contains(string(data), `"text": "x"`) {
		t.Errorf("file content: %s", data)
	}
}

func TestHandleParseError(t *testing.T) {
	d, _, fs, gw := newTestDispatcher(t)
	if err := afero.WriteFile(fs, gw.Path(), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := d.Handle(context.Background(), request(t, `{"cmd": "load_todos"}`))
	if resp.OK || resp.Code != CodeParse {
		t.Errorf("load_todos on corrupt file = %+v, want %s", resp, CodeParse)
	}
}

func TestServe(t *testing.T) {
	d, a, _, _ := newTestDispatcher(t)

	var in strings.Builder
	// get_todos only reads memory; load_todos would race with the writes.
	in.WriteString(`{"id": "get", "cmd": "get_todos"}` + "\n")
	in.WriteString("\n")
	in.WriteString("not json\n")
	const n = 10
	for i := 0; i < n; i++ {
		fmt.Fprintf(&in, `{"id": %d, "cmd": "add_todo", "args": {"text": "task %d"}}`+"\n", i, i)
	}

	var out strings.Builder
	if err := Serve(context.Background(), d, strings.NewReader(in.String()), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var responses []Response
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("response line is not JSON: %q", scanner.Text())
		}
		responses = append(responses, resp)
	}

	// One response per non-blank line.
	if len(responses) != n+2 {
		t.Fatalf("got %d responses, want %d:\n%s", len(responses), n+2, out.String())
	}

	okCount, badCount := 0, 0
	for _, resp := range responses {
		if resp.OK {
			okCount++
			continue
		}
		badCount++
		if resp.Code != CodeBadRequest || len(resp.ID) != 0 {
			t.Errorf("unexpected failure %+v", resp)
		}
	}
	if okCount != n+1 || badCount != 1 {
		t.Errorf("ok = %d, bad = %d", okCount, badCount)
	}

	tasks := a.GetTodos()
	if len(tasks) != n {
		t.Fatalf("app holds %d tasks, want %d", len(tasks), n)
	}
	seen := make(map[uint32]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestServeCancelled(t *testing.T) {
	d, a, _, _ := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := Serve(ctx, d, strings.NewReader(`{"cmd": "add_todo", "args": {"text": "x"}}`+"\n"), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Serve error = %v, want context.Canceled", err)
	}
	if len(a.GetTodos()) != 0 {
		t.Errorf("cancelled Serve should not run requests")
	}
}

func TestServeSequential(t *testing.T) {
	d, _, fs, gw := newTestDispatcher(t)

	in := strings.Join([]string{
		`{"id": 1, "cmd": "add_todo", "args": {"text": "a"}}`,
		`{"id": 2, "cmd": "add_todo", "args": {"text": "b"}}`,
		`{"id": 3, "cmd": "toggle_todo", "args": {"id": 1}}`,
		`{"id": 4, "cmd": "delete_todo", "args": {"id": 2}}`,
		`{"id": 5, "cmd": "load_todos"}`,
		`{"id": 6, "cmd": "delete_todo", "args": {"id": 2}}`,
	}, "\n") + "\n"

	var out strings.Builder
	if err := Serve(context.Background(), d, strings.NewReader(in), &out, WithMaxInFlight(1)); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d responses, want 6:\n%s", len(lines), out.String())
	}
	for i, line := range lines {
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response line is not JSON: %q", line)
		}
		if want := fmt.Sprint(i + 1); string(resp.ID) != want {
			t.Errorf("response %d has id %s, want %s", i, resp.ID, want)
		}
		if i < 5 && !resp.OK {
			t.Errorf("response %d failed: %+v", i, resp)
		}
	}

	var last Response
	_ = json.Unmarshal([]byte(lines[5]), &last)
	if last.OK || last.Code != CodeNotFound {
		t.Errorf("second delete = %+v, want %s", last, CodeNotFound)
	}

	data, err := afero.ReadFile(fs, gw.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var stored []todo.Task
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("stored file is not a list: %v", err)
	}
	if len(stored) != 1 || stored[0] != (todo.Task{ID: 1, Text: "a", Completed: true}) {
		t.Errorf("stored = %+v", stored)
	}
}
