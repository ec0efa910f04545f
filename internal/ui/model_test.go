package ui

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/nibzard/todo-go/internal/app"
	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
)

func newTestModel(t *testing.T, seed []todo.Task) (*model, afero.Fs, *storage.Gateway) {
	t.Helper()
	fs := afero.NewMemMapFs()
	gw, err := storage.Open(fs, "/home/tester/.todotauriapp")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if seed != nil {
		if err := gw.Save(seed); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	m := newModel(context.Background(), app.New(todo.NewStore(), gw))
	m.Init()
	return m, fs, gw
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModelLoadsOnInit(t *testing.T) {
	m, _, _ := newTestModel(t, []todo.Task{{ID: 1, Text: "buy milk"}, {ID: 2, Text: "walk dog", Completed: true}})

	if len(m.tasks) != 2 {
		t.Fatalf("tasks = %+v", m.tasks)
	}
	view := m.View()
	for _, want := range []string{"buy milk", "[ ]", "[x]", "1 pending, 1 done"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelEmptyView(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	if !strings.Contains(m.View(), "Nothing to do") {
		t.Errorf("empty view:\n%s", m.View())
	}
}

func TestModelToggleAndDelete(t *testing.T) {
	m, fs, gw := newTestModel(t, []todo.Task{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}})

	send(m, key("down"), key("enter"))
	if !m.tasks[1].Completed || m.tasks[0].Completed {
		t.Fatalf("toggle hit the wrong task: %+v", m.tasks)
	}

	send(m, key("up"), key("d"))
	if len(m.tasks) != 1 || m.tasks[0].ID != 2 {
		t.Fatalf("delete hit the wrong task: %+v", m.tasks)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	data, err := afero.ReadFile(fs, gw.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"text": "a"`) || !strings.Contains(string(data), `"completed": true`) {
		t.Errorf("file not updated: %s", data)
	}
}

func TestModelCursorBounds(t *testing.T) {
	m, _, _ := newTestModel(t, []todo.Task{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}})

	send(m, key("up"), key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after moving above the top", m.cursor)
	}
	send(m, key("j"), key("j"), key("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after moving below the bottom", m.cursor)
	}

	send(m, key("d"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after deleting the last row", m.cursor)
	}
}

func TestModelAdd(t *testing.T) {
	m, _, _ := newTestModel(t, []todo.Task{{ID: 4, Text: "old"}})

	send(m, key("a"))
	if !m.adding {
		t.Fatal("a should open the input")
	}
	// Keys go to the input while adding.
	send(m, key("q"), key("d"), key("x"))
	if m.input.Value() != "qdx" {
		t.Fatalf("input = %q", m.input.Value())
	}
	send(m, key("enter"))

	if m.adding {
		t.Error("enter should close the input")
	}
	if len(m.tasks) != 2 || m.tasks[1] != (todo.Task{ID: 5, Text: "qdx"}) {
		t.Fatalf("tasks = %+v", m.tasks)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want the new task", m.cursor)
	}
	if !strings.Contains(m.View(), "added #5") {
		t.Errorf("view should report the new task:\n%s", m.View())
	}
}

func TestModelAddCancelAndBlank(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	send(m, key("a"), key("nope"), key("esc"))
	if m.adding || len(m.tasks) != 0 {
		t.Errorf("esc should cancel: adding=%v tasks=%+v", m.adding, m.tasks)
	}

	send(m, key("a"), key("   "), key("enter"))
	if len(m.tasks) != 0 {
		t.Errorf("blank text should not add: %+v", m.tasks)
	}
}

func TestModelQuit(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	cmd := send(m, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelReloadShowsParseError(t *testing.T) {
	m, fs, gw := newTestModel(t, []todo.Task{{ID: 1, Text: "kept"}})

	if err := afero.WriteFile(fs, gw.Path(), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	send(m, key("r"))

	if m.err == nil {
		t.Fatal("reload of a corrupt file should report an error")
	}
	if len(m.tasks) != 1 || m.tasks[0].Text != "kept" {
		t.Errorf("memory should be kept: %+v", m.tasks)
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("view should show the error:\n%s", m.View())
	}
}

func TestModelDebouncedReload(t *testing.T) {
	m, _, gw := newTestModel(t, nil)

	if err := gw.Save([]todo.Task{{ID: 3, Text: "external"}}); err != nil {
		t.Fatal(err)
	}
	send(m, fileChangedMsg{}, fileChangedMsg{})
	if m.gen != 2 {
		t.Fatalf("gen = %d, want 2", m.gen)
	}

	send(m, reloadMsg{gen: 1})
	if len(m.tasks) != 0 {
		t.Errorf("stale reload should be ignored: %+v", m.tasks)
	}
	send(m, reloadMsg{gen: 2})
	if len(m.tasks) != 1 || m.tasks[0].Text != "external" {
		t.Errorf("latest reload should load the file: %+v", m.tasks)
	}
}

func TestWatcherReportsTodoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todos.json")

	w, err := newWatcher(path)
	if err != nil {
		t.Fatalf("newWatcher failed: %v", err)
	}
	defer w.Close()

	msgs := make(chan tea.Msg, 1)
	go func() {
		msgs <- w.next()()
	}()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-msgs:
		if _, ok := msg.(fileChangedMsg); !ok {
			t.Errorf("msg = %#v, want fileChangedMsg", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the todo file")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("a buffer is not a TTY")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTTY(f) {
		t.Error("a regular file is not a TTY")
	}
}
