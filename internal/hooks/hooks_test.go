package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell hook scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "hook.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInvoke(t *testing.T) {
	t.Run("empty command is a no-op", func(t *testing.T) {
		result, err := Invoke(context.Background(), Options{TodoPath: "/tmp/todos.json"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Ran {
			t.Error("expected Ran to be false")
		}
	})

	t.Run("empty todo path is an error", func(t *testing.T) {
		result, err := Invoke(context.Background(), Options{Command: "true"})
		if err == nil {
			t.Fatal("expected error for empty todo path")
		}
		if result.Ran {
			t.Error("expected Ran to be false")
		}
	})
}

func TestInvokePassesArguments(t *testing.T) {
	script := writeScript(t, `echo "$1|$2|$3"`)

	var stdout bytes.Buffer
	result, err := Invoke(context.Background(), Options{
		Command:   script,
		Operation: "add_todo",
		TodoPath:  "/data/todos.json",
		Count:     2,
		Stdout:    &stdout,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Ran {
		t.Error("expected Ran to be true")
	}
	if result.ExitCode != 0 {
		t.Errorf("expected ExitCode 0, got %d", result.ExitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "add_todo|/data/todos.json|2" {
		t.Errorf("hook saw args %q", got)
	}
	if len(result.Command) != 4 {
		t.Errorf("expected 4 command args, got %v", result.Command)
	}
}

func TestInvokeHookFailure(t *testing.T) {
	script := writeScript(t, "exit 3")

	result, err := Invoke(context.Background(), Options{
		Command:   script,
		Operation: "delete_todo",
		TodoPath:  "/data/todos.json",
		Stderr:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for failing hook")
	}
	if !strings.Contains(err.Error(), "hook command failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if !result.Ran {
		t.Error("expected Ran to be true")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected ExitCode 3, got %d", result.ExitCode)
	}
}

func TestInvokeMissingBinary(t *testing.T) {
	result, err := Invoke(context.Background(), Options{
		Command:  filepath.Join(t.TempDir(), "does-not-exist"),
		TodoPath: "/data/todos.json",
	})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if result.ExitCode != -1 {
		t.Errorf("expected ExitCode -1, got %d", result.ExitCode)
	}
}

func TestInvokeWorkDir(t *testing.T) {
	script := writeScript(t, "pwd")
	workDir := t.TempDir()

	var stdout bytes.Buffer
	if _, err := Invoke(context.Background(), Options{
		Command:  script,
		TodoPath: "/data/todos.json",
		WorkDir:  workDir,
		Stdout:   &stdout,
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	want, _ := filepath.EvalSymlinks(workDir)
	if got != want {
		t.Errorf("hook ran in %q, want %q", got, want)
	}
}
