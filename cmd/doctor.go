package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/nibzard/todo-go/internal/storage"
	"github.com/nibzard/todo-go/internal/todo"
)

// doctorCommand reports on the home directory, data directory, todo file
// and hook, and fails when any of them is unusable.
func doctorCommand(e *env, args []string) error {
	fs := newFlagSet(e, "doctor")
	verbose := fs.Bool("v", false, "Verbose output")
	schemaPath := fs.String("schema", "", "Validate against this JSON schema instead of the built-in one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	w := e.io.Out
	cfg := e.cfg

	fmt.Fprintln(w, "Todo Doctor")
	fmt.Fprintln(w, "===========")
	fmt.Fprintln(w)

	allOK := true

	// Check home
	if cfg.Home == "" {
		fmt.Fprintln(w, "Home: (not set)")
		fmt.Fprintln(w, "  ⚠️  HOME and USERPROFILE are empty; using the configured data directory")
	} else {
		fmt.Fprintf(w, "Home: %s\n", cfg.Home)
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Check config file
	if cfg.ConfigFile == "" {
		fmt.Fprintln(w, "Config file: (none, using defaults)")
	} else {
		fmt.Fprintf(w, "Config file: %s\n", cfg.ConfigFile)
		for _, warning := range e.cws.Warnings {
			fmt.Fprintf(w, "  ⚠️  %s\n", warning)
		}
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Check data directory
	if err := cfg.RequireDataDir(); err != nil {
		fmt.Fprintln(w, "Data directory: (unresolved)")
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		fmt.Fprintln(w)
		allOK = false
	} else {
		fsys := afero.NewOsFs()
		fmt.Fprintf(w, "Data directory: %s\n", cfg.DataDir)
		if info, err := fsys.Stat(cfg.DataDir); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(w, "  ⚠️  Not found (created on first use)")
			} else {
				fmt.Fprintf(w, "  ❌ Error: %v\n", err)
				allOK = false
			}
		} else if !info.IsDir() {
			fmt.Fprintln(w, "  ❌ Error: path is not a directory")
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)

		// Check todo file
		gw := storage.New(fsys, cfg.DataDir, storage.WithStrictLoad(cfg.StrictLoad))
		fmt.Fprintf(w, "Todo file: %s\n", gw.Path())
		if !checkTodoFile(w, gw, *schemaPath, *verbose) {
			allOK = false
		}
		fmt.Fprintln(w)
	}

	// Check hook
	if cfg.HookCommand != "" || *verbose {
		fmt.Fprintln(w, "Hook:")
		_ = checkBinary(w, "hook_command", cfg.HookCommand, false)
		fmt.Fprintln(w)
	}

	// Overall status
	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. todo may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// checkTodoFile reads the file through the same gateway load uses, so a
// file doctor accepts is one load accepts.
func checkTodoFile(w io.Writer, gw *storage.Gateway, schemaPath string, verbose bool) bool {
	data, found, err := gw.ReadRaw()
	if err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	}
	if !found {
		fmt.Fprintln(w, "  ⚠️  Not found (the list starts empty)")
		return true
	}
	fmt.Fprintln(w, "  ✅ OK")

	result := todo.Validate(data, todo.ValidationOptions{SchemaPath: schemaPath})
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		return false
	}
	fmt.Fprintln(w, "  ✅ Valid")

	tasks, err := gw.Decode(data)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Load would fail: %v\n", err)
		return false
	}
	if verbose {
		done, pending := todo.Counts(tasks)
		fmt.Fprintf(w, "  Tasks: %d (%d pending, %d done)\n", len(tasks), pending, done)
		for _, t := range tasks {
			printTask(w, t)
		}
	}
	return true
}

func checkBinary(w io.Writer, label, binary string, required bool) bool {
	fmt.Fprintf(w, "  %s: %s\n", label, binary)
	if strings.TrimSpace(binary) == "" {
		if required {
			fmt.Fprintln(w, "  ❌ Not configured")
			return false
		}
		fmt.Fprintln(w, "  ⚠️  Not configured")
		return true
	}
	if info, err := os.Stat(binary); err == nil {
		if info.IsDir() {
			return report(w, required, "Path is a directory")
		}
		if !isExecutablePath(binary, info) {
			return report(w, required, "Not executable")
		}
		fmt.Fprintln(w, "  ✅ OK")
		return true
	}

	resolved, err := exec.LookPath(binary)
	if err == nil {
		if info, err := os.Stat(resolved); err == nil {
			if info.IsDir() {
				return report(w, required, "Found in PATH but is a directory: "+resolved)
			}
			if !isExecutablePath(resolved, info) {
				return report(w, required, "Found in PATH but not executable: "+resolved)
			}
		}
		fmt.Fprintf(w, "  ✅ OK (found in PATH: %s)\n", resolved)
		return true
	}

	return report(w, required, fmt.Sprintf("Not found: %v", err))
}

// report prints a failed check as an error when required, else as a warning.
func report(w io.Writer, required bool, msg string) bool {
	if required {
		fmt.Fprintf(w, "  ❌ %s\n", msg)
		return false
	}
	fmt.Fprintf(w, "  ⚠️  %s\n", msg)
	return true
}

func isExecutablePath(path string, info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return isWindowsExecutable(path)
	}
	return info.Mode().Perm()&0111 != 0
}

func isWindowsExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return windowsExecutableExts()[ext]
}

func windowsExecutableExts() map[string]bool {
	exts := map[string]bool{}
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}
	for _, ext := range strings.Split(pathext, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}
	return exts
}
