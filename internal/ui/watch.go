package ui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces bursts of events, such as truncate then write.
const reloadDelay = 150 * time.Millisecond

type fileChangedMsg struct{}

type watchErrMsg struct {
	err error
}

type reloadMsg struct {
	gen int
}

// watcher reports changes to one file by watching its directory, so that
// editors replacing the file by rename are seen too.
type watcher struct {
	fs   *fsnotify.Watcher
	path string
}

func newWatcher(path string) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &watcher{fs: fw, path: filepath.Clean(path)}, nil
}

func (w *watcher) Close() error {
	return w.fs.Close()
}

// next waits for the next relevant event. It returns nil once the watcher
// is closed.
func (w *watcher) next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.fs.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					return fileChangedMsg{}
				}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func reloadAfter(gen int) tea.Cmd {
	return tea.Tick(reloadDelay, func(time.Time) tea.Msg {
		return reloadMsg{gen: gen}
	})
}
