package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nibzard/todo-go/internal/appdir"
)

// expandPath expands the home directory and environment variables in p.
// It supports ~/ or ~\ prefixes and %VAR% expansion on Windows.
// A leading ~ is kept as is when home is empty.
func expandPath(p, home string, lookup appdir.LookupFunc) string {
	if p == "" {
		return p
	}

	expanded := expandEnv(p, lookup, runtime.GOOS == "windows")
	if home == "" {
		return expanded
	}
	if expanded == "~" {
		return home
	}
	if strings.HasPrefix(expanded, "~/") || (runtime.GOOS == "windows" && strings.HasPrefix(expanded, "~\\")) {
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}

func expandEnv(p string, lookup appdir.LookupFunc, windows bool) string {
	expanded := os.Expand(p, func(key string) string {
		v, _ := lookup(key)
		return v
	})
	if !windows {
		return expanded
	}
	return expandWindowsEnv(expanded, lookup)
}

func expandWindowsEnv(p string, lookup appdir.LookupFunc) string {
	if !strings.Contains(p, "%") {
		return p
	}
	var b strings.Builder
	for i := 0; i < len(p); {
		if p[i] == '%' {
			end := strings.IndexByte(p[i+1:], '%')
			if end >= 0 {
				key := p[i+1 : i+1+end]
				if key == "" {
					b.WriteByte('%')
					i++
					continue
				}
				if val, ok := lookup(key); ok {
					b.WriteString(val)
				} else {
					b.WriteByte('%')
					b.WriteString(key)
					b.WriteByte('%')
				}
				i += end + 2
				continue
			}
		}
		b.WriteByte(p[i])
		i++
	}
	return b.String()
}
