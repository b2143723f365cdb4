// Package workspace finds files referenced by the operator and turns @name
// tokens into inline file contents for the next generation request.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/gemini-agent/errors"
)

var ErrNotFound = errors.Sentinel("file not found")

// Resolver searches a directory tree for a file by base name.
type Resolver struct {
	ignore []string
}

// NewResolver returns a resolver that never descends into directories whose
// base name matches one of the ignore entries. Entries are plain names or
// doublestar patterns such as "*.egg-info".
func NewResolver(ignore []string) *Resolver {
	return &Resolver{ignore: ignore}
}

// Resolve returns the absolute path of the best match for filename under root.
//
// Files directly in a directory win over anything below it; subdirectories
// are then searched depth-first in listing order and the first hit is
// returned. Unreadable directories count as empty.
func (r *Resolver) Resolve(root, filename string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(err, "resolving root %s", root)
	}
	if found, ok := r.find(abs, filename); ok {
		return found, nil
	}
	return "", errors.Wrapf(ErrNotFound, "%s under %s", filename, abs)
}

func (r *Resolver) find(dir, filename string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() == filename {
			return filepath.Join(dir, e.Name()), true
		}
	}

	for _, e := range entries {
		if !e.IsDir() || r.Ignored(e.Name()) {
			continue
		}
		if found, ok := r.find(filepath.Join(dir, e.Name()), filename); ok {
			return found, true
		}
	}
	return "", false
}

// Ignored reports whether a directory with this base name is skipped.
func (r *Resolver) Ignored(name string) bool {
	for _, pattern := range r.ignore {
		if pattern == name {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
