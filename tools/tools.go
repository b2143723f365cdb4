// Package tools applies accepted directives: file writes, shell commands and
// git commits. Nothing here asks for confirmation; callers invoke the
// executors only after the operator accepted a batch.
package tools

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// syncBuffer accumulates output written concurrently by a child's stdout and
// stderr copiers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
