package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/errors"
	"go.uber.org/zap"
)

// WriteResult is the outcome of one file write. Err is nil on success.
type WriteResult struct {
	Name  string
	Path  string
	Bytes int
	Err   error
}

// FileWriter writes accepted file directives below a root directory.
type FileWriter struct {
	readOnly []string
	logger   *zap.Logger
}

func NewFileWriter(access config.FilesystemAccess, logger *zap.Logger) *FileWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{readOnly: access.ReadOnly, logger: logger}
}

// Write applies every directive in order. A failing item is reported in its
// result and does not stop the remaining ones.
func (w *FileWriter) Write(root string, files []directive.FileWrite) []WriteResult {
	results := make([]WriteResult, 0, len(files))
	for _, f := range files {
		path, err := w.writeOne(root, f)
		r := WriteResult{Name: f.Name, Path: path, Err: err}
		if err == nil {
			r.Bytes = len(f.Content)
			w.logger.Info("file written", zap.String("file", path), zap.Int("bytes", r.Bytes))
		} else {
			w.logger.Warn("file write failed", zap.String("file", f.Name), zap.Error(err))
		}
		results = append(results, r)
	}
	return results
}

func (w *FileWriter) writeOne(root string, f directive.FileWrite) (string, error) {
	rel, err := safeRelPath(f.Name)
	if err != nil {
		return "", err
	}

	readOnly, err := isPathRestricted(filepath.ToSlash(rel), w.readOnly)
	if err != nil {
		return "", err
	}
	if readOnly {
		return "", errors.New("access denied: path '%s' is read-only", f.Name)
	}

	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, errors.Wrapf(err, "failed to create directory for '%s'", f.Name)
	}
	if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
		return path, errors.Wrapf(err, "failed to write to file '%s'", f.Name)
	}
	return path, nil
}

// safeRelPath keeps a proposed name inside the working directory.
func safeRelPath(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty file name")
	}
	native := filepath.FromSlash(name)
	if filepath.IsAbs(native) || filepath.VolumeName(native) != "" || strings.HasPrefix(name, "/") {
		return "", errors.New("refusing absolute path '%s'", name)
	}
	clean := filepath.Clean(native)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.New("refusing path '%s' outside the working directory", name)
	}
	return clean, nil
}
