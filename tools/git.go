package tools

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/m4xw311/gemini-agent/errors"
)

// ErrGitUnavailable means git is not installed or the directory is not a
// repository.
var ErrGitUnavailable = errors.Sentinel("git is unavailable or this is not a repository")

// Git runs version-control commands in Dir (the current directory when
// empty). Commit output is streamed to Stdout and Stderr when set.
type Git struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// ReadStagedDiff returns the diff of the index against HEAD. An empty string
// means nothing is staged.
func (g *Git) ReadStagedDiff(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", errors.Wrapf(ErrGitUnavailable, "git not found in PATH")
	}
	cmd := exec.CommandContext(ctx, "git", "diff", "--staged")
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrapf(ErrGitUnavailable, "git diff --staged: %s", strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Commit records the index with message. The message is a single argv
// element and never passes through a shell. A failing commit returns the
// exit code along with the error.
func (g *Git) Commit(ctx context.Context, message string) (int, error) {
	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = g.Dir
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), errors.Wrapf(err, "git commit failed")
	}
	return -1, errors.Wrapf(ErrGitUnavailable, "git commit: %v", err)
}
