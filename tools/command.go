package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/errors"
	"go.uber.org/zap"
)

// CommandResult is what an accepted command produced. ExitCode is non-zero
// when the process failed; Dir is set after an in-process directory change.
type CommandResult struct {
	Command  string
	Output   string
	ExitCode int
	Dir      string
}

// CommandRunner runs accepted commands through the platform shell, streaming
// output to the console as it arrives.
type CommandRunner struct {
	shell  []string
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// NewCommandRunner uses shell (e.g. "bash -lc") when set, otherwise "sh -c"
// or "cmd /C" on Windows.
func NewCommandRunner(shell string, stdout, stderr io.Writer, logger *zap.Logger) *CommandRunner {
	argv := strings.Fields(shell)
	if len(argv) == 0 {
		argv = defaultShell()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &CommandRunner{shell: argv, stdout: stdout, stderr: stderr, logger: logger}
}

func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// Run executes cmd. A "cd" is applied to this process so later file
// resolution sees the new directory. A command that exits non-zero is not
// an error; its code is in the result. Once started the child is not tied to
// ctx and runs to completion.
func (r *CommandRunner) Run(ctx context.Context, cmd directive.Command) (CommandResult, error) {
	res := CommandResult{Command: cmd.Command}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if target, ok := parseChdir(cmd.Command); ok {
		dir, err := changeDir(target)
		if err != nil {
			r.logger.Warn("chdir failed", zap.String("command", cmd.Command), zap.Error(err))
			return res, err
		}
		res.Dir = dir
		r.logger.Info("directory changed", zap.String("dir", dir))
		return res, nil
	}

	args := append(append([]string{}, r.shell[1:]...), cmd.Command)
	c := exec.Command(r.shell[0], args...)
	var buf syncBuffer
	c.Stdout = io.MultiWriter(&buf, r.stdout)
	c.Stderr = io.MultiWriter(&buf, r.stderr)

	err := c.Run()
	res.Output = buf.String()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.logger.Info("command exited", zap.String("command", cmd.Command), zap.Int("exit_code", res.ExitCode))
			return res, nil
		}
		return res, errors.Wrapf(err, "failed to start command '%s'", cmd.Command)
	}
	r.logger.Info("command exited", zap.String("command", cmd.Command), zap.Int("exit_code", 0))
	return res, nil
}

// parseChdir recognizes "cd" and "cd <dir>" and returns the target with
// surrounding quotes removed. Compound commands like "cd x && make" go to the
// shell.
func parseChdir(command string) (string, bool) {
	command = strings.TrimSpace(command)
	if command == "cd" {
		return "", true
	}
	if !strings.HasPrefix(command, "cd ") {
		return "", false
	}
	target := strings.TrimSpace(strings.TrimPrefix(command, "cd "))
	if strings.ContainsAny(target, "&|;") {
		return "", false
	}
	return strings.Trim(target, `"'`), true
}

func changeDir(target string) (string, error) {
	home, _ := os.UserHomeDir()
	switch {
	case target == "" || target == "~":
		target = home
	case strings.HasPrefix(target, "~/") || strings.HasPrefix(target, `~\`):
		target = filepath.Join(home, target[2:])
	}
	if target == "" {
		return "", errors.User("cannot change directory: home directory is unknown", nil)
	}
	if err := os.Chdir(target); err != nil {
		reason := err
		var pe *os.PathError
		if errors.As(err, &pe) {
			reason = pe.Err
		}
		return "", errors.User(fmt.Sprintf("cannot change directory to %s: %v", target, reason), err)
	}
	return os.Getwd()
}
