package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockConfig = `backends:
  - provider: mock
    model: m
`

// sandbox isolates HOME and the working directory so no real configuration
// or credentials leak into the test.
func sandbox(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(dir)
	if configYAML != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, config.DirName), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DirName, "config.yaml"), []byte(configYAML), 0o644))
	}
	return dir
}

func newApp(stdin string, terminal bool) (*app, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &app{
		stdin:         strings.NewReader(stdin),
		stdout:        &out,
		stderr:        &errOut,
		stdinTerminal: terminal,
	}, &out, &errOut
}

func TestPipeModeAnalyzesInput(t *testing.T) {
	sandbox(t, mockConfig)
	a, out, errOut := newApp("panic: boom\n", false)

	code := a.run(context.Background(), []string{"explique", "o", "erro"})
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "I am a mock model (m)")
	assert.Contains(t, out.String(), "=== DADOS ===\npanic: boom")
	assert.Contains(t, out.String(), "Instrução: explique o erro")
}

func TestPipeModeEmptyInput(t *testing.T) {
	sandbox(t, mockConfig)
	a, _, errOut := newApp("  \n", false)

	assert.Equal(t, 1, a.run(context.Background(), nil))
	assert.Contains(t, errOut.String(), "no data on standard input")
}

func TestMissingCredentialFailsBeforeGeneration(t *testing.T) {
	sandbox(t, "")
	a, out, errOut := newApp("some log", false)

	assert.Equal(t, 1, a.run(context.Background(), nil))
	assert.Contains(t, errOut.String(), "GEMINI_API_KEY")
	assert.Empty(t, out.String())
}

func TestChatRunsInitialPromptThenExits(t *testing.T) {
	sandbox(t, mockConfig)
	a, out, errOut := newApp("sair\n", true)

	code := a.run(context.Background(), []string{"ola"})
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "User: ola")
	assert.Contains(t, out.String(), "Bye.")
}

func TestChatRejectsUnsupportedImage(t *testing.T) {
	dir := sandbox(t, mockConfig)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	a, _, errOut := newApp("", true)

	assert.Equal(t, 1, a.run(context.Background(), []string{"--img", "notes.txt", "veja"}))
	assert.Contains(t, errOut.String(), "unsupported image type .txt")
}

func TestCommitArguments(t *testing.T) {
	sandbox(t, mockConfig)
	for _, args := range [][]string{{"commit", "work"}, {"commit", "job", "1"}, {"commit", "work", " "}} {
		a, _, errOut := newApp("", true)
		assert.Equal(t, 1, a.run(context.Background(), args), args)
		assert.Contains(t, errOut.String(), "usage: gemini commit [work <id>]")
	}
}

func TestModelsRequiresKey(t *testing.T) {
	sandbox(t, "")
	a, _, errOut := newApp("", true)

	assert.Equal(t, 1, a.run(context.Background(), []string{"models"}))
	assert.Contains(t, errOut.String(), "GEMINI_API_KEY is not set")
}

func TestDebugShowsErrorCause(t *testing.T) {
	dir := sandbox(t, mockConfig)
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	a, _, errOut := newApp("", true)
	assert.Equal(t, 1, a.run(context.Background(), []string{"commit"}))
	assert.Contains(t, errOut.String(), "Error: git not found or this is not a repository")
	assert.NotContains(t, errOut.String(), "cause:")

	a, _, errOut = newApp("", true)
	assert.Equal(t, 1, a.run(context.Background(), []string{"--debug", "commit"}))
	assert.Contains(t, errOut.String(), "cause:")
	assert.Contains(t, errOut.String(), "git is unavailable or this is not a repository")
}

func TestLogFileRecordsServingBackend(t *testing.T) {
	dir := sandbox(t, mockConfig)
	logPath := filepath.Join(dir, "agent.log")
	a, _, errOut := newApp("quit\n", true)

	code := a.run(context.Background(), []string{"--log-file", logPath, "oi"})
	require.Equal(t, 0, code, errOut.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_backend":"mock/m"`)
}
