package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)

	writeFile(t, filepath.Join(home, DirName, "config.yaml"), `
backends:
  - provider: gemini
    model: user-model
audit:
  approval_marker: "[OK]"
`)
	writeFile(t, filepath.Join(project, DirName, "config.yaml"), `
backends:
  - provider: anthropic
    model: project-model
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, "project-model", cfg.Backends[0].Model)
	assert.Equal(t, "[OK]", cfg.Audit.ApprovalMarker)
	// Untouched sections keep their defaults.
	assert.Equal(t, 500000, cfg.Resolver.MaxFileChars)
	assert.Contains(t, cfg.Resolver.IgnoreDirs, "node_modules")
}

func TestLoadConfigRejectsEmptyBackends(t *testing.T) {
	project := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(project)
	writeFile(t, filepath.Join(project, DirName, "config.yaml"), "backends: []\n")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestDefaultBackendsOrder(t *testing.T) {
	cfg := Default()
	var models []string
	for _, b := range cfg.Backends {
		models = append(models, b.Model)
	}
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash-001", "gemini-pro-latest"}, models)
	assert.Equal(t, []string{"gemini"}, cfg.Providers())
}

func TestValidateCredentials(t *testing.T) {
	cfg := Default()
	err := cfg.Validate(Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	require.NoError(t, cfg.Validate(Credentials{GeminiAPIKey: "k"}))

	cfg.Backends = append(cfg.Backends, Backend{Provider: "nope", Model: "x"})
	require.Error(t, cfg.Validate(Credentials{GeminiAPIKey: "k"}))
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "") // restored after the test
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("OPENAI_API_KEY", "from-shell")

	writeFile(t, filepath.Join(dir, ".env"), "GEMINI_API_KEY=local\nOPENAI_API_KEY=from-file\n")
	writeFile(t, filepath.Join(home, GlobalEnvFile), "GEMINI_API_KEY=global\nANTHROPIC_API_KEY=global-anthropic\n")

	loaded := LoadEnvFiles(dir)
	assert.Len(t, loaded, 2)

	creds := CredentialsFromEnv()
	assert.Equal(t, "local", creds.GeminiAPIKey)
	assert.Equal(t, "from-shell", creds.OpenAIAPIKey)
	assert.Equal(t, "global-anthropic", creds.AnthropicAPIKey)
}
