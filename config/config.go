package config

import (
	"os"
	"path/filepath"

	"github.com/m4xw311/gemini-agent/errors"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user and per-project configuration directory.
const DirName = ".gemini-agent"

// Backend is one candidate in the generation fallback order.
type Backend struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Transient describes which backend failures are worth retrying on the next
// candidate.
type Transient struct {
	StatusCodes []int    `yaml:"status_codes"`
	Markers     []string `yaml:"markers"`
}

type Resolver struct {
	IgnoreDirs   []string `yaml:"ignore_dirs"`
	MaxFileChars int      `yaml:"max_file_chars"`
}

type Risk struct {
	Keywords      []string `yaml:"keywords"`
	RedirectChars string   `yaml:"redirect_chars"`
}

type Audit struct {
	ApprovalMarker string `yaml:"approval_marker"`
}

type Attachments struct {
	Extensions []string `yaml:"extensions"`
	MaxBytes   int64    `yaml:"max_bytes"`
}

// FilesystemAccess lists glob patterns the file-write executor refuses to touch.
type FilesystemAccess struct {
	ReadOnly []string `yaml:"read_only"`
}

type Config struct {
	Backends         []Backend        `yaml:"backends"`
	Transient        Transient        `yaml:"transient"`
	Resolver         Resolver         `yaml:"resolver"`
	Risk             Risk             `yaml:"risk"`
	Audit            Audit            `yaml:"audit"`
	Attachments      Attachments      `yaml:"attachments"`
	FilesystemAccess FilesystemAccess `yaml:"filesystem_access"`
	// Shell overrides the interpreter used for proposed commands, e.g. "bash -lc".
	Shell string `yaml:"shell"`
	// Vertex settings are only read when a "vertex" backend is configured.
	VertexProject  string `yaml:"vertex_project"`
	VertexLocation string `yaml:"vertex_location"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backends: []Backend{
			{Provider: "gemini", Model: "gemini-2.5-flash"},
			{Provider: "gemini", Model: "gemini-2.5-pro"},
			{Provider: "gemini", Model: "gemini-2.0-flash-001"},
			{Provider: "gemini", Model: "gemini-pro-latest"},
		},
		Transient: Transient{
			StatusCodes: []int{503, 529},
			Markers:     []string{"503", "overloaded"},
		},
		Resolver: Resolver{
			IgnoreDirs:   []string{"node_modules", ".git", ".next", "dist", "build", "coverage"},
			MaxFileChars: 500000,
		},
		Risk: Risk{
			Keywords: []string{
				"rm", "rmdir", "del", "erase", "rd", "mv", "move", "ren", "rename",
				"dd", "mkfs", "format", "truncate", "shred", "chmod", "chown",
				"Remove-Item", "Move-Item", "Rename-Item", "Clear-Content",
				"Set-Content", "Out-File", "Format-Volume",
			},
			RedirectChars: ">",
		},
		Audit: Audit{ApprovalMarker: "[APROVADO]"},
		Attachments: Attachments{
			Extensions: []string{".png", ".jpg", ".jpeg", ".webp", ".heic", ".heif", ".gif"},
			MaxBytes:   10 * 1024 * 1024,
		},
		FilesystemAccess: FilesystemAccess{
			ReadOnly: []string{".git/**", DirName + "/**"},
		},
		VertexLocation: "us-central1",
	}
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence. Both layers are
// applied on top of Default.
func LoadConfig() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, DirName, "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config %s", userConfigPath)
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, DirName, "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config %s", projectConfigPath)
		}
	}

	if len(cfg.Backends) == 0 {
		return nil, errors.New("configuration lists no backends")
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, so a layer
	// that sets risk.keywords replaces the whole keyword list.
	return yaml.Unmarshal(data, cfg)
}

// Providers returns the distinct providers named by the backend list, in order.
func (c *Config) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range c.Backends {
		if seen[b.Provider] {
			continue
		}
		seen[b.Provider] = true
		out = append(out, b.Provider)
	}
	return out
}
