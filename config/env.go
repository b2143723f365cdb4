package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/m4xw311/gemini-agent/errors"
)

// ErrMissingCredential is returned when a configured provider has no key.
var ErrMissingCredential = errors.Sentinel("missing credential")

// GlobalEnvFile is looked up in the home directory after the local .env.
const GlobalEnvFile = ".gemini.env"

// Credentials are read once at start-up and handed to backend constructors.
type Credentials struct {
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	// Bedrock and Vertex authenticate through their SDK default chains.
}

// LoadEnvFiles loads ./.env and then ~/.gemini.env. Variables already present
// in the environment are never overridden, so the local file wins over the
// global one and the shell wins over both.
func LoadEnvFiles(dir string) []string {
	candidates := []string{filepath.Join(dir, ".env")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, GlobalEnvFile))
	}
	var loaded []string
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// CredentialsFromEnv snapshots the provider keys from the environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
	}
}

// Validate checks that every provider in the backend list can authenticate.
func (c *Config) Validate(creds Credentials) error {
	for _, p := range c.Providers() {
		switch p {
		case "gemini":
			if creds.GeminiAPIKey == "" {
				return errors.Wrapf(ErrMissingCredential, "GEMINI_API_KEY is not set (checked .env and ~/%s)", GlobalEnvFile)
			}
		case "anthropic":
			if creds.AnthropicAPIKey == "" {
				return errors.Wrapf(ErrMissingCredential, "ANTHROPIC_API_KEY is not set")
			}
		case "openai":
			if creds.OpenAIAPIKey == "" {
				return errors.Wrapf(ErrMissingCredential, "OPENAI_API_KEY is not set")
			}
		case "vertex":
			if c.VertexProject == "" {
				return errors.Wrapf(ErrMissingCredential, "vertex_project is not configured")
			}
		case "bedrock", "mock":
		default:
			return errors.New("unknown provider %q in backends", p)
		}
	}
	return nil
}
