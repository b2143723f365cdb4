package llm

import (
	"context"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/errors"
)

// NewCandidates builds the fallback order from configuration. One backend is
// created per provider and shared by every model of that provider.
func NewCandidates(ctx context.Context, cfg *config.Config, creds config.Credentials) ([]Candidate, error) {
	backends := make(map[string]Backend)
	var out []Candidate
	for _, b := range cfg.Backends {
		backend, ok := backends[b.Provider]
		if !ok {
			var err error
			backend, err = newBackend(ctx, b.Provider, cfg, creds)
			if err != nil {
				return nil, errors.Wrapf(err, "error initializing %s backend", b.Provider)
			}
			backends[b.Provider] = backend
		}
		out = append(out, Candidate{Provider: b.Provider, Model: b.Model, Backend: backend})
	}
	return out, nil
}

func newBackend(ctx context.Context, provider string, cfg *config.Config, creds config.Credentials) (Backend, error) {
	switch provider {
	case "gemini":
		return NewGeminiBackend(ctx, creds.GeminiAPIKey)
	case "vertex":
		return NewVertexBackend(ctx, cfg.VertexProject, cfg.VertexLocation)
	case "anthropic":
		return NewAnthropicBackend(creds.AnthropicAPIKey)
	case "openai":
		return NewOpenAIBackend(creds.OpenAIAPIKey, creds.OpenAIBaseURL)
	case "bedrock":
		return NewBedrockBackend(ctx)
	case "mock":
		return NewMockBackend(), nil
	default:
		return nil, errors.New("unknown provider %q", provider)
	}
}
