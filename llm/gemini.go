package llm

import (
	"context"
	"encoding/base64"
	"slices"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiBackend talks to the Gemini API with an API key.
type GeminiBackend struct {
	client *genai.Client
}

func NewGeminiBackend(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}
	return &GeminiBackend{client: client}, nil
}

func (g *GeminiBackend) Close() error { return g.client.Close() }

// Generate uses a chat session when there is history and a single
// GenerateContent call otherwise.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(req.Model)

	parts, err := geminiParts(req.Message)
	if err != nil {
		return "", err
	}

	var resp *genai.GenerateContentResponse
	if len(req.History) == 0 {
		resp, err = model.GenerateContent(ctx, parts...)
	} else {
		cs := model.StartChat()
		cs.History, err = geminiContents(req.History)
		if err != nil {
			return "", err
		}
		resp, err = cs.SendMessage(ctx, parts...)
	}
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func geminiContents(msgs []session.Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		parts, err := geminiParts(m)
		if err != nil {
			return nil, err
		}
		role := "user"
		if m.Role == session.RoleModel {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out, nil
}

func geminiParts(m session.Message) ([]genai.Part, error) {
	parts := []genai.Part{genai.Text(m.Content)}
	if m.Attachment != nil {
		data, err := base64.StdEncoding.DecodeString(m.Attachment.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid attachment payload for %s", m.Attachment.Name)
		}
		parts = append(parts, genai.Blob{MIMEType: m.Attachment.MIMEType, Data: data})
	}
	return parts, nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

// ModelInfo is a model advertised by the Gemini API.
type ModelInfo struct {
	Name        string
	DisplayName string
	Methods     []string
}

// Supports reports whether the model accepts the given generation method,
// e.g. "generateContent".
func (m ModelInfo) Supports(method string) bool {
	return slices.Contains(m.Methods, method)
}

// ListModels returns every model the key can see.
func (g *GeminiBackend) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	it := g.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list models")
		}
		out = append(out, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Methods:     m.SupportedGenerationMethods,
		})
	}
	return out, nil
}
