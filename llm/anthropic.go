package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

const anthropicMaxTokens = 8192

// AnthropicBackend is a client for the Anthropic Messages API.
type AnthropicBackend struct {
	client *anthropic.Client
}

func NewAnthropicBackend(apiKey string) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicBackend{client: &client}, nil
}

func (a *AnthropicBackend) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: anthropicMaxTokens,
		Messages:  anthropicMessages(req.History, req.Message),
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	return anthropicText(resp)
}

// anthropicMessages converts the history plus the new turn.
func anthropicMessages(history []session.Message, msg session.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range append(history[:len(history):len(history)], msg) {
		if m.Role == session.RoleModel {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)}
		if m.Attachment != nil {
			blocks = append(blocks, anthropic.NewImageBlockBase64(m.Attachment.MIMEType, m.Attachment.Data))
		}
		out = append(out, anthropic.NewUserMessage(blocks...))
	}
	return out
}

func anthropicText(resp *anthropic.Message) (string, error) {
	if resp == nil || len(resp.Content) == 0 {
		return "", errEmptyResponse
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if t, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String(), nil
}
