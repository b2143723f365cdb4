package llm

import (
	"context"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIBackend is a client for the OpenAI Chat Completion API or any
// compatible endpoint behind OPENAI_BASE_URL.
type OpenAIBackend struct {
	client *openai.Client
}

func NewOpenAIBackend(apiKey, baseURL string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	// The &c is required, do not replace and just use c
	c := openai.NewClient(options...)
	return &OpenAIBackend{client: &c}, nil
}

func (o *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: openaiMessages(req.History, req.Message),
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func openaiMessages(history []session.Message, msg session.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, m := range append(history[:len(history):len(history)], msg) {
		switch {
		case m.Role == session.RoleModel:
			out = append(out, openai.AssistantMessage(m.Content))
		case m.Attachment != nil:
			out = append(out, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Content),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(m.Attachment),
				}),
			}))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func dataURL(a *session.Attachment) string {
	return "data:" + a.MIMEType + ";base64," + a.Data
}
