package llm

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

// BedrockBackend is a client for the Anthropic models on AWS Bedrock.
type BedrockBackend struct {
	client *bedrockruntime.Client
}

// NewBedrockBackend loads AWS credentials from the default chain.
// BEDROCK_ENDPOINT_URL overrides the endpoint, which is useful for testing.
func NewBedrockBackend(ctx context.Context) (*BedrockBackend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	cfg.Region = region

	endpoint := os.Getenv("BEDROCK_ENDPOINT_URL")
	client := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &BedrockBackend{client: client}, nil
}

func (b *BedrockBackend) Generate(ctx context.Context, req Request) (string, error) {
	body, err := createBedrockRequest(bedrockMessages(req.History, req.Message))
	if err != nil {
		return "", errors.Wrapf(err, "failed to create Bedrock request")
	}
	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", err
	}
	return parseBedrockResponse(resp.Body)
}

// bedrockMessages converts turns to the Anthropic-on-Bedrock JSON shape.
func bedrockMessages(history []session.Message, msg session.Message) []map[string]interface{} {
	var out []map[string]interface{}
	for _, m := range append(history[:len(history):len(history)], msg) {
		role := "user"
		if m.Role == session.RoleModel {
			role = "assistant"
		}
		content := []map[string]interface{}{
			{"type": "text", "text": m.Content},
		}
		if m.Attachment != nil && role == "user" {
			content = append(content, map[string]interface{}{
				"type": "image",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": m.Attachment.MIMEType,
					"data":       m.Attachment.Data,
				},
			})
		}
		out = append(out, map[string]interface{}{"role": role, "content": content})
	}
	return out
}

func createBedrockRequest(messages []map[string]interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        anthropicMaxTokens,
		"messages":          messages,
	})
}

func parseBedrockResponse(body []byte) (string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}
	if response.Error != nil {
		return "", errors.New("Bedrock API error: %v", response.Error)
	}
	if len(response.Content) == 0 {
		return "", errEmptyResponse
	}
	var sb strings.Builder
	for _, c := range response.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}
