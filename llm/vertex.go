package llm

import (
	"context"
	"encoding/base64"
	"slices"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	vertex "google.golang.org/genai"
)

// VertexBackend serves Gemini models through Vertex AI using application
// default credentials.
type VertexBackend struct {
	client *vertex.Client
}

func NewVertexBackend(ctx context.Context, project, location string) (*VertexBackend, error) {
	if project == "" {
		return nil, errors.New("vertex_project is not set")
	}
	client, err := vertex.NewClient(ctx, &vertex.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  vertex.BackendVertexAI,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Vertex AI client")
	}
	return &VertexBackend{client: client}, nil
}

func (v *VertexBackend) Generate(ctx context.Context, req Request) (string, error) {
	contents, err := vertexContents(append(slices.Clone(req.History), req.Message))
	if err != nil {
		return "", err
	}
	resp, err := v.client.Models.GenerateContent(ctx, req.Model, contents, nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errEmptyResponse
	}
	return resp.Text(), nil
}

func vertexContents(msgs []session.Message) ([]*vertex.Content, error) {
	out := make([]*vertex.Content, 0, len(msgs))
	for _, m := range msgs {
		var role vertex.Role = vertex.RoleUser
		if m.Role == session.RoleModel {
			role = vertex.RoleModel
		}
		parts := []*vertex.Part{vertex.NewPartFromText(m.Content)}
		if m.Attachment != nil {
			data, err := base64.StdEncoding.DecodeString(m.Attachment.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid attachment payload for %s", m.Attachment.Name)
			}
			parts = append(parts, vertex.NewPartFromBytes(data, m.Attachment.MIMEType))
		}
		out = append(out, vertex.NewContentFromParts(parts, role))
	}
	return out, nil
}
