package agent

import (
	"context"
	"strings"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

// DefaultApprovalMarker is what the audit reply must contain to pass.
const DefaultApprovalMarker = "[APROVADO]"

// Verdict is the outcome of one audit. Report holds the model's full reply.
type Verdict struct {
	Approved bool
	Report   string
	Backend  string
}

// Auditor asks the model to review a staged diff before committing. The
// approval is textual: anything without the marker counts as a block.
type Auditor struct {
	client Generator
	marker string
}

func NewAuditor(client Generator, marker string) *Auditor {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultApprovalMarker
	}
	return &Auditor{client: client, marker: marker}
}

func (a *Auditor) Audit(ctx context.Context, diff string) (Verdict, error) {
	res, err := a.client.Generate(ctx, nil, session.UserText(AuditPrompt(diff, a.marker)), false)
	if err != nil {
		return Verdict{}, errors.Wrapf(err, "security audit failed")
	}
	return Verdict{
		Approved: strings.Contains(res.Text, a.marker),
		Report:   strings.TrimSpace(res.Text),
		Backend:  res.Backend,
	}, nil
}
