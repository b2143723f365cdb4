package agent

import (
	"context"
	"strings"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

// ErrEmptyInput is returned when piped input has no content.
var ErrEmptyInput = errors.Sentinel("no data on standard input")

// Analyze sends piped data with the directory context in a single one-shot
// call and prints the answer. Directives in the reply are shown, never
// applied: there is no terminal to confirm them.
func (a *Agent) Analyze(ctx context.Context, data, instruction string) error {
	if strings.TrimSpace(data) == "" {
		return ErrEmptyInput
	}
	dir := a.cwd()
	prompt := PipePrompt(SystemContext(dir, ListFiles(dir)), data, instruction)

	stop := a.console.Spin("Analisando...")
	res, err := a.client.Generate(ctx, nil, session.UserText(prompt), false)
	stop()
	if err != nil {
		return err
	}
	a.console.Println(strings.TrimSpace(res.Text))
	return nil
}
