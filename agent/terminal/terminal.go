package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/m4xw311/gemini-agent/agent"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	"github.com/m4xw311/gemini-agent/ui"
	"go.uber.org/zap"
)

var exitWords = map[string]bool{
	"sair":  true,
	"exit":  true,
	"quit":  true,
	"/quit": true,
	"/exit": true,
}

// Prompter reads operator answers line by line. The same reader serves chat
// input and gate confirmations so buffered input is never lost between them.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	mu sync.Mutex
	// pending is the in-flight read left behind by a cancelled Ask. The next
	// Ask receives its line instead of starting a second reader.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the next line without its line ending.
// It returns ctx.Err() as soon as ctx is cancelled, and an answer that
// arrives after cancellation is discarded. io.EOF is returned only when no
// input is left at all.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, question)

	var r readResult
	select {
	case r = <-p.read():
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if r.err != nil {
		if r.err == io.EOF && r.line != "" {
			return strings.TrimRight(r.line, "\r\n"), nil
		}
		return "", r.err
	}
	return strings.TrimRight(r.line, "\r\n"), nil
}

func (p *Prompter) read() <-chan readResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		ch := make(chan readResult, 1)
		p.pending = ch
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
	}
	return p.pending
}

// Terminal handles the interactive chat mode.
type Terminal struct {
	agent    *agent.Agent
	console  *ui.Console
	prompter *Prompter
	logger   *zap.Logger
}

func New(a *agent.Agent, console *ui.Console, prompter *Prompter, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{agent: a, console: console, prompter: prompter, logger: logger}
}

// Run seeds the conversation and reads turns until an exit word, end of
// input or cancellation. attachment goes with the first message only. Turn
// failures are printed and the loop continues.
func (t *Terminal) Run(ctx context.Context, initialPrompt string, attachment *session.Attachment) error {
	t.agent.Start()
	if t.console.Interactive() {
		t.console.Muted("Type 'sair' to quit.")
	}

	if strings.TrimSpace(initialPrompt) != "" {
		t.processTurn(ctx, initialPrompt, attachment)
		attachment = nil
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := t.prompter.Ask(ctx, t.console.Prompt())
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				t.console.Println()
				return nil
			}
			return errors.Wrapf(err, "failed to read input")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if exitWords[strings.ToLower(input)] {
			t.console.Muted("Bye.")
			return nil
		}

		t.processTurn(ctx, input, attachment)
		attachment = nil
	}
}

func (t *Terminal) processTurn(ctx context.Context, input string, attachment *session.Attachment) {
	err := t.agent.ProcessUserInput(ctx, input, attachment)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		t.console.Muted("Interrupted.")
		return
	}
	t.logger.Warn("turn failed", zap.Error(err))
	var userErr *errors.UserError
	if errors.As(err, &userErr) {
		t.console.Failure("%s", userErr.Msg)
		return
	}
	t.console.Failure("Error: %v", err)
}
