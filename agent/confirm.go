package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/ui"
	"go.uber.org/zap"
)

// Prompter asks the operator a question and returns the raw answer.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// State is the lifecycle of one proposed batch.
type State int

const (
	Proposed State = iota
	AwaitingResponse
	Editing
	Applied
	Rejected
)

func (s State) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case AwaitingResponse:
		return "awaiting_response"
	case Editing:
		return "editing"
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var transitions = map[State][]State{
	Proposed:         {AwaitingResponse},
	AwaitingResponse: {Applied, Rejected, Editing},
	Editing:          {Proposed, Rejected},
}

// batch tracks one proposal through the gate. Applied and Rejected are
// terminal.
type batch struct {
	state State
}

func newBatch() *batch { return &batch{state: Proposed} }

func (b *batch) advance(to State) {
	for _, allowed := range transitions[b.state] {
		if allowed == to {
			b.state = to
			return
		}
	}
	panic(fmt.Sprintf("invalid gate transition %s -> %s", b.state, to))
}

type answer int

const (
	answerReject answer = iota
	answerAccept
	answerEdit
)

func parseAnswer(raw string, allowEdit bool) answer {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s", "y":
		return answerAccept
	case "e":
		if allowEdit {
			return answerEdit
		}
	}
	return answerReject
}

// Gate shows pending directives and blocks until the operator decides. It
// never executes anything; callers act only on an Applied outcome.
type Gate struct {
	prompter Prompter
	console  *ui.Console
	logger   *zap.Logger

	// OnTransition observes every state change. Used by tests.
	OnTransition func(from, to State)
}

func NewGate(prompter Prompter, console *ui.Console, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{prompter: prompter, console: console, logger: logger}
}

func (g *Gate) move(b *batch, to State) {
	from := b.state
	b.advance(to)
	if g.OnTransition != nil {
		g.OnTransition(from, to)
	}
}

// ask moves b to AwaitingResponse and reads one answer. A prompter failure
// rejects the batch.
func (g *Gate) ask(ctx context.Context, b *batch, question string, allowEdit bool) (answer, error) {
	g.move(b, AwaitingResponse)
	raw, err := g.prompter.Ask(ctx, g.console.Question(question))
	if err != nil {
		g.move(b, Rejected)
		return answerReject, errors.Wrapf(err, "failed to read confirmation")
	}
	return parseAnswer(raw, allowEdit), nil
}

func (g *Gate) decide(ctx context.Context, question string) (State, error) {
	b := newBatch()
	a, err := g.ask(ctx, b, question, false)
	if err != nil {
		return b.state, err
	}
	if a == answerAccept {
		g.move(b, Applied)
	} else {
		g.move(b, Rejected)
	}
	return b.state, nil
}

// ConfirmFileWrites lists the files and asks once for the whole batch.
func (g *Gate) ConfirmFileWrites(ctx context.Context, files []directive.FileWrite) (State, error) {
	g.console.Println()
	g.console.FileProposal(files)
	state, err := g.decide(ctx, "Save these changes? (s/n):")
	g.logger.Info("file batch decided", zap.Int("files", len(files)), zap.Stringer("state", state))
	return state, err
}

// ConfirmCommand shows the literal command, its explanation and the danger
// banner for critical commands before asking.
func (g *Gate) ConfirmCommand(ctx context.Context, cmd directive.Command) (State, error) {
	g.console.Println()
	g.console.CommandProposal(cmd)
	state, err := g.decide(ctx, "Run this command? (s/n):")
	g.logger.Info("command decided",
		zap.String("command", cmd.Command),
		zap.Stringer("risk", cmd.Risk),
		zap.Stringer("state", state))
	return state, err
}

// ConfirmCommit proposes message and lets the operator accept, reject or
// edit it. Editing loops back to a new proposal. An empty edit keeps the
// previous message.
func (g *Gate) ConfirmCommit(ctx context.Context, message string) (string, State, error) {
	b := newBatch()
	for {
		g.console.Println()
		g.console.Header("[PROPOSED COMMIT]")
		g.console.Info("%s", message)
		a, err := g.ask(ctx, b, "Commit with this message? (s/n/e):", true)
		if err != nil {
			return message, b.state, err
		}
		switch a {
		case answerAccept:
			g.move(b, Applied)
			return message, b.state, nil
		case answerReject:
			g.move(b, Rejected)
			return message, b.state, nil
		}

		g.move(b, Editing)
		edited, err := g.prompter.Ask(ctx, g.console.Question("New message:"))
		if err != nil {
			g.move(b, Rejected)
			return message, b.state, errors.Wrapf(err, "failed to read commit message")
		}
		if edited = strings.TrimSpace(edited); edited != "" {
			message = edited
		}
		g.move(b, Proposed)
	}
}

// ConfirmOverride asks whether to continue after the security audit refused
// to approve.
func (g *Gate) ConfirmOverride(ctx context.Context) (State, error) {
	return g.decide(ctx, "The audit did not approve these changes. Commit anyway? (s/n):")
}
