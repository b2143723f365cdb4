package agent

import (
	"context"
	"os"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/llm"
	"github.com/m4xw311/gemini-agent/session"
	"github.com/m4xw311/gemini-agent/tools"
	"github.com/m4xw311/gemini-agent/ui"
	"github.com/m4xw311/gemini-agent/workspace"
	"go.uber.org/zap"
)

// Generator is the generation client the agent depends on. *llm.Client
// implements it.
type Generator interface {
	Generate(ctx context.Context, history []session.Message, msg session.Message, conversational bool) (*llm.Result, error)
}

type Agent struct {
	Config  *config.Config
	History *session.History

	client     Generator
	console    *ui.Console
	gate       *Gate
	auditor    *Auditor
	injector   *workspace.Injector
	classifier *directive.Classifier
	writer     *tools.FileWriter
	runner     *tools.CommandRunner
	logger     *zap.Logger
	getwd      func() (string, error)
}

func New(cfg *config.Config, client Generator, console *ui.Console, prompter Prompter, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	history := session.New()
	logger = logger.With(zap.String("session", history.ID))

	resolver := workspace.NewResolver(cfg.Resolver.IgnoreDirs)
	return &Agent{
		Config:  cfg,
		History: history,
		client:  client,
		console: console,
		gate:    NewGate(prompter, console, logger),
		auditor: NewAuditor(client, cfg.Audit.ApprovalMarker),
		injector: workspace.NewInjector(resolver, cfg.Resolver.MaxFileChars,
			workspace.WithNotifier(func(s string) { console.Muted("%s", s) }),
			workspace.WithLogger(logger)),
		classifier: directive.NewClassifier(cfg.Risk.Keywords, cfg.Risk.RedirectChars),
		writer:     tools.NewFileWriter(cfg.FilesystemAccess, logger),
		runner:     tools.NewCommandRunner(cfg.Shell, console.Writer(), console.Writer(), logger),
		logger:     logger,
		getwd:      os.Getwd,
	}
}

// Gate exposes the confirmation gate so callers can observe transitions.
func (a *Agent) Gate() *Gate { return a.gate }

func (a *Agent) cwd() string {
	dir, err := a.getwd()
	if err != nil {
		return "."
	}
	return dir
}

// Start seeds the conversation with the working directory and its listing.
func (a *Agent) Start() {
	dir := a.cwd()
	a.History.Append(
		session.UserText(SystemContext(dir, ListFiles(dir))),
		session.ModelText(ReadyReply),
	)
}

// ProcessUserInput runs one conversation turn: inject @references, generate
// with history, show the reply, then put any directives through the gate.
// Turns are added to the history only after a successful generation.
func (a *Agent) ProcessUserInput(ctx context.Context, input string, attachment *session.Attachment) error {
	dir := a.cwd()
	if refs := workspace.References(input); len(refs) > 0 {
		a.logger.Debug("turn references files", zap.Strings("references", refs))
	}
	prompt := TurnPrompt(dir, a.injector.Inject(input))
	msg := session.UserText(prompt)
	msg.Attachment = attachment

	stop := a.console.Spin("Pensando...")
	res, err := a.client.Generate(ctx, a.History.Messages(), msg, true)
	stop()
	if err != nil {
		return err
	}
	a.logger.Debug("turn answered", zap.String("backend", res.Backend), zap.Int("history", a.History.Len()))

	a.console.Reply(res.Text)
	a.History.Append(session.UserText(prompt), session.ModelText(res.Text))

	return a.applyDirectives(ctx, res.Text)
}

func (a *Agent) applyDirectives(ctx context.Context, reply string) error {
	var (
		files   []directive.FileWrite
		command *directive.Command
	)
	for _, d := range directive.Extract(reply, a.classifier) {
		switch v := d.(type) {
		case directive.FileWrite:
			files = append(files, v)
		case directive.Command:
			command = &v
		}
	}

	if len(files) > 0 {
		state, err := a.gate.ConfirmFileWrites(ctx, files)
		if err != nil {
			return err
		}
		if state == Applied && ctx.Err() != nil {
			return ctx.Err()
		}
		if state == Applied {
			a.writeFiles(files)
		} else {
			a.console.Muted("File changes discarded.")
		}
	}

	if command != nil {
		state, err := a.gate.ConfirmCommand(ctx, *command)
		if err != nil {
			return err
		}
		if state == Applied && ctx.Err() != nil {
			return ctx.Err()
		}
		if state == Applied {
			a.runCommand(ctx, *command)
		} else {
			a.console.Muted("Command cancelled.")
		}
	}
	return nil
}

func (a *Agent) writeFiles(files []directive.FileWrite) {
	for _, r := range a.writer.Write(a.cwd(), files) {
		if r.Err != nil {
			a.console.Failure("%s: %v", r.Name, r.Err)
			continue
		}
		a.console.Success("Saved: %s", r.Name)
	}
}

func (a *Agent) runCommand(ctx context.Context, cmd directive.Command) {
	a.console.Muted("Running...")
	res, err := a.runner.Run(ctx, cmd)
	switch {
	case err != nil:
		a.console.Failure("%v", err)
	case res.Dir != "":
		a.console.Success("Directory changed to: %s", res.Dir)
	case res.ExitCode != 0:
		a.console.Failure("'%s' exited with code %d", cmd.Command, res.ExitCode)
	default:
		a.console.Success("Done.")
	}
}
