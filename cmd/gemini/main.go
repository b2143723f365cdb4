package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/m4xw311/gemini-agent/agent"
	"github.com/m4xw311/gemini-agent/agent/terminal"
	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/llm"
	"github.com/m4xw311/gemini-agent/logging"
	"github.com/m4xw311/gemini-agent/session"
	"github.com/m4xw311/gemini-agent/tools"
	"github.com/m4xw311/gemini-agent/tools/mcp"
	"github.com/m4xw311/gemini-agent/ui"
	"github.com/m4xw311/gemini-agent/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var version = "dev"

// app holds the process streams and flag values shared by every command.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	stdinTerminal  bool
	stdoutTerminal bool

	debug   bool
	logFile string
	imgPath string

	// code is the exit status chosen by a command; errors default to 1.
	code int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := &app{
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		stdinTerminal:  term.IsTerminal(int(os.Stdin.Fd())),
		stdoutTerminal: term.IsTerminal(int(os.Stdout.Fd())),
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return a.code
	case errors.Is(err, context.Canceled):
		return 130
	}
	a.printError(err)
	if a.code == 0 {
		return 1
	}
	return a.code
}

func (a *app) printError(err error) {
	var userErr *errors.UserError
	if errors.As(err, &userErr) {
		fmt.Fprintf(a.stderr, "Error: %s\n", userErr.Msg)
		if cause := errors.Detail(err); a.debug && cause != nil {
			fmt.Fprintf(a.stderr, "  cause: %+v\n", cause)
		}
		return
	}
	fmt.Fprintf(a.stderr, "Error: %+v\n", err)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gemini [prompt...]",
		Short: "Terminal assistant that reads, writes and runs with your confirmation",
		Long: `gemini chats about the current directory. Mention files as @name to send
their contents. Proposed file changes and commands run only after you confirm.

When standard input is not a terminal the piped data is analyzed once:

  cat error.log | gemini "why does this fail?"`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runChat,
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level and show error causes")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write JSON diagnostics to this file")
	root.Flags().StringVar(&a.imgPath, "img", "", "attach an image to the first message")

	root.AddCommand(a.commitCmd(), a.modelsCmd(), a.mcpCmd())
	return root
}

// stack is everything a generating command needs.
type stack struct {
	cfg        *config.Config
	logger     *zap.Logger
	console    *ui.Console
	client     *llm.Client
	candidates []llm.Candidate
}

func (s *stack) close() {
	var errs []error
	for _, c := range s.candidates {
		if closer, ok := c.Backend.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("failed to close backends", zap.Error(err))
	}
	s.logger.Info("session finished", zap.String("last_backend", s.client.LastBackend()))
	_ = s.logger.Sync()
}

// setup loads configuration and credentials and builds the fallback client.
// Every configuration problem is reported here, before any network call.
func (a *app) setup(ctx context.Context) (*stack, error) {
	if wd, err := os.Getwd(); err == nil {
		config.LoadEnvFiles(wd)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	creds := config.CredentialsFromEnv()
	if err := cfg.Validate(creds); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{File: a.logFile, Debug: a.debug})
	if err != nil {
		return nil, err
	}
	console := ui.NewConsole(a.stdout, a.stdoutTerminal)

	candidates, err := llm.NewCandidates(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(candidates,
		llm.WithLogger(logger),
		llm.WithTransient(llm.NewTransientClassifier(cfg.Transient)),
		llm.WithFallbackNotifier(func(name string) { console.Status("(%s...)", name) }),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("backends ready", zap.Strings("candidates", client.Candidates()))
	return &stack{cfg: cfg, logger: logger, console: console, client: client, candidates: candidates}, nil
}

func (a *app) runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt := strings.Join(args, " ")
	if !a.stdinTerminal {
		return a.runPipe(ctx, prompt)
	}

	s, err := a.setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var attachment *session.Attachment
	if a.imgPath != "" {
		attachment, err = workspace.LoadAttachment(a.imgPath, s.cfg.Attachments)
		if err != nil {
			return err
		}
		s.console.Muted("Attached image: %s", attachment.Name)
	}

	prompter := terminal.NewPrompter(a.stdin, a.stdout)
	ag := agent.New(s.cfg, s.client, s.console, prompter, s.logger)
	s.console.Header("Gemini agent ready.")
	return terminal.New(ag, s.console, prompter, s.logger).Run(ctx, prompt, attachment)
}

func (a *app) runPipe(ctx context.Context, instruction string) error {
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return errors.Wrapf(err, "failed to read standard input")
	}
	if strings.TrimSpace(string(data)) == "" {
		return agent.ErrEmptyInput
	}

	s, err := a.setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	// Pipe mode never confirms anything; the prompter has no input to read.
	prompter := terminal.NewPrompter(strings.NewReader(""), io.Discard)
	ag := agent.New(s.cfg, s.client, s.console, prompter, s.logger)
	return ag.Analyze(ctx, string(data), instruction)
}

func (a *app) commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [work <id>]",
		Short: "Audit the staged changes and commit them with a generated message",
		Long: `commit reads 'git diff --staged', asks the model for a security audit and,
once approved or explicitly overridden, proposes a Conventional Commits message.
Use "commit work 123" to prefix the message with "AB#123 ".`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || (len(args) == 2 && args[0] == "work" && strings.TrimSpace(args[1]) != "") {
				return nil
			}
			return errors.User("usage: gemini commit [work <id>]", nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var workItem string
			if len(args) == 2 {
				workItem = args[1]
			}

			s, err := a.setup(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			wd, err := os.Getwd()
			if err != nil {
				return errors.Wrapf(err, "could not get working directory")
			}
			prompter := terminal.NewPrompter(a.stdin, a.stdout)
			ag := agent.New(s.cfg, s.client, s.console, prompter, s.logger)
			code, err := ag.Commit(ctx, &tools.Git{Dir: wd, Stdout: a.stdout, Stderr: a.stderr}, workItem)
			a.code = code
			return err
		},
	}
}

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support generateContent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if wd, err := os.Getwd(); err == nil {
				config.LoadEnvFiles(wd)
			}
			creds := config.CredentialsFromEnv()
			if creds.GeminiAPIKey == "" {
				return errors.User("GEMINI_API_KEY is not set", config.ErrMissingCredential)
			}

			backend, err := llm.NewGeminiBackend(ctx, creds.GeminiAPIKey)
			if err != nil {
				return err
			}
			defer backend.Close()

			models, err := backend.ListModels(ctx)
			if err != nil {
				return errors.User("could not list models", err)
			}
			console := ui.NewConsole(a.stdout, a.stdoutTerminal)
			console.Header("Models supporting generateContent:")
			for _, m := range models {
				if m.Supports("generateContent") {
					console.Info("- %s (%s)", m.Name, m.DisplayName)
				}
			}
			return nil
		},
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve file resolution and directive parsing over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			// stdout carries the protocol; diagnostics only go to --log-file.
			logger, err := logging.New(logging.Options{File: a.logFile, Debug: a.debug})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return mcp.NewServer(cfg, version, nil, logger).Run(cmd.Context())
		},
	}
}
