// Package terminal implements the interactive chat mode.
//
// A Terminal reads one line per turn from standard input and hands it to
// agent.Agent. The Prompter used for chat input is also the agent's
// confirmation Prompter, so answers to "(s/n)" questions come from the same
// buffered stream.
//
//	prompter := terminal.NewPrompter(os.Stdin, os.Stdout)
//	a := agent.New(cfg, client, console, prompter, logger)
//	err := terminal.New(a, console, prompter, logger).Run(ctx, initialPrompt, attachment)
//
// The session ends on one of the exit words (sair, exit, quit, /quit, /exit),
// on end of input, or when ctx is cancelled. A failed turn is reported and
// the loop continues with the history unchanged.
package terminal
