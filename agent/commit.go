package agent

import (
	"context"
	"strings"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	"go.uber.org/zap"
)

// Repository is the version-control surface the commit flow needs.
// *tools.Git implements it.
type Repository interface {
	ReadStagedDiff(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) (int, error)
}

// Commit audits the staged diff, proposes a message and commits after
// confirmation. workItem, when set, prefixes the message with "AB#<id> ".
// The returned code is the process exit status: declining or having nothing
// staged is a clean exit.
func (a *Agent) Commit(ctx context.Context, repo Repository, workItem string) (int, error) {
	a.console.Header("[GIT] Analyzing staged changes...")
	diff, err := repo.ReadStagedDiff(ctx)
	if err != nil {
		return 1, errors.User("git not found or this is not a repository", err)
	}
	if strings.TrimSpace(diff) == "" {
		a.console.Warn("Nothing staged.")
		a.console.Info("Tip: run 'git add .' first.")
		return 0, nil
	}

	proceed, err := a.auditGate(ctx, diff)
	if err != nil || !proceed {
		return 0, err
	}

	stop := a.console.Spin("Gerando mensagem...")
	res, err := a.client.Generate(ctx, nil, session.UserText(CommitPrompt(diff)), false)
	stop()
	if err != nil {
		return 1, err
	}
	message := CleanCommitMessage(res.Text)
	if message == "" {
		return 1, errors.New("model returned an empty commit message")
	}
	message = WithWorkItem(message, workItem)

	message, state, err := a.gate.ConfirmCommit(ctx, message)
	if err != nil {
		return 0, err
	}
	if state != Applied {
		a.console.Muted("Commit cancelled.")
		return 0, nil
	}

	code, err := repo.Commit(ctx, message)
	if err != nil {
		a.logger.Warn("commit failed", zap.Int("exit_code", code), zap.Error(err))
		return 1, errors.User("git commit failed", err)
	}
	a.console.Success("Commit created.")
	return 0, nil
}

// auditGate runs the security audit. A failed audit call is treated like a
// refusal: the operator must override explicitly.
func (a *Agent) auditGate(ctx context.Context, diff string) (bool, error) {
	stop := a.console.Spin("Auditando...")
	verdict, err := a.auditor.Audit(ctx, diff)
	stop()

	switch {
	case err != nil:
		a.console.Failure("Security audit unavailable: %v", err)
	case verdict.Approved:
		a.console.Success("Security audit passed.")
		return true, nil
	default:
		a.console.Warn("[SECURITY AUDIT] The audit raised concerns:")
		a.console.Reply(verdict.Report)
	}

	state, err := a.gate.ConfirmOverride(ctx)
	if err != nil {
		return false, err
	}
	if state != Applied {
		a.console.Muted("Commit aborted.")
		return false, nil
	}
	a.logger.Warn("audit overridden by operator")
	return true, nil
}
