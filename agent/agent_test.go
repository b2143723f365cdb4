package agent

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/llm"
	"github.com/m4xw311/gemini-agent/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers questions from a fixed list and records the
// console output visible at the moment each question was asked.
type scriptedPrompter struct {
	answers   []string
	questions []string
	seen      []string
	console   *bytes.Buffer
}

func (p *scriptedPrompter) Ask(ctx context.Context, question string) (string, error) {
	p.questions = append(p.questions, question)
	if p.console != nil {
		p.seen = append(p.seen, p.console.String())
	}
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type harness struct {
	agent    *Agent
	out      *bytes.Buffer
	prompter *scriptedPrompter
	backend  *llm.MockBackend
}

func newHarness(t *testing.T, replies ...llm.MockResponse) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	backend := llm.NewMockBackend(replies...)
	client, err := llm.NewClient([]llm.Candidate{{Provider: "mock", Model: "m", Backend: backend}})
	require.NoError(t, err)
	prompter := &scriptedPrompter{console: out}
	a := New(config.Default(), client, ui.NewConsole(out, false), prompter, nil)
	return &harness{agent: a, out: out, prompter: prompter, backend: backend}
}

func (h *harness) answer(answers ...string) { h.prompter.answers = append(h.prompter.answers, answers...) }

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func TestStartSeedsHistory(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x"), 0o644))

	h := newHarness(t)
	h.agent.Start()

	msgs := h.agent.History.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "Diretório atual: "+dir)
	assert.Contains(t, msgs[0].Content, "go.mod")
	assert.Equal(t, ReadyReply, msgs[1].Content)
}

func TestTurnInjectsReferencesAndRecordsHistory(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("Hello"), 0o644))

	h := newHarness(t, llm.MockResponse{Text: "It says hello."})
	h.agent.Start()
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "explain @readme.md", nil))

	require.Len(t, h.backend.Requests, 1)
	req := h.backend.Requests[0]
	assert.Len(t, req.History, 2)
	assert.True(t, strings.HasPrefix(req.Message.Content, "Contexto: "+dir+"\n\nUser: explain "))
	assert.Contains(t, req.Message.Content, "--- INÍCIO ARQUIVO: readme.md ---\nHello\n--- FIM ARQUIVO ---")

	assert.Equal(t, 4, h.agent.History.Len())
	assert.Contains(t, h.out.String(), "It says hello.")
	assert.Contains(t, h.out.String(), "[Sistema] Encontrado: readme.md...")
}

func TestFailedTurnLeavesHistoryUntouched(t *testing.T) {
	chdirTemp(t)
	h := newHarness(t, llm.MockResponse{Err: &llm.StatusError{Code: 400, Message: "bad request"}})
	h.agent.Start()

	err := h.agent.ProcessUserInput(context.Background(), "oi", nil)
	require.Error(t, err)
	assert.Equal(t, 2, h.agent.History.Len())
}

func TestFileWritesAppliedOnlyAfterAcceptance(t *testing.T) {
	dir := chdirTemp(t)
	reply := "Pronto:\n###ARQUIVO: src/app.js\nconsole.log(1);\n###FIM_ARQUIVO\n###ARQUIVO: b.txt\nB\n###FIM_ARQUIVO"

	h := newHarness(t, llm.MockResponse{Text: reply}, llm.MockResponse{Text: reply})
	h.agent.Start()

	h.answer("n")
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "crie", nil))
	_, err := os.Stat(filepath.Join(dir, "src", "app.js"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, h.prompter.seen[0], "src/app.js")
	assert.Contains(t, h.prompter.seen[0], "b.txt")

	h.answer("S")
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "crie", nil))
	data, err := os.ReadFile(filepath.Join(dir, "src", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "console.log(1);\n", string(data))
	assert.Contains(t, h.out.String(), "Saved: b.txt")
}

func TestAcceptedBatchSkippedAfterCancellation(t *testing.T) {
	dir := chdirTemp(t)
	h := newHarness(t, llm.MockResponse{Text: "###ARQUIVO: late.txt\nx\n###FIM_ARQUIVO"})
	h.agent.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.agent.Gate().OnTransition = func(_, to State) {
		if to == AwaitingResponse {
			cancel()
		}
	}
	h.answer("s")

	err := h.agent.ProcessUserInput(ctx, "crie", nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "late.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCriticalCommandShowsBannerBeforeRunning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := chdirTemp(t)
	target := filepath.Join(dir, "temp")
	require.NoError(t, os.Mkdir(target, 0o755))

	h := newHarness(t, llm.MockResponse{Text: "###CMD: rm -rf temp\nApaga a pasta temp\n###FIM_CMD"})
	h.agent.Start()

	var existedAtPrompt bool
	h.prompter.answers = nil
	h.agent.Gate().OnTransition = func(from, to State) {
		if to == AwaitingResponse {
			_, err := os.Stat(target)
			existedAtPrompt = err == nil
			h.prompter.answers = []string{"y"}
		}
	}
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "limpe", nil))

	require.Len(t, h.prompter.seen, 1)
	assert.Contains(t, h.prompter.seen[0], ui.CriticalBanner)
	assert.Contains(t, h.prompter.seen[0], "> rm -rf temp")
	assert.True(t, existedAtPrompt)
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestOnlyFirstCommandIsProposed(t *testing.T) {
	chdirTemp(t)
	h := newHarness(t, llm.MockResponse{Text: "###CMD: echo one\n###FIM_CMD\n###CMD: echo two\n###FIM_CMD"})
	h.agent.Start()
	h.answer("n")

	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "go", nil))
	assert.Len(t, h.prompter.questions, 1)
	assert.Contains(t, h.out.String(), "> echo one")
	assert.NotContains(t, h.out.String(), "> echo two")
	assert.Contains(t, h.out.String(), "Command cancelled.")
}

func TestChangeDirectoryCommandAffectsNextTurn(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "only-here.txt"), []byte("sub file"), 0o644))

	h := newHarness(t,
		llm.MockResponse{Text: "###CMD: cd sub\n###FIM_CMD"},
		llm.MockResponse{Text: "ok"},
	)
	h.agent.Start()
	h.answer("s")
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "entre em sub", nil))
	require.NoError(t, h.agent.ProcessUserInput(context.Background(), "leia @only-here.txt", nil))

	second := h.backend.Requests[1].Message.Content
	assert.Contains(t, second, filepath.Join(dir, "sub"))
	assert.Contains(t, second, "sub file")
}

func TestGateTransitions(t *testing.T) {
	var out bytes.Buffer
	p := &scriptedPrompter{answers: []string{"s"}}
	g := NewGate(p, ui.NewConsole(&out, false), nil)
	var seen []string
	g.OnTransition = func(from, to State) { seen = append(seen, from.String()+">"+to.String()) }

	state, err := g.ConfirmCommand(context.Background(), directive.Command{Command: "ls"})
	require.NoError(t, err)
	assert.Equal(t, Applied, state)
	assert.Equal(t, []string{"proposed>awaiting_response", "awaiting_response>applied"}, seen)
}

func TestGateRejectsAnythingButAccept(t *testing.T) {
	for _, a := range []string{"n", "", "sim?", "e", "nao"} {
		var out bytes.Buffer
		g := NewGate(&scriptedPrompter{answers: []string{a}}, ui.NewConsole(&out, false), nil)
		state, err := g.ConfirmFileWrites(context.Background(), []directive.FileWrite{{Name: "a"}})
		require.NoError(t, err)
		assert.Equal(t, Rejected, state, a)
	}
}

func TestGatePrompterFailureRejects(t *testing.T) {
	var out bytes.Buffer
	g := NewGate(&scriptedPrompter{}, ui.NewConsole(&out, false), nil)
	state, err := g.ConfirmCommand(context.Background(), directive.Command{Command: "ls"})
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, Rejected, state)
}

func TestGateCommitEditLoop(t *testing.T) {
	var out bytes.Buffer
	p := &scriptedPrompter{answers: []string{"e", "fix: better message", "e", "", "s"}}
	g := NewGate(p, ui.NewConsole(&out, false), nil)
	var states []State
	g.OnTransition = func(_, to State) { states = append(states, to) }

	msg, state, err := g.ConfirmCommit(context.Background(), "feat: first")
	require.NoError(t, err)
	assert.Equal(t, Applied, state)
	assert.Equal(t, "fix: better message", msg)
	assert.Equal(t, []State{
		AwaitingResponse, Editing, Proposed,
		AwaitingResponse, Editing, Proposed,
		AwaitingResponse, Applied,
	}, states)
}

func TestInvalidTransitionPanics(t *testing.T) {
	b := newBatch()
	b.advance(AwaitingResponse)
	b.advance(Applied)
	assert.Panics(t, func() { b.advance(Proposed) })
}

type fakeRepo struct {
	diff      string
	diffErr   error
	committed []string
	commitErr error
}

func (r *fakeRepo) ReadStagedDiff(ctx context.Context) (string, error) { return r.diff, r.diffErr }

func (r *fakeRepo) Commit(ctx context.Context, message string) (int, error) {
	if r.commitErr != nil {
		return 1, r.commitErr
	}
	r.committed = append(r.committed, message)
	return 0, nil
}

const sampleDiff = "diff --git a/main.go b/main.go\n+package main\n"

func TestCommitNothingStaged(t *testing.T) {
	h := newHarness(t)
	code, err := h.agent.Commit(context.Background(), &fakeRepo{diff: "  \n"}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 0, h.backend.Calls())
	assert.Contains(t, h.out.String(), "git add .")
}

func TestCommitGitUnavailable(t *testing.T) {
	h := newHarness(t)
	code, err := h.agent.Commit(context.Background(), &fakeRepo{diffErr: errors.New("not a repo")}, "")
	require.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestCommitApprovedWithWorkItem(t *testing.T) {
	h := newHarness(t,
		llm.MockResponse{Text: "[APROVADO] Nenhum problema encontrado."},
		llm.MockResponse{Text: "```\nfeat: add main\n```"},
	)
	h.answer("s")
	repo := &fakeRepo{diff: sampleDiff}

	code, err := h.agent.Commit(context.Background(), repo, "123")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"AB#123 feat: add main"}, repo.committed)

	require.Len(t, h.backend.Requests, 2)
	for _, req := range h.backend.Requests {
		assert.Empty(t, req.History, "audit and message generation are one-shot")
		assert.Contains(t, req.Message.Content, sampleDiff)
	}
	assert.Contains(t, h.backend.Requests[0].Message.Content, DefaultApprovalMarker)
}

func TestCommitBlockedAuditRequiresOverride(t *testing.T) {
	h := newHarness(t, llm.MockResponse{Text: "Chave de API exposta em config.go:3"})
	h.answer("n")
	repo := &fakeRepo{diff: sampleDiff}

	code, err := h.agent.Commit(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, repo.committed)
	assert.Equal(t, 1, h.backend.Calls())
	assert.Contains(t, h.out.String(), "Chave de API exposta")
	assert.Contains(t, h.prompter.questions[0], "Commit anyway?")
}

func TestCommitOverrideProceeds(t *testing.T) {
	h := newHarness(t,
		llm.MockResponse{Text: "possível segredo"},
		llm.MockResponse{Text: "chore: update"},
	)
	h.answer("s", "s")
	repo := &fakeRepo{diff: sampleDiff}

	code, err := h.agent.Commit(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"chore: update"}, repo.committed)
}

func TestCommitDeclined(t *testing.T) {
	h := newHarness(t,
		llm.MockResponse{Text: "[APROVADO]"},
		llm.MockResponse{Text: "feat: x"},
	)
	h.answer("n")
	repo := &fakeRepo{diff: sampleDiff}

	code, err := h.agent.Commit(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, repo.committed)
}

func TestCommitFailureReported(t *testing.T) {
	h := newHarness(t,
		llm.MockResponse{Text: "[APROVADO]"},
		llm.MockResponse{Text: "feat: x"},
	)
	h.answer("y")
	code, err := h.agent.Commit(context.Background(), &fakeRepo{diff: sampleDiff, commitErr: errors.New("hook failed")}, "")
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, "git commit failed", err.Error())
}

func TestAuditorCustomMarker(t *testing.T) {
	backend := llm.NewMockBackend(llm.MockResponse{Text: "OK-TO-SHIP"})
	client, err := llm.NewClient([]llm.Candidate{{Provider: "mock", Model: "m", Backend: backend}})
	require.NoError(t, err)

	v, err := NewAuditor(client, "OK-TO-SHIP").Audit(context.Background(), sampleDiff)
	require.NoError(t, err)
	assert.True(t, v.Approved)
	assert.Equal(t, "mock/m", v.Backend)
}

func TestAnalyzePipedData(t *testing.T) {
	chdirTemp(t)
	h := newHarness(t, llm.MockResponse{Text: "  O erro é um nil pointer.  "})

	require.NoError(t, h.agent.Analyze(context.Background(), "panic: nil pointer", ""))
	req := h.backend.Requests[0]
	assert.Empty(t, req.History)
	assert.Contains(t, req.Message.Content, "=== DADOS ===\npanic: nil pointer\nInstrução: Analise.")
	assert.Contains(t, h.out.String(), "O erro é um nil pointer.\n")
}

func TestAnalyzeEmptyInput(t *testing.T) {
	h := newHarness(t)
	err := h.agent.Analyze(context.Background(), " \n\t", "")
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.Equal(t, 0, h.backend.Calls())
}

func TestPromptHelpers(t *testing.T) {
	assert.Equal(t, "feat: x", CleanCommitMessage("```text\nfeat: x\n```\n"))
	assert.Equal(t, "feat: x\n\ncorpo", CleanCommitMessage("\n feat: x\n\ncorpo \n"))
	assert.Equal(t, "AB#42 fix: y", WithWorkItem("fix: y", " 42 "))
	assert.Equal(t, "fix: y", WithWorkItem("fix: y", ""))
	assert.True(t, strings.HasSuffix(PipePrompt("ctx", "d", "resuma"), "Instrução: resuma"))
	assert.Equal(t, "Contexto: /x\n\nUser: oi", TurnPrompt("/x", "oi"))
	assert.Equal(t, "Erro", ListFiles(filepath.Join(t.TempDir(), "missing")))
}
