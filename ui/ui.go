// Package ui renders operator-facing console output: the chat prompt, model
// replies, directive proposals and execution results.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/m4xw311/gemini-agent/directive"
)

// Console writes styled output to one stream. Colors, Markdown rendering and
// the spinner are enabled only for interactive terminals.
type Console struct {
	out         io.Writer
	interactive bool
	markdown    *glamour.TermRenderer

	mu     sync.Mutex
	active *tea.Program

	prompt   lipgloss.Style
	label    lipgloss.Style
	header   lipgloss.Style
	command  lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	warning  lipgloss.Style
	muted    lipgloss.Style
	critical lipgloss.Style
}

func NewConsole(out io.Writer, interactive bool) *Console {
	r := lipgloss.NewRenderer(out)
	c := &Console{
		out:         out,
		interactive: interactive,
		prompt:      r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		label:       r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		header:      r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		command:     r.NewStyle().Bold(true),
		success:     r.NewStyle().Foreground(lipgloss.Color("2")),
		failure:     r.NewStyle().Foreground(lipgloss.Color("1")),
		warning:     r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:       r.NewStyle().Foreground(lipgloss.Color("8")),
		critical: r.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Bold(true).
			Padding(0, 1),
	}
	if interactive {
		if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			c.markdown = md
		}
	}
	return c
}

func (c *Console) Writer() io.Writer { return c.out }

func (c *Console) Interactive() bool { return c.interactive }

// Prompt is the chat input label.
func (c *Console) Prompt() string { return c.prompt.Render("Você:") + " " }

func (c *Console) Println(a ...any) { fmt.Fprintln(c.out, a...) }

func (c *Console) Info(format string, a ...any) {
	fmt.Fprintln(c.out, fmt.Sprintf(format, a...))
}

func (c *Console) Success(format string, a ...any) {
	fmt.Fprintln(c.out, c.success.Render("✔ "+fmt.Sprintf(format, a...)))
}

func (c *Console) Failure(format string, a ...any) {
	fmt.Fprintln(c.out, c.failure.Render("✖ "+fmt.Sprintf(format, a...)))
}

func (c *Console) Warn(format string, a ...any) {
	fmt.Fprintln(c.out, c.warning.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Muted(format string, a ...any) {
	fmt.Fprintln(c.out, c.muted.Render(fmt.Sprintf(format, a...)))
}

// Reply prints a model answer, rendered as Markdown when possible.
func (c *Console) Reply(text string) {
	body := strings.TrimSpace(text)
	if c.markdown != nil {
		if rendered, err := c.markdown.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintf(c.out, "%s %s\n\n", c.label.Render("Gemini:"), body)
}

// FileProposal lists the files a reply wants to write.
func (c *Console) FileProposal(files []directive.FileWrite) {
	fmt.Fprintln(c.out, c.header.Render(fmt.Sprintf("[PROPOSED CHANGES] %d file(s):", len(files))))
	for _, f := range files {
		fmt.Fprintf(c.out, "  • %s\n", f.Name)
	}
}

// CommandProposal shows the literal command, its explanation and, for
// critical commands, a warning banner.
func (c *Console) CommandProposal(cmd directive.Command) {
	fmt.Fprintln(c.out, c.header.Render("[PROPOSED COMMAND] Terminal:"))
	fmt.Fprintln(c.out, c.command.Render("> "+cmd.Command))
	if cmd.Explanation != "" {
		fmt.Fprintf(c.out, "ℹ  %s\n", cmd.Explanation)
	}
	if cmd.Risk == directive.Critical {
		fmt.Fprintln(c.out, c.critical.Render(CriticalBanner))
	}
}

// CriticalBanner is shown above the confirmation for destructive commands.
const CriticalBanner = "⚠ DANGER: this command may delete, move or overwrite data"

func (c *Console) Header(format string, a ...any) {
	fmt.Fprintln(c.out, c.header.Render(fmt.Sprintf(format, a...)))
}

// Question formats a confirmation question with its choices.
func (c *Console) Question(text string) string {
	return c.header.Render(text) + " "
}
