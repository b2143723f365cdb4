package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	stopMsg  struct{}
	labelMsg string
)

type spinnerModel struct {
	spinner spinner.Model
	style   lipgloss.Style
	label   string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd { return m.spinner.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case labelMsg:
		m.label = string(msg)
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.style.Render(m.label)
}

// Spin shows label with an animated spinner until the returned function is
// called. The stop function blocks until the line is cleared, so output
// printed afterwards never interleaves with the animation.
func (c *Console) Spin(label string) (stop func()) {
	if !c.interactive {
		return func() {}
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = c.label

	p := tea.NewProgram(
		spinnerModel{spinner: sp, style: c.label, label: label},
		tea.WithOutput(c.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	c.mu.Lock()
	c.active = p
	c.mu.Unlock()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
		p.Send(stopMsg{})
		<-done
	}
}

// Status replaces the running spinner's label, or prints a muted line when
// no spinner is active.
func (c *Console) Status(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	c.mu.Lock()
	p := c.active
	c.mu.Unlock()
	if p != nil {
		p.Send(labelMsg(msg))
		return
	}
	c.Muted("%s", msg)
}
