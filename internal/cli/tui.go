package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

const barWidth = 40

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LoadModel - pull-driven load progress
// =============================================================================

// stepMsg carries the outcome of one builder step.
type stepMsg struct {
	progress layout.Progress
	err      error
}

// LoadModel drives a [pipeline.Loader] from the bubbletea event loop: every
// stepMsg schedules exactly one more step, so the view redraws between
// chunks and a key press can stop the load between any two of them.
type LoadModel struct {
	ctx    context.Context
	loader *pipeline.Loader
	name   string

	Phase   string
	Percent float64
	Steps   int
	Err     error
	Done    bool
}

// NewLoadModel creates a model for a load begun with [pipeline.Runner.Begin].
func NewLoadModel(ctx context.Context, loader *pipeline.Loader, name string) LoadModel {
	return LoadModel{ctx: ctx, loader: loader, name: name, Phase: "Starting"}
}

func (m LoadModel) step() tea.Msg {
	p, err := m.loader.Step(m.ctx)
	return stepMsg{progress: p, err: err}
}

func (m LoadModel) Init() tea.Cmd {
	return m.step
}

func (m LoadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Err = context.Canceled
			return m, tea.Quit
		}
	case stepMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, tea.Quit
		}
		m.Steps++
		m.Phase, m.Percent = msg.progress.Phase, msg.progress.Percent
		if m.loader.Done() {
			m.Done = true
			return m, tea.Quit
		}
		return m, m.step
	}
	return m, nil
}

func (m LoadModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Loading " + m.name))
	b.WriteString("\n")

	filled := int(m.Percent / 100 * barWidth)
	filled = min(max(filled, 0), barWidth)
	b.WriteString(barFullStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(barEmptyStyle.Render(strings.Repeat("░", barWidth-filled)))
	b.WriteString(StyleNumber.Render(fmt.Sprintf(" %3.0f%%", m.Percent)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.Phase))
	b.WriteString("\n")
	if !m.Done && m.Err == nil {
		b.WriteString(StyleDim.Render("q quit"))
		b.WriteString("\n")
	}
	return b.String()
}

// runLoadTUI steps loader to completion inside a bubbletea program.
func runLoadTUI(ctx context.Context, loader *pipeline.Loader, name string) error {
	p := tea.NewProgram(NewLoadModel(ctx, loader, name), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	m := final.(LoadModel)
	if m.Err != nil {
		return m.Err
	}
	if !m.Done {
		return context.Canceled
	}
	return nil
}
