package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/rafaeelricco/commit-gen/internal/core"
	"github.com/rafaeelricco/commit-gen/internal/utils"
)

// Spinner shows progress while a blocking call (usually the backend
// request) is in flight. Outside a TTY it degrades to a single line.
type Spinner struct {
	program  *tea.Program
	doneChan chan struct{}
	isTTY    bool
}

type spinnerModel struct {
	spinner spinner.Model
	text    string
	done    bool
}

type spinnerDoneMsg struct{}

func NewSpinner() *Spinner {
	return &Spinner{
		doneChan: make(chan struct{}),
		isTTY:    utils.IsTTY(),
	}
}

func (s *Spinner) Start(message string) {
	if !s.isTTY {
		fmt.Printf("⏺ %s\n", message)
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	s.program = tea.NewProgram(spinnerModel{spinner: sp, text: message})
	go func() {
		if _, err := s.program.Run(); err != nil {
			log.Error().Err(err).Msg("Error running spinner")
		}
		close(s.doneChan)
	}()
}

func (s *Spinner) Stop() {
	if !s.isTTY {
		return
	}
	s.program.Send(spinnerDoneMsg{})
	<-s.doneChan
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("\n   %s %s\n", m.spinner.View(), m.text)
}

// SpinningGenerator wraps a core.Generator so every generation attempt,
// including regenerations, gets its own spinner.
type SpinningGenerator struct {
	Inner core.Generator
	Label string
}

func (g SpinningGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	sp := NewSpinner()
	sp.Start(g.Label)
	text, err := g.Inner.Generate(ctx, prompt)
	sp.Stop()
	return text, err
}
