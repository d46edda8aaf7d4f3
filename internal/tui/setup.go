package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/rafaeelricco/commit-gen/internal/config"
	"github.com/rafaeelricco/commit-gen/internal/core"
)

var ErrSetupCancelled = errors.New("setup cancelled")

type conventionItem struct {
	label string
	conv  config.Convention
}

func (i conventionItem) FilterValue() string { return i.label }

type conventionDelegate struct{}

func (d conventionDelegate) Height() int                             { return 1 }
func (d conventionDelegate) Spacing() int                            { return 0 }
func (d conventionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d conventionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(conventionItem)
	if !ok {
		return
	}
	line := itemStyle.Render(i.label)
	if index == m.Index() {
		line = selectedItemStyle.Render("> " + i.label)
	}
	fmt.Fprint(w, line)
}

type conventionModel struct {
	list      list.Model
	choice    config.Convention
	chosen    bool
	cancelled bool
}

func (m conventionModel) Init() tea.Cmd { return nil }

func (m conventionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(conventionItem); ok {
				m.choice = i.conv
				m.chosen = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m conventionModel) View() string {
	return "\n  Select a commit convention:\n\n" + m.list.View()
}

func selectConvention() (config.Convention, error) {
	items := []list.Item{
		conventionItem{label: "Conventional Commits (feat:, fix:, refactor:)", conv: config.Conventional},
		conventionItem{label: "Imperative (add, fix, update)", conv: config.Imperative},
		conventionItem{label: "Custom template", conv: config.Custom},
	}

	l := list.New(items, conventionDelegate{}, 50, 8)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowTitle(false)
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	finalModel, err := tea.NewProgram(conventionModel{list: l}).Run()
	if err != nil {
		return "", fmt.Errorf("failed to run convention menu: %w", err)
	}

	m, ok := finalModel.(conventionModel)
	if !ok || m.cancelled || !m.chosen {
		return "", ErrSetupCancelled
	}
	return m.choice, nil
}

type keyInputModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func (m keyInputModel) Init() tea.Cmd { return textinput.Blink }

func (m keyInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m keyInputModel) View() string {
	return fmt.Sprintf("\n  Enter your %s:\n\n  %s\n", config.EnvAPIKey, m.input.View())
}

func promptAPIKey() (string, error) {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	ti.Width = 48

	finalModel, err := tea.NewProgram(keyInputModel{input: ti}).Run()
	if err != nil {
		return "", fmt.Errorf("failed to run API key prompt: %w", err)
	}

	m, ok := finalModel.(keyInputModel)
	if !ok || m.cancelled {
		return "", ErrSetupCancelled
	}

	key := strings.TrimSpace(m.input.Value())
	if key == "" {
		return "", ErrSetupCancelled
	}
	return key, nil
}

func promptCustomTemplate() (string, error) {
	color.New(color.Faint).Printf("\nEnter your custom commit message template.\nUse %s as placeholder for the git diff.\n", config.DiffMarker)

	initial := "Write a commit message for the following change:\n\n" + config.DiffMarker
	for {
		template, err := editMessage(initial)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(template) == "" {
			return "", ErrSetupCancelled
		}
		if strings.Contains(template, config.DiffMarker) {
			return template, nil
		}
		color.Red("The template must contain the %s marker.", config.DiffMarker)
		initial = template
	}
}

// RunSetup drives the one-time setup wizard: pick a convention, optionally
// author a custom template, enter the API key, verify the key with a live
// call, then persist the config. newGenerator builds the backend client for
// the key the user just typed.
func RunSetup(ctx context.Context, newGenerator func(key string) core.Generator) error {
	fmt.Println()
	color.New(color.Bold).Println("commit-gen setup")

	conv, err := selectConvention()
	if err != nil {
		return err
	}

	var template string
	if conv == config.Custom {
		template, err = promptCustomTemplate()
		if err != nil {
			return err
		}
	}

	key, err := promptAPIKey()
	if err != nil {
		return err
	}

	sp := NewSpinner()
	sp.Start("Validating API key...")
	_, err = newGenerator(key).Generate(ctx, "Reply with the single word: ok.")
	sp.Stop()
	if err != nil {
		return fmt.Errorf("API key validation failed: %w", err)
	}

	cfg := config.Config{APIKey: key, Convention: conv, CustomTemplate: template}
	if err := config.Save(cfg); err != nil {
		return err
	}

	path, err := config.Path()
	if err == nil {
		color.Green("Configuration saved to %s", path)
	}
	return nil
}
