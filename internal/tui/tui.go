package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/rafaeelricco/commit-gen/internal/core"
	"github.com/rafaeelricco/commit-gen/internal/utils"
)

const listHeight = 12

var (
	messageStyle      = lipgloss.NewStyle().MarginLeft(2).MarginTop(1)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

type menuAction int

const (
	actionCommit menuAction = iota
	actionEdit
	actionRegenerate
	actionCopy
	actionCancel
)

type item struct {
	title  string
	action menuAction
}

func (i item) FilterValue() string { return i.title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(item)
	if !ok {
		return
	}

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(i.title))
}

type menuModel struct {
	list     list.Model
	message  string
	choice   menuAction
	chosen   bool
	quitting bool
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.choice = actionCancel
			m.chosen = true
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(item); ok {
				m.choice = i.action
				m.chosen = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m menuModel) View() string {
	if m.quitting {
		return quitTextStyle.Render("Exiting...")
	}
	return fmt.Sprintf("%s\n\n%s", messageStyle.Render(m.message), m.list.View())
}

// MenuReviewer is the interactive implementation of core.Reviewer: it shows
// the candidate message with an action menu and maps the selection to a
// review decision. Clipboard copy is handled here and surfaces to the loop
// as a cancel, so the state machine never mutates the repository for it.
type MenuReviewer struct{}

func (MenuReviewer) Review(message string) (core.Decision, error) {
	if !utils.IsTTY() {
		fmt.Printf("Generated commit message:\n\n%s\n\n", message)
		fmt.Println("Not a terminal; run with --force to commit without review.")
		return core.Decision{Kind: core.DecisionCancel}, nil
	}

	items := []list.Item{
		item{title: "✅ Commit this", action: actionCommit},
		item{title: "✏️  Edit message", action: actionEdit},
		item{title: "🔄 Regenerate", action: actionRegenerate},
		item{title: "📋 Copy to clipboard and exit", action: actionCopy},
		item{title: "❌ Cancel", action: actionCancel},
	}

	const defaultWidth = 40

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	p := tea.NewProgram(menuModel{list: l, message: message})
	finalModel, err := p.Run()
	if err != nil {
		return core.Decision{}, fmt.Errorf("failed to run review menu: %w", err)
	}

	m, ok := finalModel.(menuModel)
	if !ok || !m.chosen {
		return core.Decision{Kind: core.DecisionCancel}, nil
	}

	switch m.choice {
	case actionCommit:
		return core.Decision{Kind: core.DecisionAccept}, nil
	case actionEdit:
		edited, err := editMessage(message)
		if err != nil {
			return core.Decision{}, err
		}
		if strings.TrimSpace(edited) == "" || edited == message {
			// Nothing changed; treat as accepting the candidate.
			return core.Decision{Kind: core.DecisionAccept}, nil
		}
		return core.Decision{Kind: core.DecisionEdit, EditedText: edited}, nil
	case actionRegenerate:
		return core.Decision{Kind: core.DecisionRegenerate}, nil
	case actionCopy:
		if err := clipboard.WriteAll(message); err != nil {
			log.Error().Err(err).Msg("Failed to copy to clipboard")
		} else {
			fmt.Println("Commit message copied to clipboard.")
		}
		return core.Decision{Kind: core.DecisionCancel}, nil
	default:
		return core.Decision{Kind: core.DecisionCancel}, nil
	}
}
