package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type editorModel struct {
	area      textarea.Model
	done      bool
	cancelled bool
}

func newEditorModel(initial string) editorModel {
	ta := textarea.New()
	ta.SetValue(initial)
	ta.SetWidth(72)
	ta.SetHeight(10)
	ta.ShowLineNumbers = false
	ta.Focus()
	return editorModel{area: ta}
}

func (m editorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.cancelled = true
			return m, tea.Quit
		case "ctrl+d", "ctrl+s":
			m.done = true
			return m, tea.Quit
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m editorModel) View() string {
	return fmt.Sprintf(
		"\n  Edit the commit message (ctrl+s to save, esc to keep the original):\n\n%s\n",
		m.area.View(),
	)
}

// editMessage opens an inline editor pre-filled with the candidate message
// and returns the edited text. An escape returns the original unchanged.
func editMessage(initial string) (string, error) {
	p := tea.NewProgram(newEditorModel(initial))
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run message editor: %w", err)
	}

	m, ok := finalModel.(editorModel)
	if !ok || m.cancelled {
		return initial, nil
	}
	return m.area.Value(), nil
}
