package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// errAborted is returned when the user cancels a prompt.
var errAborted = errors.New(errors.ErrCodeAborted, "aborted")

// prompter asks the user questions during remediation.
type prompter interface {
	Confirm(question string) (bool, error)
	Select(title string, options []choice, initial int) (int, error)
}

// choice is one entry of a selection prompt.
type choice struct {
	Label string
	Hint  string
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	questionStyle     = lipgloss.NewStyle().Bold(true)
)

// =============================================================================
// teaPrompter - interactive prompts
// =============================================================================

// teaPrompter runs bubbletea programs on the given terminal streams.
type teaPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p teaPrompter) Confirm(question string) (bool, error) {
	final, err := tea.NewProgram(newConfirmModel(question), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, errAborted
	}
	return m.answer, nil
}

func (p teaPrompter) Select(title string, options []choice, initial int) (int, error) {
	final, err := tea.NewProgram(newSelectModel(title, options, initial), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return 0, err
	}
	m := final.(selectModel)
	if m.cancelled {
		return 0, errAborted
	}
	return m.cursor, nil
}

// autoPrompter answers every question with its default (--yes).
type autoPrompter struct{}

func (autoPrompter) Confirm(string) (bool, error) { return true, nil }

func (autoPrompter) Select(_ string, _ []choice, initial int) (int, error) { return initial, nil }

// =============================================================================
// confirmModel - yes/no question
// =============================================================================

type confirmModel struct {
	question  string
	answer    bool
	done      bool
	cancelled bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question, answer: true}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.answer, m.done = false, true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.answer = !m.answer
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	q := styleIconInfo.Render("?") + " " + questionStyle.Render(m.question)
	if m.done {
		answer := "No"
		if m.answer {
			answer = "Yes"
		}
		return q + " " + StyleHighlight.Render(answer) + "\n"
	}
	if m.cancelled {
		return q + " " + listDimStyle.Render("cancelled") + "\n"
	}

	yes, no := listDimStyle.Render("Yes"), listDimStyle.Render("No")
	if m.answer {
		yes = listSelectedStyle.Render("▸ Yes")
	} else {
		no = listSelectedStyle.Render("▸ No")
	}
	return fmt.Sprintf("%s\n  %s  %s\n  %s\n", q, yes, no, listDimStyle.Render("y/n  ←/→ toggle  ⏎ confirm"))
}

// =============================================================================
// selectModel - single choice from a list
// =============================================================================

type selectModel struct {
	title     string
	options   []choice
	cursor    int
	done      bool
	cancelled bool
}

func newSelectModel(title string, options []choice, initial int) selectModel {
	if initial < 0 || initial >= len(options) {
		initial = 0
	}
	return selectModel{title: title, options: options, cursor: initial}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.options) == 0 {
			m.cancelled = true
		}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder

	b.WriteString(styleIconInfo.Render("?") + " " + questionStyle.Render(m.title))
	if m.done && !m.cancelled {
		b.WriteString(" " + StyleHighlight.Render(m.options[m.cursor].Label) + "\n")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("  ↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, opt := range m.options {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := style.Render(fmt.Sprintf("%s%-8s", cursor, opt.Label))
		if opt.Hint != "" {
			line += " " + listDimStyle.Render(opt.Hint)
		}
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
