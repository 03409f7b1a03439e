package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "quill.dev/pkg/quill/internal/model"
)

// TUI implements UI with colored output and an interactive Bubble Tea review.
type TUI struct {
	*SimpleUI
	input  io.Reader
	output io.Writer
}

// NewTUI creates a new TUI bound to the command's input and output.
func NewTUI(cmd *cobra.Command) *TUI {
	simple := NewSimpleUI(cmd)
	simple.palette = colorPalette()

	return &TUI{SimpleUI: simple, input: cmd.InOrStdin(), output: cmd.OutOrStdout()}
}

func colorPalette() palette {
	return palette{
		path:      render(lipgloss.NewStyle().Bold(true)),
		message:   render(lipgloss.NewStyle().Foreground(lipgloss.Color("9"))),
		marker:    render(lipgloss.NewStyle().Foreground(lipgloss.Color("11"))),
		candidate: render(lipgloss.NewStyle().Foreground(lipgloss.Color("10"))),
		warning:   render(lipgloss.NewStyle().Foreground(lipgloss.Color("208"))),
	}
}

func render(style lipgloss.Style) func(string) string {
	return func(s string) string {
		return style.Render(s)
	}
}

// Review walks through the suggestions one at a time.
func (t *TUI) Review(ctx context.Context, suggestions []m.Suggestion) ([]m.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(suggestions) == 0 {
		return nil, nil
	}

	program := tea.NewProgram(
		newReviewModel(suggestions, t.palette),
		tea.WithContext(ctx),
		tea.WithInput(t.input),
		tea.WithOutput(t.output),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}

	rm, ok := final.(reviewModel)
	if !ok {
		return nil, fmt.Errorf("review: unexpected model %T", final)
	}

	return rm.decisions, nil
}

type reviewKeyMap struct {
	Choose    key.Binding
	Skip      key.Binding
	AcceptAll key.Binding
	Quit      key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Choose:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "apply")),
		Skip:      key.NewBinding(key.WithKeys("n", "s", "right"), key.WithHelp("n", "skip")),
		AcceptAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept first candidate for all")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// reviewModel is the Bubble Tea model for the fix review. Undecided
// suggestions stay skipped.
type reviewModel struct {
	suggestions []m.Suggestion
	decisions   []m.Decision
	index       int
	keys        reviewKeyMap
	palette     palette
	done        bool
}

func newReviewModel(suggestions []m.Suggestion, p palette) reviewModel {
	decisions := make([]m.Decision, len(suggestions))
	for i, s := range suggestions {
		decisions[i] = m.Decision{Suggestion: s, Choice: -1}
	}

	return reviewModel{
		suggestions: suggestions,
		decisions:   decisions,
		keys:        defaultReviewKeyMap(),
		palette:     p,
	}
}

func (rm reviewModel) Init() tea.Cmd {
	return nil
}

func (rm reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || rm.done {
		return rm, nil
	}

	switch {
	case key.Matches(keyMsg, rm.keys.Quit):
		rm.done = true

		return rm, tea.Quit
	case key.Matches(keyMsg, rm.keys.AcceptAll):
		for i := rm.index; i < len(rm.decisions); i++ {
			if len(rm.suggestions[i].Replacements) > 0 {
				rm.decisions[i].Choice = 0
			}
		}

		rm.done = true

		return rm, tea.Quit
	case key.Matches(keyMsg, rm.keys.Choose):
		choice := int(keyMsg.String()[0] - '1')
		if choice >= len(rm.suggestions[rm.index].Replacements) {
			return rm, nil
		}

		rm.decisions[rm.index].Choice = choice

		return rm.advance()
	case key.Matches(keyMsg, rm.keys.Skip):
		return rm.advance()
	}

	return rm, nil
}

func (rm reviewModel) advance() (tea.Model, tea.Cmd) {
	rm.index++
	if rm.index >= len(rm.suggestions) {
		rm.done = true

		return rm, tea.Quit
	}

	return rm, nil
}

func (rm reviewModel) View() string {
	if rm.done {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Suggestion %d of %d\n\n", rm.index+1, len(rm.suggestions))

	current := rm.suggestions[rm.index]
	writeSuggestion(&b, rm.palette, current)
	b.WriteString("\n")

	for i, c := range current.Replacements {
		if i >= 9 {
			break
		}

		fmt.Fprintf(&b, "  %d) %s\n", i+1, rm.palette.paint(rm.palette.candidate, c))
	}

	help := []string{}
	for _, k := range []key.Binding{rm.keys.Choose, rm.keys.Skip, rm.keys.AcceptAll, rm.keys.Quit} {
		help = append(help, fmt.Sprintf("%s %s", k.Help().Key, k.Help().Desc))
	}

	fmt.Fprintf(&b, "\n%s\n", strings.Join(help, " • "))

	return b.String()
}
