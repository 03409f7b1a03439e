package controller

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "quill.dev/pkg/quill/internal/model"
)

func press(t *testing.T, model tea.Model, keys ...string) (reviewModel, tea.Cmd) {
	t.Helper()

	var cmd tea.Cmd

	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		if k == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}

		model, cmd = model.Update(msg)
	}

	rm, ok := model.(reviewModel)
	require.True(t, ok)

	return rm, cmd
}

func threeSuggestions() []m.Suggestion {
	first := sampleSuggestion()
	second := sampleSuggestion()
	second.Replacements = []string{"return"}
	third := sampleSuggestion()
	third.Replacements = nil

	return []m.Suggestion{first, second, third}
}

func TestReviewModel_ChooseAndSkip(t *testing.T) {
	rm, cmd := press(t, newReviewModel(threeSuggestions(), palette{}), "2", "n", "n")

	assert.True(t, rm.done)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, rm.decisions[0].Choice)
	assert.True(t, rm.decisions[1].Skipped())
	assert.True(t, rm.decisions[2].Skipped())
}

func TestReviewModel_IgnoresMissingCandidate(t *testing.T) {
	rm, _ := press(t, newReviewModel(threeSuggestions(), palette{}), "1", "5")

	assert.False(t, rm.done)
	assert.Equal(t, 1, rm.index)
	assert.True(t, rm.decisions[1].Skipped())
}

func TestReviewModel_AcceptAll(t *testing.T) {
	rm, _ := press(t, newReviewModel(threeSuggestions(), palette{}), "n", "a")

	assert.True(t, rm.done)
	assert.True(t, rm.decisions[0].Skipped())
	assert.Equal(t, 0, rm.decisions[1].Choice)
	assert.True(t, rm.decisions[2].Skipped(), "suggestions without candidates stay skipped")
}

func TestReviewModel_Quit(t *testing.T) {
	rm, _ := press(t, newReviewModel(threeSuggestions(), palette{}), "1", "ctrl+c")

	assert.True(t, rm.done)
	assert.Equal(t, 0, rm.decisions[0].Choice)
	assert.True(t, rm.decisions[1].Skipped())
	assert.Empty(t, rm.View())
}

func TestReviewModel_View(t *testing.T) {
	view := newReviewModel(threeSuggestions(), palette{}).View()

	assert.Contains(t, view, "Suggestion 1 of 3")
	assert.Contains(t, view, "1) Receive")
	assert.Contains(t, view, "2) Relieve")
	assert.Contains(t, view, "q quit")
}

func TestTUI_ReviewEmpty(t *testing.T) {
	cmd, _ := newTestCommand()

	decisions, err := NewTUI(cmd).Review(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
