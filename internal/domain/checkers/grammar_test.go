package checkers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "quill.dev/pkg/quill/internal/model"
)

func TestGrammar_BuiltinRules(t *testing.T) {
	g, err := NewGrammar(GrammarConfig{})
	require.NoError(t, err)

	tests := []struct {
		name        string
		text        string
		matched     string
		replacement string
	}{
		{name: "repeated word", text: "Prints a a greeting.", matched: "a a", replacement: "a"},
		{name: "repeated word keeps first casing", text: "The the end.", matched: "The the", replacement: "The"},
		{name: "a before vowel", text: "Returns a error.", matched: "a error", replacement: "an error"},
		{name: "an before consonant", text: "Holds an widget.", matched: "an widget", replacement: "a widget"},
		{name: "modal of", text: "It should of worked.", matched: "should of", replacement: "should have"},
		{name: "comparative then", text: "It is faster then before.", matched: "faster then", replacement: "faster than"},
		{name: "alot", text: "It helps alot today.", matched: "alot", replacement: "a lot"},
		{name: "its contraction", text: "Its not ready.", matched: "Its not", replacement: "It's not"},
		{name: "double space", text: "Reads the  file.", matched: "  ", replacement: " "},
		{name: "space before punctuation", text: "Done , then stop.", matched: " ,", replacement: ","},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Check(context.Background(), plainChunk(t, tt.text))
			require.NoError(t, err)
			require.Len(t, got, 1, "findings: %+v", got)

			r := got[0].Range
			assert.Equal(t, m.DetectorGrammar, got[0].Detector)
			assert.Equal(t, tt.matched, tt.text[r.Start:r.End])
			assert.Equal(t, []string{tt.replacement}, got[0].Replacements)
		})
	}
}

func TestGrammar_CleanText(t *testing.T) {
	g, err := NewGrammar(GrammarConfig{})
	require.NoError(t, err)

	for _, text := range []string{
		"Returns an error for a user.",
		"A one-off job runs once.  Then it stops.",
		"Receive the widget and return it.",
	} {
		got, err := g.Check(context.Background(), plainChunk(t, text))
		require.NoError(t, err)
		assert.Empty(t, got, text)
	}
}

func TestGrammar_OffsetsAcrossSentencesAndRunes(t *testing.T) {
	g, err := NewGrammar(GrammarConfig{})
	require.NoError(t, err)

	text := "Café is open. Déjà vu, a a greeting."

	got, err := g.Check(context.Background(), plainChunk(t, text))
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0].Range
	assert.Equal(t, "a a", text[r.Start:r.End])
}

func TestGrammar_DisabledAndExtraRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	extra := "rules:\n  - id: utilize\n    pattern: '\\butilize\\b'\n    replacement: use\n    message: Prefer \"use\"\n"
	require.NoError(t, os.WriteFile(path, []byte(extra), 0o644))

	g, err := NewGrammar(GrammarConfig{RulesPath: path, Disabled: []string{"repeated-word"}})
	require.NoError(t, err)

	assert.Contains(t, g.Rules(), "utilize")
	assert.NotContains(t, g.Rules(), "repeated-word")

	got, err := g.Check(context.Background(), plainChunk(t, "We utilize a a tool."))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"use"}, got[0].Replacements)
	assert.Equal(t, `Prefer "use"`, got[0].Message)
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("rules:\n  - id: x\n"))
	assert.Error(t, err)

	_, err = NewGrammar(GrammarConfig{RulesPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, err, m.ErrIO)
}
