package checkers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDictionary(t *testing.T) *Dictionary {
	t.Helper()

	dict, err := LoadDictionary([]string{
		filepath.Join("..", "..", "..", "examples", "dict", "en_US.dic"),
		filepath.Join("..", "..", "..", "examples", "dict", "words.txt"),
	})
	require.NoError(t, err)

	return dict
}

func TestLoadDictionary_HunspellAffixes(t *testing.T) {
	dict := fixtureDictionary(t)

	for _, word := range []string{
		"receive", "received", "receiving", "receives",
		"relay", "relays", "relayed",
		"widget", "widgets",
		"quill", "goldmark",
		"undo",
	} {
		assert.True(t, dict.Contains(word), "expected %q to be accepted", word)
	}

	for _, word := range []string{"recieve", "retrun", "widgetes", "unwidget"} {
		assert.False(t, dict.Contains(word), "expected %q to be rejected", word)
	}
}

func TestDictionary_ContainsCasing(t *testing.T) {
	dict := NewDictionary("receive", "Alice", "don't")

	tests := []struct {
		word string
		want bool
	}{
		{"receive", true},
		{"Receive", true},
		{"RECEIVE", true},
		{"ReCeive", false},
		{"Alice", true},
		{"ALICE", true},
		{"alice", false},
		{"Alice's", true},
		{"don’t", true},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, dict.Contains(tt.word))
		})
	}
}

func TestDictionary_Suggest(t *testing.T) {
	dict := NewDictionary("receive", "relieve", "return", "the", "widget", "Alice")

	tests := []struct {
		word string
		want []string
	}{
		{word: "recieve", want: []string{"receive", "relieve"}},
		{word: "Recieve", want: []string{"Receive", "Relieve"}},
		{word: "RECIEVE", want: []string{"RECEIVE", "RELIEVE"}},
		{word: "retrun", want: []string{"return"}},
		{word: "alise", want: []string{"Alice"}},
		{word: "zzzzzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, dict.Suggest(tt.word, 5, 2))
		})
	}

	t.Run("limit", func(t *testing.T) {
		assert.Equal(t, []string{"receive"}, dict.Suggest("recieve", 1, 2))
	})
}

func TestIsTransposition(t *testing.T) {
	assert.True(t, isTransposition("recieve", "receive"))
	assert.True(t, isTransposition("teh", "the"))
	assert.False(t, isTransposition("abc", "cba"))
	assert.False(t, isTransposition("abcd", "badc"))
	assert.False(t, isTransposition("abc", "abc"))
	assert.Equal(t, 1, editDistance("retrun", "return"))
}

func TestLoadDictionary_Missing(t *testing.T) {
	_, err := LoadDictionary([]string{filepath.Join(t.TempDir(), "none.dic")})
	assert.True(t, errors.Is(err, ErrNoDictionary))
}

func TestLoadDictionary_FlagModes(t *testing.T) {
	dir := t.TempDir()
	aff := "FLAG long\nSFX Aa Y 1\nSFX Aa 0 s .\n"
	dic := "1\ncat/Aa\n"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.aff"), []byte(aff), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.dic"), []byte(dic), 0o644))

	dict, err := LoadDictionary([]string{filepath.Join(dir, "x.dic")})
	require.NoError(t, err)

	assert.True(t, dict.Contains("cats"))
	assert.Equal(t, 2, dict.Len())
}
