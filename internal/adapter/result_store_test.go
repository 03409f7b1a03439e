package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "quill.dev/pkg/quill/internal/model"
)

func TestBoltResultStore_RoundTrip(t *testing.T) {
	store, err := NewBoltResultStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	suggestions := []m.Suggestion{{
		Path:         "a.go",
		Span:         m.Span{Start: 4, End: 11},
		Start:        m.LineCol{Line: 1, Col: 5},
		End:          m.LineCol{Line: 1, Col: 12},
		Original:     "Recieve",
		Detectors:    []m.Detector{m.DetectorDictionary},
		Messages:     []string{"Unknown word"},
		Replacements: []string{"Receive"},
	}}

	require.NoError(t, store.Save("a.go", "h1", "f1", suggestions, 2))

	got, chunks, ok, err := store.Load("a.go", "h1", "f1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, suggestions, got)

	t.Run("changed content misses", func(t *testing.T) {
		_, _, ok, err := store.Load("a.go", "h2", "f1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("changed configuration misses", func(t *testing.T) {
		_, _, ok, err := store.Load("a.go", "h1", "f2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown path misses", func(t *testing.T) {
		_, _, ok, err := store.Load("b.go", "h1", "f1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNopResultStore(t *testing.T) {
	var store ResultStore = NopResultStore{}

	require.NoError(t, store.Save("a.go", "h", "f", nil, 1))

	_, _, ok, err := store.Load("a.go", "h", "f")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, store.Close())
}
