package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// source: "/// Recieve the\n/// widget.\n"
// chunk:  "Recieve the widget."
func twoLineChunk(t *testing.T) (*CheckableChunk, []byte) {
	t.Helper()

	source := []byte("/// Recieve the\n/// widget.\n")
	chunk, err := NewCheckableChunk("a.go", KindDocComment, "Recieve the widget.", []Mapping{
		{Chunk: Range{0, 11}, Source: Span{4, 15}},
		{Chunk: Range{12, 19}, Source: Span{20, 27}},
	}, source)
	require.NoError(t, err)

	return chunk, source
}

func TestCheckableChunk_Resolve(t *testing.T) {
	chunk, source := twoLineChunk(t)

	tests := []struct {
		name  string
		rng   Range
		want  Span
		text  string
		fails bool
	}{
		{name: "word on first line", rng: Range{0, 7}, want: Span{4, 11}, text: "Recieve"},
		{name: "word on second line", rng: Range{12, 18}, want: Span{20, 26}, text: "widget"},
		{name: "whole first mapping", rng: Range{0, 11}, want: Span{4, 15}, text: "Recieve the"},
		{name: "insertion at end of mapping", rng: Range{11, 11}, want: Span{15, 15}, text: ""},
		{name: "range over synthetic separator", rng: Range{8, 18}, fails: true},
		{name: "range starting on separator", rng: Range{11, 12}, fails: true},
		{name: "range outside chunk", rng: Range{15, 40}, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chunk.Resolve(tt.rng)
			if tt.fails {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMappingDefect))

				var defect *MappingDefect
				require.ErrorAs(t, err, &defect)
				assert.Equal(t, tt.rng, defect.Range)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, string(source[got.Start:got.End]))
		})
	}
}

func TestCheckableChunk_ResolveAcrossContiguousMappings(t *testing.T) {
	source := []byte("// hello world\n")
	chunk, err := NewCheckableChunk("a.go", KindLineComment, "hello world", []Mapping{
		{Chunk: Range{0, 6}, Source: Span{3, 9}},
		{Chunk: Range{6, 11}, Source: Span{9, 14}},
	}, source)
	require.NoError(t, err)

	got, err := chunk.Resolve(Range{2, 9})
	require.NoError(t, err)
	assert.Equal(t, "llo wor", string(source[got.Start:got.End]))
}

func TestCheckableChunk_ResolveSourceDiscontinuity(t *testing.T) {
	source := []byte("// ab\n// cd\n")
	chunk, err := NewCheckableChunk("a.go", KindLineComment, "abcd", []Mapping{
		{Chunk: Range{0, 2}, Source: Span{3, 5}},
		{Chunk: Range{2, 4}, Source: Span{9, 11}},
	}, source)
	require.NoError(t, err)

	_, err = chunk.Resolve(Range{1, 3})
	assert.ErrorIs(t, err, ErrMappingDefect)
}

func TestNewCheckableChunk_RejectsInvalidMappings(t *testing.T) {
	source := []byte("// hello\n")

	tests := []struct {
		name     string
		text     string
		mappings []Mapping
	}{
		{name: "length mismatch", text: "hello", mappings: []Mapping{{Chunk: Range{0, 5}, Source: Span{3, 7}}}},
		{name: "text differs", text: "hallo", mappings: []Mapping{{Chunk: Range{0, 5}, Source: Span{3, 8}}}},
		{name: "out of bounds", text: "hello", mappings: []Mapping{{Chunk: Range{0, 5}, Source: Span{30, 35}}}},
		{name: "overlapping", text: "hello", mappings: []Mapping{
			{Chunk: Range{0, 3}, Source: Span{3, 6}},
			{Chunk: Range{2, 5}, Source: Span{5, 8}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCheckableChunk("a.go", KindLineComment, tt.text, tt.mappings, source)
			assert.Error(t, err)
		})
	}
}

func TestCheckableChunk_SourceSpan(t *testing.T) {
	chunk, _ := twoLineChunk(t)
	assert.Equal(t, Span{4, 27}, chunk.SourceSpan())
}
