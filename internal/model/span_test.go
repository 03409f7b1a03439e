package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpan_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", Span{0, 3}, Span{5, 8}, false},
		{"adjacent", Span{0, 3}, Span{3, 6}, false},
		{"sharing a byte", Span{0, 4}, Span{3, 6}, true},
		{"nested", Span{0, 10}, Span{3, 6}, true},
		{"two insertions at same point", Span{4, 4}, Span{4, 4}, true},
		{"insertion at edge", Span{4, 4}, Span{4, 8}, false},
		{"insertion inside", Span{5, 5}, Span{4, 8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestSpan_Cover(t *testing.T) {
	assert.Equal(t, Span{2, 9}, Span{2, 5}.Cover(Span{4, 9}))
	assert.True(t, Span{2, 9}.Contains(Span{4, 9}))
	assert.False(t, Span{2, 9}.Contains(Span{1, 3}))
}

func TestLineIndex_Position(t *testing.T) {
	li := NewLineIndex([]byte("ab\ncd\n\nef"))

	tests := []struct {
		offset int
		want   LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{8, LineCol{4, 2}},
		{99, LineCol{4, 3}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, li.Position(tt.offset), "offset %d", tt.offset)
	}

	assert.Equal(t, Span{3, 5}, li.LineBounds(2))
	assert.Equal(t, Span{7, 9}, li.LineBounds(4))
	assert.Equal(t, Span{}, li.LineBounds(9))
}

func TestParseDetector(t *testing.T) {
	d, err := ParseDetector(" Grammar ")
	assert.NoError(t, err)
	assert.Equal(t, DetectorGrammar, d)

	_, err = ParseDetector("oracle")
	assert.Error(t, err)
}
