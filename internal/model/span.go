package model

import (
	"fmt"
	"sort"
)

// Span is a half-open byte interval [Start, End) within a source file.
type Span struct {
	Start int
	End   int
}

// Range is a half-open byte interval [Start, End) within a chunk's text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Contains reports whether other lies completely inside s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether two spans share at least one byte. Two empty
// spans at the same offset are treated as overlapping so that insertions at
// one point conflict with each other.
func (s Span) Overlaps(other Span) bool {
	if s.Empty() && other.Empty() {
		return s.Start == other.Start
	}

	if s.Empty() {
		return other.Start < s.Start && s.Start < other.End
	}

	if other.Empty() {
		return s.Start < other.Start && other.Start < s.End
	}

	return s.Start < other.End && other.Start < s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Shift moves the span by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// LineCol is a 1-based line and 1-based byte column.
type LineCol struct {
	Line int
	Col  int
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// LineIndex converts byte offsets into line/column positions.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex records the start offset of every line in content.
func NewLineIndex(content []byte) *LineIndex {
	starts := []int{0}

	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{starts: starts, size: len(content)}
}

// Position returns the line/column of a byte offset. Offsets past the end of
// the content are clamped to the end.
func (li *LineIndex) Position(offset int) LineCol {
	if offset < 0 {
		offset = 0
	}

	if offset > li.size {
		offset = li.size
	}

	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1

	return LineCol{Line: line + 1, Col: offset - li.starts[line] + 1}
}

// LineBounds returns the span of the given 1-based line without its newline.
func (li *LineIndex) LineBounds(line int) Span {
	if line < 1 || line > len(li.starts) {
		return Span{}
	}

	start := li.starts[line-1]

	end := li.size
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}

	return Span{Start: start, End: end}
}
