package model

import (
	"fmt"
	"sort"
)

// Mapping ties a range of chunk text to the source bytes it was copied from.
// Both sides always have the same length.
type Mapping struct {
	Chunk  Range
	Source Span
}

// CheckableChunk is normalized prose handed to checkers, together with the
// map needed to translate chunk offsets back into source offsets. Bytes of
// Text that no mapping covers are synthetic separators.
type CheckableChunk struct {
	Path     Path
	Kind     FragmentKind
	Text     string
	Mappings []Mapping
}

// NewCheckableChunk validates the position map against text and source.
// Mappings must be sorted, non-overlapping on both sides, equal in length and
// every mapped byte must equal the source byte it came from.
func NewCheckableChunk(path Path, kind FragmentKind, text string, mappings []Mapping, source []byte) (*CheckableChunk, error) {
	prevChunk, prevSource := 0, 0

	for i, mp := range mappings {
		if mp.Chunk.Len() <= 0 || mp.Chunk.Len() != mp.Source.Len() {
			return nil, fmt.Errorf("mapping %d: chunk %s and source %s differ in length", i, mp.Chunk, mp.Source)
		}

		if mp.Chunk.Start < prevChunk || mp.Source.Start < prevSource {
			return nil, fmt.Errorf("mapping %d: out of order or overlapping", i)
		}

		if mp.Chunk.End > len(text) || mp.Source.End > len(source) {
			return nil, fmt.Errorf("mapping %d: out of bounds", i)
		}

		if text[mp.Chunk.Start:mp.Chunk.End] != string(source[mp.Source.Start:mp.Source.End]) {
			return nil, fmt.Errorf("mapping %d: chunk text differs from source", i)
		}

		prevChunk, prevSource = mp.Chunk.End, mp.Source.End
	}

	return &CheckableChunk{Path: path, Kind: kind, Text: text, Mappings: mappings}, nil
}

// Resolve maps a chunk range back to a source span. The range must be fully
// covered by mappings that are contiguous in both the chunk and the source;
// anything else is reported as a MappingDefect.
func (c *CheckableChunk) Resolve(r Range) (Span, error) {
	if r.Start < 0 || r.End > len(c.Text) || r.Start > r.End {
		return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "range outside chunk"}
	}

	idx := sort.Search(len(c.Mappings), func(i int) bool {
		return c.Mappings[i].Chunk.End > r.Start
	})

	if r.Start == r.End {
		return c.resolvePoint(r, idx)
	}

	if idx == len(c.Mappings) || c.Mappings[idx].Chunk.Start > r.Start {
		return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "starts on synthetic text"}
	}

	first := c.Mappings[idx]
	start := first.Source.Start + (r.Start - first.Chunk.Start)
	cur := first

	for cur.Chunk.End < r.End {
		idx++
		if idx == len(c.Mappings) {
			return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "ends on synthetic text"}
		}

		next := c.Mappings[idx]
		if next.Chunk.Start != cur.Chunk.End {
			return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "covers synthetic text"}
		}

		if next.Source.Start != cur.Source.End {
			return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "crosses a source discontinuity"}
		}

		cur = next
	}

	end := cur.Source.Start + (r.End - cur.Chunk.Start)

	return Span{Start: start, End: end}, nil
}

func (c *CheckableChunk) resolvePoint(r Range, idx int) (Span, error) {
	if idx < len(c.Mappings) && c.Mappings[idx].Chunk.Start <= r.Start {
		off := c.Mappings[idx].Source.Start + (r.Start - c.Mappings[idx].Chunk.Start)

		return Span{Start: off, End: off}, nil
	}

	if idx > 0 && c.Mappings[idx-1].Chunk.End == r.Start {
		off := c.Mappings[idx-1].Source.End

		return Span{Start: off, End: off}, nil
	}

	return Span{}, &MappingDefect{Path: c.Path, Range: r, Reason: "insertion point on synthetic text"}
}

// SourceSpan returns the span from the first to the last mapped source byte.
func (c *CheckableChunk) SourceSpan() Span {
	if len(c.Mappings) == 0 {
		return Span{}
	}

	return Span{Start: c.Mappings[0].Source.Start, End: c.Mappings[len(c.Mappings)-1].Source.End}
}
