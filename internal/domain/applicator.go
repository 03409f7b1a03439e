package domain

import (
	"bytes"
	"sort"

	m "quill.dev/pkg/quill/internal/model"
)

// Applicator splices edits into file content.
type Applicator interface {
	Apply(path m.Path, content []byte, edits []m.Edit) ([]byte, error)
}

type applicator struct{}

// NewApplicator creates an Applicator.
func NewApplicator() Applicator {
	return &applicator{}
}

// Apply builds the new content in one left to right pass. Offsets always
// refer to the original content. Overlapping edits, out of range spans and
// guard mismatches fail with an ApplyConflict and leave content untouched.
func (a *applicator) Apply(path m.Path, content []byte, edits []m.Edit) ([]byte, error) {
	sorted := make([]m.Edit, len(edits))
	copy(sorted, edits)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Start != sorted[j].Span.Start {
			return sorted[i].Span.Start < sorted[j].Span.Start
		}

		return sorted[i].Span.End < sorted[j].Span.End
	})

	var out bytes.Buffer

	out.Grow(len(content))

	pos := 0

	for i, e := range sorted {
		if e.Span.Start < 0 || e.Span.End > len(content) || e.Span.Start > e.Span.End {
			return nil, &m.ApplyConflict{Path: path, Span: e.Span, Reason: "span outside file"}
		}

		if i > 0 && (sorted[i-1].Span.Overlaps(e.Span) || e.Span.Start < pos) {
			return nil, &m.ApplyConflict{Path: path, Span: e.Span, Reason: "overlaps " + sorted[i-1].Span.String()}
		}

		if e.Expect != "" && string(content[e.Span.Start:e.Span.End]) != e.Expect {
			return nil, &m.ApplyConflict{Path: path, Span: e.Span, Reason: "content changed since check"}
		}

		out.Write(content[pos:e.Span.Start])
		out.WriteString(e.Replacement)
		pos = e.Span.End
	}

	out.Write(content[pos:])

	return out.Bytes(), nil
}
