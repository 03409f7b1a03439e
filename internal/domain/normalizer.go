package domain

import (
	"fmt"
	"regexp"
	"strings"

	m "quill.dev/pkg/quill/internal/model"
)

// Normalizer turns fragments into checkable chunks, one per fragment group.
type Normalizer interface {
	Normalize(path m.Path, fragments []m.Fragment, content []byte) ([]*m.CheckableChunk, error)
}

type normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() Normalizer {
	return &normalizer{}
}

var (
	escapeSequence = regexp.MustCompile(`\\(?:[abfnrtv\\'"]|[0-7]{3}|x[0-9a-fA-F]{2}|u[0-9a-fA-F]{4}|U[0-9a-fA-F]{8})`)
	formatVerb     = regexp.MustCompile(`%[-+# 0]*(?:\[\d+\])?(?:\d+|\*)?(?:\.(?:\d+|\*)?)?(?:\[\d+\])?[a-zA-Z%]`)
)

func (n *normalizer) Normalize(path m.Path, fragments []m.Fragment, content []byte) ([]*m.CheckableChunk, error) {
	for i := 1; i < len(fragments); i++ {
		if fragments[i].Span.Start < fragments[i-1].Span.End {
			return nil, fmt.Errorf("%s: overlapping fragments at %s and %s", path, fragments[i-1].Span, fragments[i].Span)
		}
	}

	var chunks []*m.CheckableChunk

	for _, group := range groupFragments(fragments) {
		chunk, err := normalizeGroup(path, group, content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

func groupFragments(fragments []m.Fragment) [][]m.Fragment {
	var groups [][]m.Fragment

	for i := 0; i < len(fragments); {
		j := i + 1
		for j < len(fragments) && fragments[j].Group == fragments[i].Group {
			j++
		}

		groups = append(groups, fragments[i:j])
		i = j
	}

	return groups
}

// joined is the intermediate document built from the stripped lines of one
// group, with its own map back to source bytes.
type joined struct {
	text     []byte
	mappings []m.Mapping
}

func (j *joined) appendMapped(content []byte, span m.Span) {
	if span.Empty() {
		return
	}

	start := len(j.text)
	j.text = append(j.text, content[span.Start:span.End]...)
	j.mappings = append(j.mappings, m.Mapping{Chunk: m.Range{Start: start, End: len(j.text)}, Source: span})
}

func (j *joined) appendSynthetic(b byte) {
	j.text = append(j.text, b)
}

func normalizeGroup(path m.Path, group []m.Fragment, content []byte) (*m.CheckableChunk, error) {
	lines := stripLines(group, content)

	doc := &joined{}

	for i, line := range lines {
		if i > 0 {
			doc.appendSynthetic('\n')
		}

		if group[i].Kind != m.KindStringLiteral {
			doc.appendMapped(content, line)

			continue
		}

		appendWithoutExclusions(doc, content, line, group[i].Quote)
	}

	return compose(path, group[0].Kind, doc, content)
}

// appendWithoutExclusions copies a string literal line, replacing escape
// sequences and format verbs with a synthetic space.
func appendWithoutExclusions(doc *joined, content []byte, line m.Span, quote byte) {
	text := content[line.Start:line.End]

	var excluded [][]int
	if quote == '"' {
		excluded = append(excluded, escapeSequence.FindAllIndex(text, -1)...)
	}

	excluded = mergeRegions(append(excluded, formatVerb.FindAllIndex(text, -1)...))

	pos := 0
	for _, r := range excluded {
		doc.appendMapped(content, m.Span{Start: line.Start + pos, End: line.Start + r[0]})
		doc.appendSynthetic(' ')
		pos = r[1]
	}

	doc.appendMapped(content, m.Span{Start: line.Start + pos, End: line.End})
}

func mergeRegions(regions [][]int) [][]int {
	if len(regions) < 2 {
		return regions
	}

	sortRegions(regions)

	out := [][]int{regions[0]}
	for _, r := range regions[1:] {
		last := out[len(out)-1]
		if r[0] < last[1] {
			last[1] = max(last[1], r[1])

			continue
		}

		out = append(out, r)
	}

	return out
}

func sortRegions(regions [][]int) {
	for i := 1; i < len(regions); i++ {
		for j := i; j > 0 && regions[j][0] < regions[j-1][0]; j-- {
			regions[j], regions[j-1] = regions[j-1], regions[j]
		}
	}
}

// compose walks the prose segments of the joined document and copies them
// into the chunk text, inserting synthetic separators where segments are not
// adjacent.
func compose(path m.Path, kind m.FragmentKind, doc *joined, content []byte) (*m.CheckableChunk, error) {
	var (
		buf      strings.Builder
		mappings []m.Mapping
	)

	for _, seg := range proseSegments(doc.text) {
		start := seg.Start

		if seg.Sep != sepNone && buf.Len() > 0 {
			switch {
			case endsWithSpace(buf.String()):
				start = skipSpace(doc.text, start, seg.Stop)
			case isSpace(doc.text[start]):
				if seg.Sep == sepNewline {
					buf.WriteByte('\n')

					start = skipSpace(doc.text, start, seg.Stop)
				}
			case seg.Sep == sepNewline:
				buf.WriteByte('\n')
			default:
				buf.WriteByte(' ')
			}
		}

		if buf.Len() == 0 {
			start = skipSpace(doc.text, start, seg.Stop)
		}

		if start >= seg.Stop {
			continue
		}

		offset := buf.Len()
		buf.Write(doc.text[start:seg.Stop])
		mappings = translate(mappings, doc.mappings, start, seg.Stop, offset)
	}

	if len(mappings) == 0 || strings.TrimSpace(buf.String()) == "" {
		return nil, nil
	}

	return m.NewCheckableChunk(path, kind, buf.String(), mappings, content)
}

// translate adds chunk mappings for the joined range [start, stop) that is
// copied to the chunk at offset. Mappings contiguous on both sides are merged.
func translate(out, joinedMaps []m.Mapping, start, stop, offset int) []m.Mapping {
	for _, jm := range joinedMaps {
		lo := max(start, jm.Chunk.Start)
		hi := min(stop, jm.Chunk.End)

		if lo >= hi {
			continue
		}

		src := jm.Source.Start + (lo - jm.Chunk.Start)
		next := m.Mapping{
			Chunk:  m.Range{Start: offset + lo - start, End: offset + hi - start},
			Source: m.Span{Start: src, End: src + hi - lo},
		}

		if n := len(out); n > 0 && out[n-1].Chunk.End == next.Chunk.Start && out[n-1].Source.End == next.Source.Start {
			out[n-1].Chunk.End = next.Chunk.End
			out[n-1].Source.End = next.Source.End

			continue
		}

		out = append(out, next)
	}

	return out
}

// stripLines removes common indentation, and the leading star column of
// block comments, from each fragment of a group.
func stripLines(group []m.Fragment, content []byte) []m.Span {
	lines := make([]m.Span, len(group))
	for i, f := range group {
		lines[i] = f.Span
	}

	switch {
	case group[0].Kind == m.KindMarkdown:
		return lines
	case group[0].Kind == m.KindStringLiteral && !group[0].Block:
		return lines
	case group[0].Block:
		lines[0] = trimLeft(content, lines[0], "*")
		lines[0] = trimLeft(content, lines[0], " \t")

		rest := lines[1:]
		if starColumn(content, rest) {
			for i := range rest {
				if !isBlank(content, rest[i]) {
					rest[i] = trimLeft(content, rest[i], " \t")
					rest[i].Start++
				}
			}
		}

		dedent(content, rest)
	default:
		dedent(content, lines)
	}

	for i := range lines {
		if isBlank(content, lines[i]) {
			lines[i].Start = lines[i].End
		}
	}

	return lines
}

// starColumn reports whether every non-blank line starts with "*" after
// optional indentation.
func starColumn(content []byte, lines []m.Span) bool {
	seen := false

	for _, l := range lines {
		if isBlank(content, l) {
			continue
		}

		trimmed := trimLeft(content, l, " \t")
		if trimmed.Empty() || content[trimmed.Start] != '*' {
			return false
		}

		seen = true
	}

	return seen
}

// dedent strips the longest whitespace prefix shared by all non-blank lines.
func dedent(content []byte, lines []m.Span) {
	prefix := ""
	first := true

	for _, l := range lines {
		if isBlank(content, l) {
			continue
		}

		ws := string(content[l.Start:trimLeft(content, l, " \t").Start])
		if first {
			prefix, first = ws, false

			continue
		}

		prefix = commonPrefix(prefix, ws)
	}

	for i := range lines {
		if !isBlank(content, lines[i]) {
			lines[i].Start += len(prefix)
		}
	}
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:n]
}

func trimLeft(content []byte, s m.Span, cutset string) m.Span {
	for s.Start < s.End && strings.IndexByte(cutset, content[s.Start]) >= 0 {
		s.Start++
	}

	return s
}

func isBlank(content []byte, s m.Span) bool {
	return trimLeft(content, s, " \t\r").Empty()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func endsWithSpace(s string) bool {
	return s != "" && isSpace(s[len(s)-1])
}

func skipSpace(text []byte, start, stop int) int {
	for start < stop && isSpace(text[start]) {
		start++
	}

	return start
}
