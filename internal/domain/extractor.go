// Package domain contains the extraction, checking and fixing workflow.
package domain

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"

	"quill.dev/pkg/quill/internal/adapter"
	m "quill.dev/pkg/quill/internal/model"
)

// ExtractOptions selects which kinds of prose are extracted from Go files.
// Doc comments are always extracted.
type ExtractOptions struct {
	DevComments    bool
	StringLiterals bool
}

// Extractor turns the content of a source file into prose fragments ordered
// by source position.
type Extractor interface {
	Extract(ctx context.Context, source m.Source, content []byte) ([]m.Fragment, error)
}

type extractor struct {
	adapter.GoFileAdapter
	opts ExtractOptions
}

// NewExtractor creates an Extractor for Go and Markdown sources.
func NewExtractor(goFileAdapter adapter.GoFileAdapter, opts ExtractOptions) Extractor {
	return &extractor{GoFileAdapter: goFileAdapter, opts: opts}
}

func (e *extractor) Extract(ctx context.Context, source m.Source, content []byte) ([]m.Fragment, error) {
	if source.Origin == nil {
		return nil, fmt.Errorf("missing source origin")
	}

	switch source.Language {
	case m.LanguageMarkdown:
		return markdownLines(content), nil
	case m.LanguageGo:
		return e.extractGo(ctx, source, content)
	default:
		return nil, fmt.Errorf("unsupported language %q for %s", source.Language, source.Path())
	}
}

// markdownLines returns one fragment per line of a Markdown document, all in
// a single group.
func markdownLines(content []byte) []m.Fragment {
	var out []m.Fragment

	for _, line := range lineSpans(content, m.Span{Start: 0, End: len(content)}) {
		out = append(out, m.Fragment{
			Kind: m.KindMarkdown,
			Span: line,
			Text: string(content[line.Start:line.End]),
		})
	}

	return out
}

func (e *extractor) extractGo(ctx context.Context, source m.Source, content []byte) ([]m.Fragment, error) {
	fset := token.NewFileSet()

	file, err := e.Parse(ctx, fset, string(source.Path()), content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &m.ParseError{Path: source.Path(), Err: err}
	}

	tf := fset.File(file.Pos())
	docs := e.DocComments(file)

	var out []m.Fragment

	group := 0

	for _, cg := range file.Comments {
		doc := docs[cg]
		if !doc && !e.opts.DevComments {
			continue
		}

		group++
		inLineRun := false

		for _, c := range cg.List {
			start := tf.Offset(c.Slash)

			if bytes.HasPrefix(content[start:], []byte("//")) {
				if !inLineRun {
					group++
					inLineRun = true
				}

				if frag, ok := lineComment(content, start, doc, group); ok {
					out = append(out, frag)
				}

				continue
			}

			inLineRun = false
			group++

			out = append(out, blockComment(content, start, doc, group)...)
		}
	}

	if e.opts.StringLiterals {
		for _, lit := range e.StringLiterals(file) {
			group++

			out = append(out, stringLiteral(content, tf.Offset(lit.ValuePos), lit, group)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})

	return out, nil
}

// lineComment builds the fragment for the // comment at start. Extra slashes
// as in "///" belong to the marker. Directives are dropped.
func lineComment(content []byte, start int, doc bool, group int) (m.Fragment, bool) {
	end := lineEnd(content, start)
	body := string(content[start+2 : end])

	if isDirective(body) {
		return m.Fragment{}, false
	}

	marker := 2
	for start+marker < end && content[start+marker] == '/' {
		marker++
	}

	kind := m.KindLineComment
	if doc {
		kind = m.KindDocComment
	}

	span := m.Span{Start: start + marker, End: end}

	return m.Fragment{Kind: kind, Group: group, Span: span, Text: string(content[span.Start:span.End])}, true
}

func blockComment(content []byte, start int, doc bool, group int) []m.Fragment {
	closing := bytes.Index(content[start+2:], []byte("*/"))
	if closing < 0 {
		return nil
	}

	inner := m.Span{Start: start + 2, End: start + 2 + closing}

	kind := m.KindBlockComment
	if doc {
		kind = m.KindDocComment
	}

	var out []m.Fragment

	for _, line := range lineSpans(content, inner) {
		out = append(out, m.Fragment{
			Kind:  kind,
			Group: group,
			Span:  line,
			Text:  string(content[line.Start:line.End]),
			Block: true,
		})
	}

	return out
}

func stringLiteral(content []byte, start int, lit *ast.BasicLit, group int) []m.Fragment {
	quote := content[start]

	var inner m.Span

	switch quote {
	case '`':
		closing := bytes.IndexByte(content[start+1:], '`')
		if closing < 0 {
			return nil
		}

		inner = m.Span{Start: start + 1, End: start + 1 + closing}
	case '"':
		inner = m.Span{Start: start + 1, End: start + len(lit.Value) - 1}
	default:
		return nil
	}

	var out []m.Fragment

	for _, line := range lineSpans(content, inner) {
		out = append(out, m.Fragment{
			Kind:  m.KindStringLiteral,
			Group: group,
			Span:  line,
			Text:  string(content[line.Start:line.End]),
			Block: quote == '`',
			Quote: quote,
		})
	}

	return out
}

// lineSpans splits within into lines, excluding newlines and a trailing
// carriage return.
func lineSpans(content []byte, within m.Span) []m.Span {
	var out []m.Span

	pos := within.Start
	for pos <= within.End {
		end := pos + bytes.IndexByte(content[pos:within.End], '\n')
		next := end + 1

		if end < pos {
			end = within.End
			next = within.End + 1
		}

		lineEnd := end
		if lineEnd > pos && content[lineEnd-1] == '\r' {
			lineEnd--
		}

		out = append(out, m.Span{Start: pos, End: lineEnd})
		pos = next
	}

	return out
}

func lineEnd(content []byte, start int) int {
	end := bytes.IndexByte(content[start:], '\n')
	if end < 0 {
		end = len(content)
	} else {
		end += start
	}

	if end > start && content[end-1] == '\r' {
		end--
	}

	return end
}

// isDirective reports whether the text after "//" is a tool directive such
// as "go:generate", "nolint:errcheck", "line foo.go:1" or "+build linux".
func isDirective(body string) bool {
	if strings.HasPrefix(body, "line ") || strings.HasPrefix(body, "extern ") ||
		strings.HasPrefix(body, "export ") || strings.HasPrefix(strings.TrimSpace(body), "+build") {
		return true
	}

	if strings.HasPrefix(body, "nolint") {
		return true
	}

	colon := strings.Index(body, ":")
	if colon <= 0 || colon+1 >= len(body) {
		return false
	}

	for i := 0; i <= colon+1; i++ {
		if i == colon {
			continue
		}

		b := body[i]
		if !('a' <= b && b <= 'z' || '0' <= b && b <= '9') {
			return false
		}
	}

	return true
}
