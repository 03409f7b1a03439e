// Package controller provides output adapters for displaying findings and
// reviewing fixes.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	m "quill.dev/pkg/quill/internal/model"
)

// UI defines how check results are shown and how fixes are reviewed.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayReport(ctx context.Context, report m.RunReport) error
	DisplayChunkStats(ctx context.Context, stats []m.ChunkStat) error
	// Review returns one decision per suggestion, in the same order.
	Review(ctx context.Context, suggestions []m.Suggestion) ([]m.Decision, error)
	DisplayFixResult(ctx context.Context, result m.FixResult) error
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// palette colors the parts of a finding. The zero value leaves text as is.
type palette struct {
	path      func(string) string
	message   func(string) string
	marker    func(string) string
	candidate func(string) string
	warning   func(string) string
}

func (p palette) paint(fn func(string) string, s string) string {
	if fn == nil {
		return s
	}

	return fn(s)
}

// writeSuggestion prints a finding in file:line:col form followed by the
// source line, a caret marker and the candidates.
func writeSuggestion(w io.Writer, p palette, s m.Suggestion) {
	location := fmt.Sprintf("%s:%s", s.Path, s.Start)

	detectors := make([]string, 0, len(s.Detectors))
	for _, d := range s.Detectors {
		detectors = append(detectors, d.String())
	}

	_, _ = fmt.Fprintf(w, "%s: %s [%s]\n", p.paint(p.path, location), p.paint(p.message, s.Message()), strings.Join(detectors, ","))

	if s.Line != "" {
		_, _ = fmt.Fprintf(w, "    %s\n", s.Line)
		_, _ = fmt.Fprintf(w, "    %s\n", p.paint(p.marker, caretLine(s)))
	}

	if len(s.Replacements) > 0 {
		_, _ = fmt.Fprintf(w, "    suggestions: %s\n", p.paint(p.candidate, strings.Join(s.Replacements, ", ")))
	}
}

// caretLine underlines the part of the suggestion on its first line. Tabs
// in the prefix are kept so the marker lines up with the source.
func caretLine(s m.Suggestion) string {
	col := min(max(s.Start.Col-1, 0), len(s.Line))

	var b strings.Builder

	for _, r := range s.Line[:col] {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}

	original := s.Original
	if nl := strings.IndexByte(original, '\n'); nl >= 0 {
		original = original[:nl]
	}

	b.WriteString(strings.Repeat("^", max(utf8.RuneCountInString(original), 1)))

	return b.String()
}

func fileStatus(f m.FileReport) string {
	switch {
	case f.Err != nil:
		return "error"
	case len(f.Warnings) > 0:
		return "partial"
	case f.Cached:
		return "cached"
	default:
		return "ok"
	}
}
