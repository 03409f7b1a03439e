package model

import (
	"fmt"
	"strings"
)

// Detector identifies the checker backend that produced a finding.
type Detector int

const (
	// DetectorDictionary flags words missing from the loaded word lists.
	DetectorDictionary Detector = iota
	// DetectorGrammar applies local regular-expression grammar rules.
	DetectorGrammar
	// DetectorRemote forwards text to a LanguageTool server.
	DetectorRemote
)

// Detectors lists every known backend in declaration order.
var Detectors = []Detector{DetectorDictionary, DetectorGrammar, DetectorRemote}

func (d Detector) String() string {
	switch d {
	case DetectorDictionary:
		return "dictionary"
	case DetectorGrammar:
		return "grammar"
	case DetectorRemote:
		return "remote"
	default:
		return fmt.Sprintf("detector(%d)", int(d))
	}
}

// ParseDetector turns a configuration name into a Detector.
func ParseDetector(name string) (Detector, error) {
	for _, d := range Detectors {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return d, nil
		}
	}

	return 0, fmt.Errorf("unknown backend %q", name)
}

// RawSuggestion is a checker finding expressed in chunk coordinates.
type RawSuggestion struct {
	Detector     Detector
	Range        Range
	Message      string
	Replacements []string
}

// Suggestion is a finding resolved to source coordinates.
type Suggestion struct {
	Path      Path
	Span      Span
	Start     LineCol
	End       LineCol
	Original  string
	Detectors []Detector
	Messages  []string
	// Replacements are ordered by preference, best first.
	Replacements []string
	// Line is the full text of the source line where the span starts.
	Line string
}

// Message joins all reported messages.
func (s Suggestion) Message() string {
	return strings.Join(s.Messages, "; ")
}

// Edit replaces Span with Replacement. When Expect is non-empty the bytes
// currently under Span must equal it.
type Edit struct {
	Span        Span
	Replacement string
	Expect      string
}

// Decision records which candidate the user picked for a suggestion.
// Choice is an index into Suggestion.Replacements, or -1 to skip.
type Decision struct {
	Suggestion Suggestion
	Choice     int
}

// Skipped reports whether the suggestion was declined.
func (d Decision) Skipped() bool {
	return d.Choice < 0 || d.Choice >= len(d.Suggestion.Replacements)
}

// Edit converts an accepted decision into an Edit guarded by the original text.
func (d Decision) Edit() Edit {
	return Edit{
		Span:        d.Suggestion.Span,
		Replacement: d.Suggestion.Replacements[d.Choice],
		Expect:      d.Suggestion.Original,
	}
}
