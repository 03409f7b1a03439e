package checkers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	m "quill.dev/pkg/quill/internal/model"
)

// DefaultIgnorePatterns skip tokens that are rarely prose: acronyms and
// hexadecimal-looking runs.
var DefaultIgnorePatterns = []string{
	`^[A-Z]{2,}s?$`,
	`^[0-9a-fA-F]{6,}$`,
}

// ignoreAnnotation marks words that should be accepted within a chunk, as in
// "spell:ignore goldmark,bbolt".
var ignoreAnnotation = regexp.MustCompile(`spell:ignore\s+(\S+)`)

// SpellingConfig tunes the dictionary backend.
type SpellingConfig struct {
	MaxSuggestions int
	MaxDistance    int
	// Words are accepted in addition to the dictionary, case-insensitively.
	Words []string
	// IgnorePatterns are regular expressions matched against whole tokens.
	IgnorePatterns []string
	CacheSize      int
}

// Spelling flags words that are not in the dictionary.
type Spelling struct {
	dict    *Dictionary
	custom  map[string]bool
	ignore  []*regexp.Regexp
	cache   *lru.Cache[string, []string]
	limit   int
	maxDist int
}

// NewSpelling wires a dictionary into a Checker.
func NewSpelling(dict *Dictionary, cfg SpellingConfig) (*Spelling, error) {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 5
	}

	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = 2
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}

	cache, err := lru.New[string, []string](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &Spelling{
		dict:    dict,
		custom:  make(map[string]bool, len(cfg.Words)),
		cache:   cache,
		limit:   cfg.MaxSuggestions,
		maxDist: cfg.MaxDistance,
	}

	for _, w := range cfg.Words {
		s.custom[strings.ToLower(normalizeWord(w))] = true
	}

	for _, p := range cfg.IgnorePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}

		s.ignore = append(s.ignore, re)
	}

	return s, nil
}

// Detector implements Checker.
func (s *Spelling) Detector() m.Detector {
	return m.DetectorDictionary
}

// Check implements Checker.
func (s *Spelling) Check(ctx context.Context, chunk *m.CheckableChunk) ([]m.RawSuggestion, error) {
	allowed, annotated := annotations(chunk.Text)

	var out []m.RawSuggestion

	for _, w := range wordSegments(chunk.Text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if inAny(annotated, w.Range) || s.skip(w.Text) || allowed[strings.ToLower(normalizeWord(w.Text))] {
			continue
		}

		if s.dict.Contains(w.Text) {
			continue
		}

		out = append(out, m.RawSuggestion{
			Detector:     m.DetectorDictionary,
			Range:        w.Range,
			Message:      fmt.Sprintf("Unknown word %q", w.Text),
			Replacements: s.suggest(w.Text),
		})
	}

	return out, nil
}

func (s *Spelling) suggest(word string) []string {
	if cached, ok := s.cache.Get(word); ok {
		return cached
	}

	candidates := s.dict.Suggest(word, s.limit, s.maxDist)
	s.cache.Add(word, candidates)

	return candidates
}

// skip filters tokens that look like code rather than prose.
func (s *Spelling) skip(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return true
	}

	if strings.ContainsAny(word, "0123456789_.:/@") {
		return true
	}

	if isCamel(word) {
		return true
	}

	if s.custom[strings.ToLower(normalizeWord(word))] {
		return true
	}

	for _, re := range s.ignore {
		if re.MatchString(word) {
			return true
		}
	}

	return false
}

// isCamel reports an upper-case letter following a lower-case one, as in
// camelCase or PascalCase identifiers.
func isCamel(word string) bool {
	prevLower := false

	for _, r := range word {
		if unicode.IsUpper(r) && prevLower {
			return true
		}

		prevLower = unicode.IsLower(r)
	}

	return false
}

// annotations collects the words listed after spell:ignore and the ranges
// of the annotations themselves.
func annotations(text string) (map[string]bool, []m.Range) {
	allowed := make(map[string]bool)

	var ranges []m.Range

	for _, loc := range ignoreAnnotation.FindAllStringSubmatchIndex(text, -1) {
		ranges = append(ranges, m.Range{Start: loc[0], End: loc[1]})

		for _, w := range strings.Split(text[loc[2]:loc[3]], ",") {
			if w = strings.TrimSpace(w); w != "" {
				allowed[strings.ToLower(normalizeWord(w))] = true
			}
		}
	}

	return allowed, ranges
}

func inAny(ranges []m.Range, r m.Range) bool {
	for _, x := range ranges {
		if x.Start <= r.Start && r.End <= x.End {
			return true
		}
	}

	return false
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func applyCase(style letterCase, word string) string {
	switch style {
	case caseTitle:
		if caseOf(word) == caseLower {
			return titleCase(word)
		}

		return word
	case caseUpper:
		return cases.Upper(language.English).String(word)
	default:
		return word
	}
}
