package checkers

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	m "quill.dev/pkg/quill/internal/model"
)

//go:embed rules.yaml
var defaultRules []byte

const ruleMatchTimeout = 250 * time.Millisecond

// RuleSpec is the YAML form of a grammar rule.
type RuleSpec struct {
	ID          string `yaml:"id"`
	Pattern     string `yaml:"pattern"`
	IgnoreCase  bool   `yaml:"ignore_case"`
	Replacement string `yaml:"replacement"`
	Message     string `yaml:"message"`
}

type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

type rule struct {
	RuleSpec
	re *regexp2.Regexp
}

// Grammar applies regular-expression rules to every sentence of a chunk.
type Grammar struct {
	rules []rule
}

// GrammarConfig selects the rule set.
type GrammarConfig struct {
	// RulesPath points at an extra YAML rule file appended to the built-ins.
	RulesPath string
	// Disabled lists rule ids to skip.
	Disabled []string
}

// NewGrammar compiles the built-in rules plus any configured extras.
func NewGrammar(cfg GrammarConfig) (*Grammar, error) {
	specs, err := ParseRules(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("built-in grammar rules: %w", err)
	}

	if cfg.RulesPath != "" {
		// #nosec G304 - rule file path is user configuration
		data, err := os.ReadFile(cfg.RulesPath)
		if err != nil {
			return nil, &m.IOError{Path: m.Path(cfg.RulesPath), Op: "read", Err: err}
		}

		extra, err := ParseRules(data)
		if err != nil {
			return nil, fmt.Errorf("grammar rules %s: %w", cfg.RulesPath, err)
		}

		specs = append(specs, extra...)
	}

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, id := range cfg.Disabled {
		disabled[id] = true
	}

	g := &Grammar{}

	for _, spec := range specs {
		if disabled[spec.ID] {
			continue
		}

		opts := regexp2.None
		if spec.IgnoreCase {
			opts |= regexp2.IgnoreCase
		}

		re, err := regexp2.Compile(spec.Pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", spec.ID, err)
		}

		re.MatchTimeout = ruleMatchTimeout

		g.rules = append(g.rules, rule{RuleSpec: spec, re: re})
	}

	return g, nil
}

// ParseRules decodes a YAML rule file.
func ParseRules(data []byte) ([]RuleSpec, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	for i, r := range f.Rules {
		if r.ID == "" || r.Pattern == "" || r.Message == "" {
			return nil, fmt.Errorf("rule %d: id, pattern and message are required", i)
		}
	}

	return f.Rules, nil
}

// Rules returns the ids of the active rules.
func (g *Grammar) Rules() []string {
	ids := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		ids = append(ids, r.ID)
	}

	return ids
}

// Detector implements Checker.
func (g *Grammar) Detector() m.Detector {
	return m.DetectorGrammar
}

// Check implements Checker.
func (g *Grammar) Check(ctx context.Context, chunk *m.CheckableChunk) ([]m.RawSuggestion, error) {
	var out []m.RawSuggestion

	for _, sentence := range sentenceSegments(chunk.Text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offsets := runeOffsets(sentence.Text)

		for _, r := range g.rules {
			found, err := r.apply(sentence.Text, offsets)
			if err != nil {
				slog.Warn("Grammar rule failed", "rule", r.ID, "path", chunk.Path, "error", err)

				continue
			}

			for _, f := range found {
				f.Range.Start += sentence.Range.Start
				f.Range.End += sentence.Range.Start
				out = append(out, f)
			}
		}
	}

	return out, nil
}

func (r rule) apply(text string, offsets []int) ([]m.RawSuggestion, error) {
	var out []m.RawSuggestion

	match, err := r.re.FindStringMatch(text)

	for match != nil && err == nil {
		start := offsets[match.Index]
		end := offsets[match.Index+match.Length]
		matched := text[start:end]

		replacement, rerr := r.replacement(text, start, end)
		if rerr != nil {
			return out, rerr
		}

		if replacement != matched {
			out = append(out, m.RawSuggestion{
				Detector:     m.DetectorGrammar,
				Range:        m.Range{Start: start, End: end},
				Message:      strings.ReplaceAll(r.Message, "{match}", matched),
				Replacements: []string{replacement},
			})
		}

		match, err = r.re.FindNextMatch(match)
	}

	return out, err
}

// replacement expands the rule template for the match at [start, end) by
// replacing only that occurrence and cutting the unchanged context back off.
func (r rule) replacement(text string, start, end int) (string, error) {
	replaced, err := r.re.Replace(text, r.Replacement, start, 1)
	if err != nil {
		return "", err
	}

	tail := len(text) - end
	if len(replaced)-tail < start {
		return "", fmt.Errorf("replacement for %q did not line up", text[start:end])
	}

	return replaced[start : len(replaced)-tail], nil
}
