package checkers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"

	m "quill.dev/pkg/quill/internal/model"
)

// ErrNoDictionary is returned when none of the configured word lists exist.
var ErrNoDictionary = errors.New("no dictionary found")

// Dictionary is an in-memory set of accepted words.
type Dictionary struct {
	words   map[string]struct{}
	lowered map[string]struct{}
	// buckets groups lower-cased entries by rune count for candidate search.
	buckets map[int][]string
}

// NewDictionary builds a dictionary from literal words.
func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{
		words:   make(map[string]struct{}, len(words)),
		lowered: make(map[string]struct{}, len(words)),
		buckets: make(map[int][]string),
	}

	for _, w := range words {
		d.add(w)
	}

	return d
}

func (d *Dictionary) add(word string) {
	word = normalizeWord(word)
	if word == "" {
		return
	}

	if _, ok := d.words[word]; ok {
		return
	}

	d.words[word] = struct{}{}

	lower := strings.ToLower(word)
	if _, ok := d.lowered[lower]; ok {
		return
	}

	d.lowered[lower] = struct{}{}
	n := utf8.RuneCountInString(lower)
	d.buckets[n] = append(d.buckets[n], lower)
}

// Len returns the number of accepted word forms.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Contains reports whether word is spelled correctly. Capitalized and
// upper-case words match their lower-case entries, and a trailing possessive
// "'s" is ignored.
func (d *Dictionary) Contains(word string) bool {
	w := normalizeWord(word)
	if d.lookup(w) {
		return true
	}

	if base, ok := strings.CutSuffix(w, "'s"); ok && base != "" {
		return d.lookup(base)
	}

	return false
}

func (d *Dictionary) lookup(w string) bool {
	if _, ok := d.words[w]; ok {
		return true
	}

	switch caseOf(w) {
	case caseTitle:
		_, ok := d.words[strings.ToLower(w)]

		return ok
	case caseUpper:
		lower := strings.ToLower(w)
		if _, ok := d.words[lower]; ok {
			return true
		}

		_, ok := d.words[titleCase(lower)]

		return ok
	default:
		return false
	}
}

type scored struct {
	word string
	dist int
	lenD int
}

// Suggest returns up to limit entries within maxDist edits of word, closest
// first. An adjacent transposition counts as a single edit.
func (d *Dictionary) Suggest(word string, limit, maxDist int) []string {
	w := normalizeWord(word)
	lower := strings.ToLower(w)
	n := utf8.RuneCountInString(lower)

	var found []scored

	for l := n - maxDist; l <= n+maxDist; l++ {
		for _, cand := range d.buckets[l] {
			dist := editDistance(lower, cand)
			if dist == 0 || dist > maxDist {
				continue
			}

			found = append(found, scored{word: cand, dist: dist, lenD: abs(l - n)})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}

		if sa, sb := sameFirst(a.word, lower), sameFirst(b.word, lower); sa != sb {
			return sa
		}

		if a.lenD != b.lenD {
			return a.lenD < b.lenD
		}

		return a.word < b.word
	})

	style := caseOf(w)
	seen := make(map[string]bool)

	var out []string

	for _, f := range found {
		if len(out) == limit {
			break
		}

		cand := applyCase(style, d.original(f.word))
		if seen[cand] {
			continue
		}

		seen[cand] = true
		out = append(out, cand)
	}

	return out
}

// original returns the stored spelling for a lower-cased bucket entry, so
// proper nouns keep their capital letter.
func (d *Dictionary) original(lower string) string {
	if _, ok := d.words[lower]; ok {
		return lower
	}

	if t := titleCase(lower); d.has(t) {
		return t
	}

	return lower
}

func (d *Dictionary) has(w string) bool {
	_, ok := d.words[w]

	return ok
}

func editDistance(a, b string) int {
	if isTransposition(a, b) {
		return 1
	}

	return levenshtein.ComputeDistance(a, b)
}

// isTransposition reports whether b is a with one pair of adjacent runes swapped.
func isTransposition(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}

	diff := -1

	for i := range ra {
		if ra[i] == rb[i] {
			continue
		}

		if diff >= 0 {
			return i == diff+1 && ra[diff] == rb[i] && ra[i] == rb[diff] && string(ra[i+1:]) == string(rb[i+1:])
		}

		diff = i
	}

	return false
}

func sameFirst(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)

	return ra == rb
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

func normalizeWord(w string) string {
	w = norm.NFC.String(strings.TrimSpace(w))

	return strings.ReplaceAll(w, "’", "'")
}

// LoadDictionary reads every existing path. Files ending in .dic are read as
// Hunspell dictionaries together with their .aff sibling, anything else as a
// plain list with one word per line. Missing files are skipped; if none of
// the paths exist ErrNoDictionary is returned.
func LoadDictionary(paths []string, extra ...string) (*Dictionary, error) {
	d := NewDictionary(extra...)
	loaded := 0

	for _, path := range paths {
		// #nosec G304 - dictionary paths are user configuration
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Dictionary not found", "path", path)

			continue
		}

		if err != nil {
			return nil, &m.IOError{Path: m.Path(path), Op: "read", Err: err}
		}

		if strings.HasSuffix(path, ".dic") {
			err = d.loadHunspell(path, data)
		} else {
			d.loadWordList(data)
		}

		if err != nil {
			return nil, err
		}

		slog.Debug("Loaded dictionary", "path", path, "words", d.Len())

		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDictionary, strings.Join(paths, ", "))
	}

	return d, nil
}

func (d *Dictionary) loadWordList(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d.add(strings.Fields(line)[0])
	}
}

func (d *Dictionary) loadHunspell(path string, dic []byte) error {
	affPath := strings.TrimSuffix(path, ".dic") + ".aff"

	aff := &affixes{flagMode: flagASCII, prefixes: map[string][]affixRule{}, suffixes: map[string][]affixRule{}}

	// #nosec G304 - derived from a configured dictionary path
	if data, err := os.ReadFile(affPath); err == nil {
		aff, err = parseAffixes(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", affPath, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &m.IOError{Path: m.Path(affPath), Op: "read", Err: err}
	}

	scanner := bufio.NewScanner(bytes.NewReader(dic))
	first := true

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false

			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := strings.Fields(line)[0]
		word, flagStr, _ := strings.Cut(entry, "/")

		for _, form := range aff.expand(word, aff.parseFlags(flagStr)) {
			d.add(form)
		}
	}

	return scanner.Err()
}

type flagMode int

const (
	flagASCII flagMode = iota
	flagUTF8
	flagLong
	flagNum
)

type affixRule struct {
	strip string
	add   string
	cond  *regexp.Regexp
	cross bool
}

type affixes struct {
	flagMode flagMode
	prefixes map[string][]affixRule
	suffixes map[string][]affixRule
}

func parseAffixes(data []byte) (*affixes, error) {
	a := &affixes{prefixes: map[string][]affixRule{}, suffixes: map[string][]affixRule{}}
	cross := map[string]bool{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "FLAG":
			if len(fields) > 1 {
				switch fields[1] {
				case "long":
					a.flagMode = flagLong
				case "num":
					a.flagMode = flagNum
				case "UTF-8":
					a.flagMode = flagUTF8
				}
			}
		case "PFX", "SFX":
			if len(fields) == 4 {
				cross[fields[0]+fields[1]] = fields[2] == "Y"

				continue
			}

			if len(fields) < 5 {
				return nil, fmt.Errorf("malformed affix line %q", scanner.Text())
			}

			r, ok := newAffixRule(fields, fields[0] == "PFX")
			if !ok {
				continue
			}

			r.cross = cross[fields[0]+fields[1]]

			if fields[0] == "PFX" {
				a.prefixes[fields[1]] = append(a.prefixes[fields[1]], r)
			} else {
				a.suffixes[fields[1]] = append(a.suffixes[fields[1]], r)
			}
		}
	}

	return a, scanner.Err()
}

func newAffixRule(fields []string, prefix bool) (affixRule, bool) {
	r := affixRule{strip: fields[2], add: fields[3]}
	if r.strip == "0" {
		r.strip = ""
	}

	r.add, _, _ = strings.Cut(r.add, "/")
	if r.add == "0" {
		r.add = ""
	}

	if cond := fields[4]; cond != "." {
		expr := "(?:" + cond + ")$"
		if prefix {
			expr = "^(?:" + cond + ")"
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			slog.Debug("Skipping affix rule with unsupported condition", "condition", cond, "error", err)

			return r, false
		}

		r.cond = re
	}

	return r, true
}

func (a *affixes) parseFlags(s string) []string {
	if s == "" {
		return nil
	}

	var flags []string

	switch a.flagMode {
	case flagLong:
		runes := []rune(s)
		for i := 0; i+1 < len(runes); i += 2 {
			flags = append(flags, string(runes[i:i+2]))
		}
	case flagNum:
		flags = strings.Split(s, ",")
	default:
		for _, r := range s {
			flags = append(flags, string(r))
		}
	}

	return flags
}

func (r affixRule) applySuffix(word string) (string, bool) {
	if !strings.HasSuffix(word, r.strip) || (r.cond != nil && !r.cond.MatchString(word)) {
		return "", false
	}

	return word[:len(word)-len(r.strip)] + r.add, true
}

func (r affixRule) applyPrefix(word string) (string, bool) {
	if !strings.HasPrefix(word, r.strip) || (r.cond != nil && !r.cond.MatchString(word)) {
		return "", false
	}

	return r.add + word[len(r.strip):], true
}

// expand returns the stem together with every form its flags produce.
// Prefixes combine with suffixes when both rules allow cross products.
func (a *affixes) expand(word string, flags []string) []string {
	forms := []string{word}

	var crossForms []string

	for _, f := range flags {
		for _, r := range a.suffixes[f] {
			if form, ok := r.applySuffix(word); ok {
				forms = append(forms, form)
				if r.cross {
					crossForms = append(crossForms, form)
				}
			}
		}
	}

	for _, f := range flags {
		for _, r := range a.prefixes[f] {
			if form, ok := r.applyPrefix(word); ok {
				forms = append(forms, form)
			}

			if !r.cross {
				continue
			}

			for _, base := range crossForms {
				if form, ok := r.applyPrefix(base); ok {
					forms = append(forms, form)
				}
			}
		}
	}

	return forms
}

type letterCase int

const (
	caseLower letterCase = iota
	caseTitle
	caseUpper
	caseMixed
)

func caseOf(w string) letterCase {
	upper, lower := 0, 0
	firstUpper := false

	for i, r := range w {
		switch {
		case unicode.IsUpper(r):
			upper++
			if i == 0 {
				firstUpper = true
			}
		case unicode.IsLower(r):
			lower++
		}
	}

	switch {
	case upper == 0:
		return caseLower
	case lower == 0:
		return caseUpper
	case upper == 1 && firstUpper:
		return caseTitle
	default:
		return caseMixed
	}
}
