package checkers

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"

	m "quill.dev/pkg/quill/internal/model"
)

// segment is a piece of chunk text and its range.
type segment struct {
	Text  string
	Range m.Range
}

// wordSegments splits text at UAX #29 word boundaries and keeps the segments
// that contain at least one letter.
func wordSegments(text string) []segment {
	var out []segment

	offset := 0
	tokens := words.FromString(text)

	for tokens.Next() {
		value := tokens.Value()
		start := offset
		offset += len(value)

		if hasLetter(value) {
			out = append(out, segment{Text: value, Range: m.Range{Start: start, End: offset}})
		}
	}

	return out
}

// sentenceSegments splits text at UAX #29 sentence boundaries.
func sentenceSegments(text string) []segment {
	var out []segment

	offset := 0
	tokens := sentences.FromString(text)

	for tokens.Next() {
		value := tokens.Value()
		out = append(out, segment{Text: value, Range: m.Range{Start: offset, End: offset + len(value)}})
		offset += len(value)
	}

	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}

// runeOffsets returns the byte offset of every rune in s followed by len(s),
// so that offsets[i] is the byte position of rune index i.
func runeOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}

	return append(offsets, len(s))
}

// CountWords returns the number of UAX #29 words in text that contain a
// letter.
func CountWords(text string) int {
	return len(wordSegments(text))
}
