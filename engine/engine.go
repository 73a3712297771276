package engine

import (
	"strings"
	"unicode"
)

// Notice is the fixed replacement text used by block mode.
const Notice = "[CONTENT FILTERED: Inappropriate language detected]"

// MaskWord censors one word with asterisks. Words of one or two runes are
// fully masked; three or four runes keep the first rune; longer words keep
// the first and last rune. Output rune count always equals input rune count.
func MaskWord(word string) string {
	runes := []rune(word)
	switch n := len(runes); {
	case n == 0:
		return ""
	case n <= 2:
		return strings.Repeat("*", n)
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-1)
	default:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
}

// MaskAll censors every whitespace-delimited token of text and rejoins the
// result with single spaces. Original whitespace runs are not reconstructed;
// downstream consumers rely on this exact output shape.
func MaskAll(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	masked := make([]string, len(words))
	for i, word := range words {
		masked[i] = MaskWord(word)
	}
	return strings.Join(masked, " ")
}

// Segment is one piece of a sentence split: either sentence content or a
// terminator run (one or more of . ! ? plus any trailing whitespace).
type Segment struct {
	Text       string
	Terminator bool
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// SplitSentences splits text into alternating content and terminator
// segments. Concatenating the segment texts in order reproduces the input
// exactly; callers reassemble without inserting separators.
func SplitSentences(text string) []Segment {
	if text == "" {
		return nil
	}
	out := make([]Segment, 0, 4)
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if !isTerminator(runes[i]) {
			i++
			continue
		}
		if i > start {
			out = append(out, Segment{Text: string(runes[start:i])})
		}
		j := i
		for j < len(runes) && isTerminator(runes[j]) {
			j++
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		out = append(out, Segment{Text: string(runes[i:j]), Terminator: true})
		start = j
		i = j
	}
	if start < len(runes) {
		out = append(out, Segment{Text: string(runes[start:])})
	}
	return out
}

// Censorable reports whether a content segment is worth re-checking:
// it must contain something besides whitespace.
func Censorable(segment string) bool {
	return strings.TrimSpace(segment) != ""
}
