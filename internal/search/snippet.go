package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// snippetLength is how much page text semantic and keyword results show.
const snippetLength = 200

// leadingSnippet returns the first maxLen runes of text with an ellipsis when
// truncated. Newlines collapse to spaces so snippets stay single-line.
func leadingSnippet(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLen])) + "…"
}

// contextSnippet returns up to radius bytes of context on each side of the
// match at [pos, pos+matchLen), snapped to rune boundaries, with ellipses
// marking cut-off ends.
func contextSnippet(text string, pos, matchLen, radius int) string {
	// Out-of-range offsets clamp to the text bounds.
	if pos < 0 {
		pos = 0
	}
	if pos > len(text) {
		pos = len(text)
	}
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + matchLen + radius
	if end > len(text) {
		end = len(text)
	}
	// Snap to rune boundaries so we never split a multi-byte character.
	for start > 0 && start < len(text) && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	snippet := strings.Join(strings.Fields(text[start:end]), " ")
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(text) {
		snippet += "…"
	}
	return snippet
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// foldIndex returns the byte offset and length in text of the first
// case-insensitive occurrence of needle, or (-1, 0). Matching folds rune by
// rune against the original text, so the offsets stay valid even for
// characters whose byte length changes under case conversion (ToLower turns
// the two-byte "Ⱥ" into the three-byte "ⱥ").
func foldIndex(text, needle string) (pos, length int) {
	if needle == "" {
		return 0, 0
	}
	for i := 0; i < len(text); {
		if n, ok := foldPrefix(text[i:], needle); ok {
			return i, n
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return -1, 0
}

// foldPrefix reports whether s starts with needle under simple case folding
// and how many bytes of s that prefix spans.
func foldPrefix(s, needle string) (int, bool) {
	n := 0
	for _, want := range needle {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || !foldEqual(r, want) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
