// Package segment cuts text at natural boundaries: sentence ends,
// paragraph breaks, headings, newlines, then word boundaries.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize = 2000
	DefaultOverlap   = 200
)

// floorRuneBoundary returns the largest index <= i that does not split a
// multi-byte UTF-8 sequence.
func floorRuneBoundary(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// Words that end with a period without ending a sentence.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"inc": true, "ltd": true, "dept": true, "approx": true, "fig": true,
	"eq": true, "vol": true, "no": true, "gen": true, "gov": true,
	"eg": true, "ie": true,
}

var tlds = map[string]bool{
	"com": true, "org": true, "net": true, "io": true, "edu": true,
	"gov": true, "co": true,
}

var sentenceEnd = regexp.MustCompile(`[.!?](\s|$)`)

// isAbbreviation reports whether the terminator at periodIdx follows an
// abbreviation, an initial, or a TLD rather than ending a sentence.
func isAbbreviation(window string, periodIdx int) bool {
	wordStart := strings.LastIndexFunc(window[:periodIdx], unicode.IsSpace) + 1
	word := window[wordStart:periodIdx]
	if word == "" {
		return true
	}
	// For dotted tokens like "U.S" judge the final segment only.
	seg := word[strings.LastIndexByte(word, '.')+1:]
	if seg == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(seg)
	if utf8.RuneCountInString(seg) <= 2 && unicode.IsUpper(r) {
		return true
	}
	lower := strings.ToLower(seg)
	return abbreviations[lower] || tlds[lower]
}

// findLastBoundary returns the best cut position in window. Boundaries are
// only accepted in the last 30% of the window, falling back through
// sentence end, paragraph break, heading, newline, whitespace, and finally
// the full window.
func findLastBoundary(window string) int {
	minPos := len(window) * 7 / 10

	var best int
	for _, m := range sentenceEnd.FindAllStringIndex(window, -1) {
		cut := m[0] + 1 // include the terminator
		if cut >= minPos && !isAbbreviation(window, m[0]) {
			best = cut
		}
	}
	if best > 0 {
		return best
	}

	if pos := strings.LastIndex(window, "\n\n"); pos >= minPos {
		return pos
	}
	if pos := strings.LastIndex(window, "\n#"); pos >= minPos {
		return pos
	}
	if pos := strings.LastIndexByte(window, '\n'); pos >= minPos {
		return pos
	}
	if pos := strings.LastIndexFunc(window, unicode.IsSpace); pos > 0 && pos >= minPos {
		return pos
	}
	return len(window)
}

// TruncateAtBoundary returns a prefix of text of at most maxChars bytes
// ending at the best natural boundary. Multi-byte runes are never split.
func TruncateAtBoundary(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	safeEnd := floorRuneBoundary(text, maxChars)
	if safeEnd == 0 {
		return ""
	}
	return text[:findLastBoundary(text[:safeEnd])]
}

// ChunkText splits text into overlapping chunks. Each chunk ends at a
// natural boundary and is at most chunkSize bytes; consecutive chunks
// overlap by up to overlap bytes. Every byte of the input is covered by at
// least one chunk.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		if len(text)-start <= chunkSize {
			chunks = append(chunks, text[start:])
			break
		}

		windowEnd := floorRuneBoundary(text, start+chunkSize)
		actualEnd := start + findLastBoundary(text[start:windowEnd])
		chunks = append(chunks, text[start:actualEnd])

		next := actualEnd
		if actualEnd > overlap {
			next = floorRuneBoundary(text, actualEnd-overlap)
			// Don't start a chunk mid-word: advance past the partial word
			// to the next whitespace within the overlap region.
			if next > 0 && !isSpaceAt(text, next) && !isSpaceAt(text, next-1) {
				if pos := strings.IndexFunc(text[next:actualEnd], unicode.IsSpace); pos >= 0 {
					next += pos + 1
				}
			}
		}
		if next <= start {
			next = actualEnd
		}
		start = next
	}
	return chunks
}

func isSpaceAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}
