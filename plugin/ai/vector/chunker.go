package vector

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the maximum rune count per chunk.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the rune count carried from one chunk into the next.
	DefaultChunkOverlap = 50
)

// Chunker splits corpus text into overlapping spans. Lines are kept whole
// when they fit; longer lines are split at sentence or word boundaries.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Invalid values fall back to the defaults and
// the overlap is always kept below the chunk size.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return Chunker{size: size, overlap: overlap}
}

// Split returns the chunks of text in document order. Output is a pure
// function of the input and the chunker settings.
func (c Chunker) Split(text string) []string {
	var chunks []string
	var cur []rune

	emit := func(r []rune) {
		if s := strings.TrimSpace(string(r)); s != "" {
			chunks = append(chunks, s)
		}
	}

	for _, line := range splitLines(text) {
		lr := []rune(line)
		if len(cur) > 0 && len(cur)+1+len(lr) > c.size {
			emit(cur)
			cur = append([]rune(nil), overlapTail(cur, c.overlap)...)
		}
		if len(cur) > 0 {
			cur = append(cur, '\n')
		}
		cur = append(cur, lr...)

		for len(cur) > c.size {
			bp := findBreakPoint(cur[:c.size])
			emit(cur[:bp])
			tail := overlapTail(cur[:bp], c.overlap)
			if len(tail) >= bp {
				tail = nil
			}
			rest := make([]rune, 0, len(tail)+len(cur)-bp)
			rest = append(rest, tail...)
			rest = append(rest, cur[bp:]...)
			cur = []rune(strings.TrimLeftFunc(string(rest), unicode.IsSpace))
		}
	}
	emit(cur)

	return chunks
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	lines := raw[:0]
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// overlapTail returns up to n trailing runes of r, starting at a word
// boundary when one exists. A chunk no longer than n is not repeated.
func overlapTail(r []rune, n int) []rune {
	if n <= 0 || len(r) <= n {
		return nil
	}

	start := len(r) - n
	if !unicode.IsSpace(r[start-1]) {
		for i := start; i < len(r); i++ {
			if unicode.IsSpace(r[i]) {
				start = i + 1
				break
			}
		}
	}
	tail := []rune(strings.TrimSpace(string(r[start:])))
	return tail
}

// findBreakPoint finds a position in the second half of r to split at,
// preferring a sentence end, then whitespace, then the hard limit.
func findBreakPoint(r []rune) int {
	half := len(r) / 2

	for i := len(r) - 1; i >= half; i-- {
		if r[i] == '.' || r[i] == '!' || r[i] == '?' {
			if i == len(r)-1 || unicode.IsSpace(r[i+1]) {
				return i + 1
			}
		}
	}

	for i := len(r) - 1; i >= half && i > 0; i-- {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}

	return len(r)
}
