// Package source maps byte offsets in a source file to line/column
// positions, exposed as a reusable, stateless lookup so codegen and
// the VM can both turn a bytecode operation's recorded offset back
// into a human position.
package source

import "strings"

// Map supports efficient offset -> (line, column) lookups over a
// fixed source text by precomputing newline offsets once.
type Map struct {
	text        string
	lineOffsets []int // byte offset of the start of each line
}

func NewMap(text string) *Map {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &Map{text: text, lineOffsets: offsets}
}

// Position returns the 1-based line and 0-based column for a byte
// offset into the source text.
func (m *Map) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(m.text) {
		offset = len(m.text)
	}
	lo, hi := 0, len(m.lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	lineStart := m.lineOffsets[lo]
	return lo + 1, offset - lineStart
}

// Lexeme returns source[start:end], used to verify the parse
// localization invariant in tests (source[start:end] round-trips the
// lexeme modulo whitespace).
func (m *Map) Lexeme(start, end int) string {
	if start < 0 || end > len(m.text) || start > end {
		return ""
	}
	return m.text[start:end]
}

// TrimmedLexeme is Lexeme with surrounding whitespace trimmed, for
// comparisons that should ignore incidental padding.
func (m *Map) TrimmedLexeme(start, end int) string {
	return strings.TrimSpace(m.Lexeme(start, end))
}
