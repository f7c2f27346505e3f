// Package diagnostics defines Olive's structured error taxonomy. A
// single Diagnostic type carries a Kind plus whatever kind-specific
// detail applies, rather than a separate error struct per pipeline
// stage.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type Kind string

const (
	// I/O, at the CLI boundary.
	OpenRead        Kind = "OpenRead"
	OpenWrite       Kind = "OpenWrite"
	Read            Kind = "Read"
	Write           Kind = "Write"
	UTF8Decode      Kind = "UTF8Decode"
	Serialize       Kind = "Serialize"
	Deserialize     Kind = "Deserialize"
	Extension       Kind = "Extension"
	CompileCompiled Kind = "CompileCompiled"

	// Lexical / parse.
	InvalidToken    Kind = "InvalidToken"
	UnexpectedToken Kind = "UnexpectedToken"
	NumberFormat    Kind = "NumberFormat"
	InvalidEscape   Kind = "InvalidEscape"

	// Codegen.
	ParseInteger     Kind = "ParseInteger"
	ParseFloat       Kind = "ParseFloat"
	Access           Kind = "Access"
	Assign           Kind = "Assign"
	BreakOutsideLoop Kind = "BreakOutsideWhile"

	// Runtime.
	IncorrectType    Kind = "IncorrectType"
	UnmatchingTypes  Kind = "UnmatchingTypes"
	IndexOutOfBounds Kind = "IndexOutOfBounds"
	CallArgs         Kind = "CallArgs"
	VariableNotFound Kind = "VariableNotFound"
	DivideByZero     Kind = "DivideByZero"
)

// Diagnostic is a single structured error. Line/Column are optional
// (zero value means "unknown position").
type Diagnostic struct {
	File    string
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func New(kind Kind, line, column int, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Line: line, Column: column, Message: message}
}

func (d *Diagnostic) WithFile(file string) *Diagnostic {
	d.File = file
	return d
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error", d.Kind)
	if d.File != "" {
		fmt.Fprintf(&b, " in %s", d.File)
	}
	if d.Line != 0 || d.Column != 0 {
		fmt.Fprintf(&b, " (line %d, column %d)", d.Line, d.Column)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	return b.String()
}

// UnexpectedTokenDiagnostic builds an UnexpectedToken diagnostic and,
// when one of the expected lexemes is a close fuzzy match for what was
// actually found, appends a "did you mean" suggestion.
func UnexpectedTokenDiagnostic(line, column int, expected []string, found string) *Diagnostic {
	msg := fmt.Sprintf("expected one of %s, found %q", strings.Join(expected, ", "), found)
	if best := closestMatch(found, expected); best != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, best)
	}
	return New(UnexpectedToken, line, column, msg)
}

// VariableNotFoundDiagnostic builds a VariableNotFound diagnostic,
// suggesting the closest known name when one is a plausible typo fix.
func VariableNotFoundDiagnostic(line, column int, name string, known []string) *Diagnostic {
	msg := fmt.Sprintf("variable %q is not defined", name)
	if best := closestMatch(name, known); best != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, best)
	}
	return New(VariableNotFound, line, column, msg)
}

func closestMatch(needle string, candidates []string) string {
	best := ""
	bestRank := -1
	for _, c := range candidates {
		if c == needle {
			continue
		}
		rank := fuzzy.LevenshteinDistance(needle, c)
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = c
		}
	}
	// Only surface a suggestion when it's plausibly a typo (edit
	// distance at most half the name's length), not a wild guess
	// across an unrelated name.
	if bestRank >= 0 && bestRank <= len(needle)/2 {
		return best
	}
	return ""
}
