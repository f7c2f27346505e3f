// Package pipeline wires the lexer, parser, and codegen stages into
// the single lex-parse-generate sequence every cmd/olv subcommand
// repeats, rather than duplicating the three stages inline in each
// command.
package pipeline

import (
	"github.com/informatter/olive/internal/ast"
	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/codegen"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/lexer"
	"github.com/informatter/olive/internal/parser"
)

// Parse lexes and parses source text into a statement list, returning
// every diagnostic collected during either stage.
func Parse(src string) ([]ast.Statement, []*diagnostics.Diagnostic) {
	lex := lexer.New(src)
	tokens, lexErr := lex.Scan()
	if lexErr != nil {
		return nil, []*diagnostics.Diagnostic{lexErr}
	}
	p := parser.New(tokens)
	statements, errs := p.Parse()
	if len(errs) > 0 {
		return nil, errs
	}
	return statements, nil
}

// Compile lexes, parses, and generates bytecode for source text in one
// call, the shape every "run this file" subcommand needs.
func Compile(src string) (*bytecode.Code, []*diagnostics.Diagnostic) {
	statements, errs := Parse(src)
	if len(errs) > 0 {
		return nil, errs
	}
	return codegen.Generate(statements)
}
