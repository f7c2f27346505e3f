// Package parser implements Olive's recursive-descent grammar, turning
// a token stream into located AST nodes. The peek/advance/isMatch/
// consume scaffolding backs a grammar generalized to Olive's full
// expression precedence chain and statement set.
package parser

import (
	"github.com/informatter/olive/internal/ast"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/token"
)

// Parser consumes a flat token slice (already lexed) and produces a
// list of top-level statements plus accumulated diagnostics. Parsing
// does not silently recover mid-statement: on error, the current
// top-level statement is abandoned and the parser resynchronizes at
// the next top-level boundary (see Parse).
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(t token.Type) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.Type, expected ...string) (token.Token, *diagnostics.Diagnostic) {
	if p.check(t) {
		return p.advance(), nil
	}
	tok := p.peek()
	if len(expected) == 0 {
		expected = []string{string(t)}
	}
	return token.Token{}, diagnostics.UnexpectedTokenDiagnostic(tok.Line, tok.Column, expected, tok.Lexeme)
}

// Parse parses the whole token stream into top-level statements,
// collecting one diagnostic per failed top-level statement and
// resynchronizing at the next statement boundary rather than aborting
// the whole parse.
func (p *Parser) Parse() ([]ast.Statement, []*diagnostics.Diagnostic) {
	var statements []ast.Statement
	var errs []*diagnostics.Diagnostic

	for !p.atEnd() {
		start := p.pos
		stmt, err := p.statement()
		if err != nil {
			errs = append(errs, err)
			p.pos = start
			for depth := 0; !p.atEnd(); {
				t := p.advance()
				if t.Type == token.LBRACE {
					depth++
				} else if t.Type == token.RBRACE {
					depth--
				}
				if depth <= 0 && (t.Type == token.SEMICOLON || (t.Type == token.RBRACE && !p.check(token.SEMICOLON))) {
					break
				}
			}
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, errs
}

func (p *Parser) statement() (ast.Statement, *diagnostics.Diagnostic) {
	switch {
	case p.check(token.LBRACE):
		return p.blockStatement()
	case p.check(token.RETURN):
		return p.returnStatement()
	case p.check(token.BREAK):
		return p.breakStatement()
	case p.check(token.CONTINUE):
		return p.continueStatement()
	case p.check(token.WHILE):
		return p.whileStatement()
	case p.check(token.IF):
		return p.ifStatement()
	case p.check(token.FOR), p.check(token.IN):
		tok := p.advance()
		return nil, diagnostics.UnexpectedTokenDiagnostic(tok.Line, tok.Column,
			[]string{"statement"}, tok.Lexeme)
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) blockStatement() (ast.Statement, *diagnostics.Diagnostic) {
	open := p.advance() // consume '{'
	var statements []ast.Statement
	for !p.check(token.RBRACE) && !p.atEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	close, err := p.consume(token.RBRACE, "}")
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Statements: statements, Pos: ast.NewSpan(open.Start, close.End)}, nil
}

func (p *Parser) returnStatement() (ast.Statement, *diagnostics.Diagnostic) {
	start := p.advance() // 'return'
	var value ast.Expression
	if !p.check(token.SEMICOLON) {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	semi, err := p.consume(token.SEMICOLON, ";")
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value, Pos: ast.NewSpan(start.Start, semi.End)}, nil
}

func (p *Parser) breakStatement() (ast.Statement, *diagnostics.Diagnostic) {
	start := p.advance()
	semi, err := p.consume(token.SEMICOLON, ";")
	if err != nil {
		return nil, err
	}
	return &ast.BreakStmt{Pos: ast.NewSpan(start.Start, semi.End)}, nil
}

func (p *Parser) continueStatement() (ast.Statement, *diagnostics.Diagnostic) {
	start := p.advance()
	semi, err := p.consume(token.SEMICOLON, ";")
	if err != nil {
		return nil, err
	}
	return &ast.ContinueStmt{Pos: ast.NewSpan(start.Start, semi.End)}, nil
}

func (p *Parser) whileStatement() (ast.Statement, *diagnostics.Diagnostic) {
	start := p.advance() // 'while'
	if _, err := p.consume(token.LPAREN, "("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	if _, err := p.consumeCheck(token.LBRACE, "{"); err != nil {
		return nil, err
	}
	bodyStmt, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	body := bodyStmt.(*ast.BlockStmt)
	_, end := body.Span()
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: ast.NewSpan(start.Start, end)}, nil
}

func (p *Parser) ifStatement() (ast.Statement, *diagnostics.Diagnostic) {
	start := p.advance() // 'if'
	if _, err := p.consume(token.LPAREN, "("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	if _, err := p.consumeCheck(token.LBRACE, "{"); err != nil {
		return nil, err
	}
	thenStmt, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	then := thenStmt.(*ast.BlockStmt)
	_, end := then.Span()

	// `else if ...` is sugar for an else-block containing a single
	// nested IfStmt, so IfStmt.Else is always a *BlockStmt.
	var elseBlock *ast.BlockStmt
	if p.match(token.ELSE) {
		if p.check(token.IF) {
			nested, err := p.ifStatement()
			if err != nil {
				return nil, err
			}
			nestedStart, nestedEnd := nested.Span()
			elseBlock = &ast.BlockStmt{
				Statements: []ast.Statement{nested},
				Pos:        ast.NewSpan(nestedStart, nestedEnd),
			}
			end = nestedEnd
		} else {
			elseStmt, err := p.blockStatement()
			if err != nil {
				return nil, err
			}
			elseBlock = elseStmt.(*ast.BlockStmt)
			_, end = elseBlock.Span()
		}
	}

	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBlock, Pos: ast.NewSpan(start.Start, end)}, nil
}

// expressionStatement parses `expr;` where expr must be a call or an
// assignment; any other expression used as a whole statement is a
// parse-time error.
func (p *Parser) expressionStatement() (ast.Statement, *diagnostics.Diagnostic) {
	startTok := p.peek()
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	if p.check(token.ASSIGN) {
		p.advance()
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		if !isAssignable(expr) {
			return nil, diagnostics.New(diagnostics.Assign, startTok.Line, startTok.Column,
				"invalid assignment target")
		}
		semi, err := p.consume(token.SEMICOLON, ";")
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{LHS: expr, RHS: rhs, Pos: ast.NewSpan(startTok.Start, semi.End)}, nil
	}

	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return nil, diagnostics.New(diagnostics.UnexpectedToken, startTok.Line, startTok.Column,
			"invalid expression statement: only calls and assignments may appear as statements")
	}
	semi, err := p.consume(token.SEMICOLON, ";")
	if err != nil {
		return nil, err
	}
	_, end := call.Span()
	_ = end
	return &ast.CallStmt{Call: call, Pos: ast.NewSpan(startTok.Start, semi.End)}, nil
}

// isAssignable enforces the LHS restriction: variable, index
// expression, or an access chain terminating in a name (Access is
// itself the terminal form, so any Access or Index node qualifies).
func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Variable, *ast.Index, *ast.Access:
		return true
	default:
		return false
	}
}

// consumeCheck is like consume but used purely to validate the next
// token without re-deriving an expected-set message (used right before
// calling a sub-parser that will itself consume the token).
func (p *Parser) consumeCheck(t token.Type, expected string) (token.Token, *diagnostics.Diagnostic) {
	if !p.check(t) {
		tok := p.peek()
		return token.Token{}, diagnostics.UnexpectedTokenDiagnostic(tok.Line, tok.Column, []string{expected}, tok.Lexeme)
	}
	return p.peek(), nil
}
