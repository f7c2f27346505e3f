package parser

import (
	"github.com/informatter/olive/internal/ast"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/token"
)

// expression is the entry point for parsing expressions; it begins at
// the lowest-precedence rule, `or`.
//
// Note: assignment-as-expression is restricted at the statement level
// (expressionStatement) rather than here, since Olive only allows
// assignment as a top-level statement form, not nested inside other
// expressions (`x = (y = 1)` is not valid Olive).
func (p *Parser) expression() (ast.Expression, *diagnostics.Diagnostic) {
	return p.or()
}

func (p *Parser) or() (ast.Expression, *diagnostics.Diagnostic) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.check(token.OR) {
		opTok := p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		_, end := right.Span()
		left = &ast.Binary{Left: left, Right: right, Op: ast.OpOr, Pos: spanOf(left, end, opTok)}
	}
	return left, nil
}

func (p *Parser) and() (ast.Expression, *diagnostics.Diagnostic) {
	left, err := p.bitwiseOr()
	if err != nil {
		return nil, err
	}
	for p.check(token.AND) {
		opTok := p.advance()
		right, err := p.bitwiseOr()
		if err != nil {
			return nil, err
		}
		_, end := right.Span()
		left = &ast.Binary{Left: left, Right: right, Op: ast.OpAnd, Pos: spanOf(left, end, opTok)}
	}
	return left, nil
}

func (p *Parser) bitwiseOr() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.bitwiseXor, map[token.Type]ast.BinOp{token.PIPE: ast.OpBitOr})
}

func (p *Parser) bitwiseXor() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.bitwiseAnd, map[token.Type]ast.BinOp{token.CARET: ast.OpBitXor})
}

func (p *Parser) bitwiseAnd() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.equality, map[token.Type]ast.BinOp{token.AMP: ast.OpBitAnd})
}

func (p *Parser) equality() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.comparison, map[token.Type]ast.BinOp{
		token.EQUAL_EQUAL: ast.OpEq,
		token.NOT_EQUAL:   ast.OpNeq,
	})
}

func (p *Parser) comparison() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.concat, map[token.Type]ast.BinOp{
		token.LESS:          ast.OpLt,
		token.LESS_EQUAL:    ast.OpLte,
		token.GREATER:       ast.OpGt,
		token.GREATER_EQUAL: ast.OpGte,
	})
}

func (p *Parser) concat() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.shift, map[token.Type]ast.BinOp{token.DOLLAR: ast.OpConcat})
}

func (p *Parser) shift() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.additive, map[token.Type]ast.BinOp{
		token.SHL: ast.OpShl,
		token.SHR: ast.OpShr,
	})
}

func (p *Parser) additive() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.multiplicative, map[token.Type]ast.BinOp{
		token.PLUS:  ast.OpAdd,
		token.MINUS: ast.OpSub,
	})
}

func (p *Parser) multiplicative() (ast.Expression, *diagnostics.Diagnostic) {
	return p.leftAssocBinary(p.unary, map[token.Type]ast.BinOp{
		token.STAR:        ast.OpMul,
		token.SLASH:       ast.OpFloatDiv,
		token.SLASH_SLASH: ast.OpIntDiv,
		token.PERCENT:     ast.OpMod,
	})
}

// leftAssocBinary factors the repeated "parse a sub-rule, then while
// the next token is one of these binary operators, fold left" shape
// shared by every left-associative precedence level.
func (p *Parser) leftAssocBinary(next func() (ast.Expression, *diagnostics.Diagnostic), ops map[token.Type]ast.BinOp) (ast.Expression, *diagnostics.Diagnostic) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.peek().Type]
		if !ok {
			return left, nil
		}
		opTok := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		_, end := right.Span()
		left = &ast.Binary{Left: left, Right: right, Op: op, Pos: spanOf(left, end, opTok)}
	}
}

func (p *Parser) unary() (ast.Expression, *diagnostics.Diagnostic) {
	switch p.peek().Type {
	case token.MINUS:
		opTok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		_, end := operand.Span()
		return &ast.Unary{Operand: operand, Op: ast.OpNeg, Pos: ast.NewSpan(opTok.Start, end)}, nil
	case token.BANG:
		opTok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		_, end := operand.Span()
		return &ast.Unary{Operand: operand, Op: ast.OpNot, Pos: ast.NewSpan(opTok.Start, end)}, nil
	default:
		return p.postfix()
	}
}

func (p *Parser) postfix() (ast.Expression, *diagnostics.Diagnostic) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	start, _ := expr.Span()

	for {
		switch p.peek().Type {
		case token.LPAREN:
			p.advance()
			args, err := p.argumentList(token.RPAREN)
			if err != nil {
				return nil, err
			}
			closeTok, err := p.consume(token.RPAREN, ")")
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args, Pos: ast.NewSpan(start, closeTok.End)}
		case token.LBRACKET:
			p.advance()
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			closeTok, err := p.consume(token.RBRACKET, "]")
			if err != nil {
				return nil, err
			}
			expr = &ast.Index{Target: expr, Key: key, Pos: ast.NewSpan(start, closeTok.End)}
		case token.DOT:
			p.advance()
			nameTok, err := p.consume(token.IDENTIFIER, "identifier")
			if err != nil {
				return nil, err
			}
			expr = &ast.Access{Target: expr, Name: nameTok.Lexeme, Pos: ast.NewSpan(start, nameTok.End)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) argumentList(closing token.Type) ([]ast.Expression, *diagnostics.Diagnostic) {
	var args []ast.Expression
	if p.check(closing) {
		return args, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			break
		}
		if p.check(closing) { // tolerate a trailing comma
			break
		}
	}
	return args, nil
}

func (p *Parser) primary() (ast.Expression, *diagnostics.Diagnostic) {
	tok := p.peek()
	switch tok.Type {
	case token.INT:
		p.advance()
		return &ast.Integer{Text: tok.Lexeme, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.FLOAT:
		p.advance()
		return &ast.Float{Text: tok.Lexeme, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.STRING:
		p.advance()
		value, _ := tok.Literal.(string)
		return &ast.String{Value: value, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.TRUE:
		p.advance()
		return &ast.Boolean{Value: true, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.FALSE:
		p.advance()
		return &ast.Boolean{Value: false, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.NONE:
		p.advance()
		return &ast.None{Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.IDENTIFIER:
		p.advance()
		return &ast.Variable{Name: tok.Lexeme, Pos: ast.NewSpan(tok.Start, tok.End)}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case token.FUN:
		return p.functionLiteral()
	case token.NEW:
		return p.newLiteral()
	}

	return nil, diagnostics.UnexpectedTokenDiagnostic(tok.Line, tok.Column,
		[]string{"expression"}, tok.Lexeme)
}

func (p *Parser) functionLiteral() (ast.Expression, *diagnostics.Diagnostic) {
	start := p.advance() // 'fun'
	if _, err := p.consume(token.LPAREN, "("); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(token.RPAREN) {
		for {
			nameTok, err := p.consume(token.IDENTIFIER, "identifier")
			if err != nil {
				return nil, err
			}
			params = append(params, nameTok.Lexeme)
			if !p.match(token.COMMA) {
				break
			}
			if p.check(token.RPAREN) {
				break
			}
		}
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
	return &ast.Function{Params: params, Body: body, Pos: ast.NewSpan(start.Start, end)}, nil
}

// newLiteral parses `new [ ... ]` and `new { k: v, ... }`.
func (p *Parser) newLiteral() (ast.Expression, *diagnostics.Diagnostic) {
	start := p.advance() // 'new'
	switch p.peek().Type {
	case token.LBRACKET:
		p.advance()
		elems, err := p.argumentList(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		closeTok, err := p.consume(token.RBRACKET, "]")
		if err != nil {
			return nil, err
		}
		return &ast.List{Elements: elems, Pos: ast.NewSpan(start.Start, closeTok.End)}, nil
	case token.LBRACE:
		p.advance()
		var fields []ast.BendyField
		if !p.check(token.RBRACE) {
			for {
				nameTok, err := p.consume(token.IDENTIFIER, "identifier")
				if err != nil {
					return nil, err
				}
				if _, err := p.consume(token.COLON, ":"); err != nil {
					return nil, err
				}
				value, err := p.expression()
				if err != nil {
					return nil, err
				}
				fields = append(fields, ast.BendyField{Name: nameTok.Lexeme, Value: value})
				if !p.match(token.COMMA) {
					break
				}
				if p.check(token.RBRACE) {
					break
				}
			}
		}
		closeTok, err := p.consume(token.RBRACE, "}")
		if err != nil {
			return nil, err
		}
		return &ast.Bendy{Fields: fields, Pos: ast.NewSpan(start.Start, closeTok.End)}, nil
	}

	tok := p.peek()
	return nil, diagnostics.UnexpectedTokenDiagnostic(tok.Line, tok.Column, []string{"[", "{"}, tok.Lexeme)
}

func spanOf(left ast.Expression, end int, _ token.Token) ast.Pos {
	start, _ := left.Span()
	return ast.NewSpan(start, end)
}
