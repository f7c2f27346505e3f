// Package lexer turns Olive source text into a stream of positioned
// tokens. The scanning loop, rune-buffer bookkeeping, and whitespace/
// line tracking are generalized to Olive's full operator and keyword
// set.
package lexer

import (
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/token"
)

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Lexer is a single-pass, allocation-light scanner over normalized
// source text.
type Lexer struct {
	src   []rune
	n     int
	pos   int // index of currentChar within src
	read  int // index of the next rune to read
	ch    rune
	line  int
	col   int
}

// New normalizes text to NFC (so Unicode identifier starters compare
// consistently regardless of the source file's normalization form)
// and prepares a Lexer over it.
func New(text string) *Lexer {
	normalized := norm.NFC.String(text)
	l := &Lexer{src: []rune(normalized), line: 1}
	l.n = len(l.src)
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if l.read >= l.n {
		l.ch = 0
	} else {
		l.ch = l.src[l.read]
	}
	l.pos = l.read
	l.read++
}

func (l *Lexer) peek() rune {
	if l.read >= l.n {
		return 0
	}
	return l.src[l.read]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= l.n
}

// Scan tokenizes the entire input, returning the token stream ending
// in an EOF token, or the first diagnostic encountered.
func (l *Lexer) Scan() ([]token.Token, *diagnostics.Diagnostic) {
	var tokens []token.Token
	for {
		if err := l.skipWhitespaceAndComments(); err != nil {
			return tokens, err
		}
		if l.atEnd() {
			break
		}
		tok, err := l.next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
	tokens = append(tokens, token.New(token.EOF, "", l.pos, l.pos, l.line, l.col))
	return tokens, nil
}

func (l *Lexer) skipWhitespaceAndComments() *diagnostics.Diagnostic {
	for {
		switch {
		case l.ch == '\n':
			l.line++
			l.col = 0
			l.advance()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.col++
			l.advance()
		case l.ch == '#' && l.peek() == '#':
			if err := l.skipMultilineComment(); err != nil {
				return err
			}
		case l.ch == '#':
			for l.ch != '\n' && !l.atEnd() {
				l.advance()
			}
		default:
			return nil
		}
	}
}

// skipMultilineComment consumes a ##...## comment. Reaching EOF before
// the closing ## reports InvalidToken at the comment's opening offset,
// mirroring unclosed string literals.
func (l *Lexer) skipMultilineComment() *diagnostics.Diagnostic {
	startLine, startCol := l.line, l.col
	l.advance() // consume first '#'
	l.advance() // consume second '#'
	for {
		if l.atEnd() {
			return diagnostics.New(diagnostics.InvalidToken, startLine, startCol,
				"unclosed multiline comment")
		}
		if l.ch == '#' && l.peek() == '#' {
			l.advance()
			l.advance()
			return nil
		}
		if l.ch == '\n' {
			l.line++
			l.col = 0
		} else {
			l.col++
		}
		l.advance()
	}
}

func (l *Lexer) next() (token.Token, *diagnostics.Diagnostic) {
	start := l.pos
	startLine, startCol := l.line, l.col

	switch {
	case isIdentStart(l.ch):
		return l.identifier(start, startLine, startCol), nil
	case isDigit(l.ch):
		return l.number(start, startLine, startCol)
	case l.ch == '"':
		return l.stringLiteral(start, startLine, startCol)
	}

	single := func(t token.Type) token.Token {
		l.advance()
		l.col++
		return token.New(t, string(l.src[start:l.pos]), start, l.pos, startLine, startCol)
	}

	switch l.ch {
	case '(':
		return single(token.LPAREN), nil
	case ')':
		return single(token.RPAREN), nil
	case '[':
		return single(token.LBRACKET), nil
	case ']':
		return single(token.RBRACKET), nil
	case '{':
		return single(token.LBRACE), nil
	case '}':
		return single(token.RBRACE), nil
	case ';':
		return single(token.SEMICOLON), nil
	case ',':
		return single(token.COMMA), nil
	case ':':
		return single(token.COLON), nil
	case '.':
		return single(token.DOT), nil
	case '+':
		return single(token.PLUS), nil
	case '-':
		return single(token.MINUS), nil
	case '*':
		return single(token.STAR), nil
	case '%':
		return single(token.PERCENT), nil
	case '|':
		return single(token.PIPE), nil
	case '^':
		return single(token.CARET), nil
	case '&':
		return single(token.AMP), nil
	case '$':
		return single(token.DOLLAR), nil
	case '/':
		if l.peek() == '/' {
			l.advance()
			return single(token.SLASH_SLASH), nil
		}
		return single(token.SLASH), nil
	case '<':
		if l.peek() == '<' {
			l.advance()
			return single(token.SHL), nil
		}
		if l.peek() == '=' {
			l.advance()
			return single(token.LESS_EQUAL), nil
		}
		return single(token.LESS), nil
	case '>':
		if l.peek() == '>' {
			l.advance()
			return single(token.SHR), nil
		}
		if l.peek() == '=' {
			l.advance()
			return single(token.GREATER_EQUAL), nil
		}
		return single(token.GREATER), nil
	case '=':
		if l.peek() == '=' {
			l.advance()
			return single(token.EQUAL_EQUAL), nil
		}
		return single(token.ASSIGN), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return single(token.NOT_EQUAL), nil
		}
		return single(token.BANG), nil
	}

	illegalStart := l.pos
	for !l.atEnd() && !unicode.IsSpace(l.ch) {
		l.advance()
	}
	lexeme := string(l.src[illegalStart:l.pos])
	return token.Token{}, diagnostics.New(diagnostics.InvalidToken, startLine, startCol,
		fmt.Sprintf("unrecognized input %q", lexeme))
}

func (l *Lexer) identifier(start, startLine, startCol int) token.Token {
	for isIdentPart(l.ch) && !l.atEnd() {
		l.advance()
		l.col++
	}
	lexeme := string(l.src[start:l.pos])
	typ := token.IDENTIFIER
	if kw, ok := token.Keywords[lexeme]; ok {
		typ = kw
	}
	return token.New(typ, lexeme, start, l.pos, startLine, startCol)
}

func (l *Lexer) number(start, startLine, startCol int) (token.Token, *diagnostics.Diagnostic) {
	dots := 0
	for (isDigit(l.ch) || l.ch == '.') && !l.atEnd() {
		if l.ch == '.' {
			dots++
			if dots > 1 {
				lexeme := string(l.src[start:l.pos+1])
				return token.Token{}, diagnostics.New(diagnostics.NumberFormat, startLine, startCol,
					fmt.Sprintf("malformed numeric literal %q", lexeme))
			}
			// A '.' not followed by a digit ends the number and is
			// left for the next token, so `1.` lexes as INT then DOT.
			if !isDigit(l.peek()) {
				dots--
				break
			}
		}
		l.advance()
		l.col++
	}
	lexeme := string(l.src[start:l.pos])
	if dots == 0 {
		return token.NewLiteral(token.INT, lexeme, lexeme, start, l.pos, startLine, startCol), nil
	}
	return token.NewLiteral(token.FLOAT, lexeme, lexeme, start, l.pos, startLine, startCol), nil
}

func (l *Lexer) stringLiteral(start, startLine, startCol int) (token.Token, *diagnostics.Diagnostic) {
	l.advance() // consume opening quote
	l.col++
	var runes []rune
	for {
		if l.atEnd() {
			return token.Token{}, diagnostics.New(diagnostics.InvalidToken, startLine, startCol,
				"unclosed string literal")
		}
		if l.ch == '"' {
			l.advance()
			l.col++
			break
		}
		if l.ch == '\n' {
			return token.Token{}, diagnostics.New(diagnostics.InvalidToken, startLine, startCol,
				"unclosed string literal")
		}
		if l.ch == '\\' {
			escLine, escCol := l.line, l.col
			l.advance()
			l.col++
			switch l.ch {
			case '\\':
				runes = append(runes, '\\')
			case '"':
				runes = append(runes, '"')
			case 'n':
				runes = append(runes, '\n')
			case 'r':
				runes = append(runes, '\r')
			default:
				return token.Token{}, diagnostics.New(diagnostics.InvalidEscape, escLine, escCol,
					fmt.Sprintf("unrecognized escape sequence '\\%c'", l.ch))
			}
			l.advance()
			l.col++
			continue
		}
		runes = append(runes, l.ch)
		l.advance()
		l.col++
	}
	value := string(runes)
	lexeme := string(l.src[start:l.pos])
	return token.NewLiteral(token.STRING, lexeme, value, start, l.pos, startLine, startCol), nil
}
