package lexer

import (
	"testing"

	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/token"
)

func scanTypes(t *testing.T, src string) []token.Type {
	t.Helper()
	toks, err := New(src).Scan()
	if err != nil {
		t.Fatalf("Scan(%q) raised %v", src, err)
	}
	types := make([]token.Type, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func assertTypes(t *testing.T, got []token.Type, want ...token.Type) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanOperators(t *testing.T) {
	got := scanTypes(t, "== // = * + > - < != <= >= ! << >> $ | ^ &")
	assertTypes(t, got,
		token.EQUAL_EQUAL, token.SLASH_SLASH, token.ASSIGN, token.STAR, token.PLUS,
		token.GREATER, token.MINUS, token.LESS, token.NOT_EQUAL, token.LESS_EQUAL,
		token.GREATER_EQUAL, token.BANG, token.SHL, token.SHR, token.DOLLAR,
		token.PIPE, token.CARET, token.AMP, token.EOF)
}

func TestScanPunctuation(t *testing.T) {
	got := scanTypes(t, "(){}[];,:.")
	assertTypes(t, got,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACKET,
		token.RBRACKET, token.SEMICOLON, token.COMMA, token.COLON, token.DOT, token.EOF)
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	got := scanTypes(t, "fun while count true false none")
	assertTypes(t, got, token.FUN, token.WHILE, token.IDENTIFIER, token.TRUE, token.FALSE, token.NONE, token.EOF)
}

func TestScanIntegerAndFloat(t *testing.T) {
	toks, err := New("42 3.14").Scan()
	if err != nil {
		t.Fatalf("Scan raised %v", err)
	}
	if toks[0].Type != token.INT || toks[0].Literal != "42" {
		t.Errorf("toks[0] = %+v, want INT 42", toks[0])
	}
	if toks[1].Type != token.FLOAT || toks[1].Literal != "3.14" {
		t.Errorf("toks[1] = %+v, want FLOAT 3.14", toks[1])
	}
}

func TestScanMalformedFloatWithTwoDots(t *testing.T) {
	_, err := New("1.2.3").Scan()
	if err == nil {
		t.Fatal("expected a diagnostic for a double-dot numeric literal")
	}
	if err.Kind != diagnostics.NumberFormat {
		t.Errorf("Kind = %v, want NumberFormat", err.Kind)
	}
}

func TestScanDotAfterIdentifierIsAccess(t *testing.T) {
	// `xs.0` must lex as IDENTIFIER DOT INT, not a malformed float,
	// since index/access syntax reuses '.'.
	got := scanTypes(t, "xs.0")
	assertTypes(t, got, token.IDENTIFIER, token.DOT, token.INT, token.EOF)
}

func TestScanStringLiteralWithEscapes(t *testing.T) {
	toks, err := New(`"a\nb\"c\\d"`).Scan()
	if err != nil {
		t.Fatalf("Scan raised %v", err)
	}
	want := "a\nb\"c\\d"
	if toks[0].Literal != want {
		t.Errorf("Literal = %q, want %q", toks[0].Literal, want)
	}
}

func TestScanUnclosedStringIsAnError(t *testing.T) {
	_, err := New(`"unterminated`).Scan()
	if err == nil || err.Kind != diagnostics.InvalidToken {
		t.Fatalf("err = %v, want InvalidToken", err)
	}
}

func TestScanUnrecognizedEscapeIsAnError(t *testing.T) {
	_, err := New(`"bad\qescape"`).Scan()
	if err == nil || err.Kind != diagnostics.InvalidEscape {
		t.Fatalf("err = %v, want InvalidEscape", err)
	}
}

func TestScanSkipsLineAndBlockComments(t *testing.T) {
	got := scanTypes(t, "1 # trailing comment\n## a\nblock\ncomment ##\n2")
	assertTypes(t, got, token.INT, token.INT, token.EOF)
}

func TestScanUnterminatedBlockCommentIsAnError(t *testing.T) {
	_, err := New("1 ## never closed").Scan()
	if err == nil || err.Kind != diagnostics.InvalidToken {
		t.Fatalf("err = %v, want InvalidToken", err)
	}
	if err.Line != 1 || err.Column != 2 {
		t.Errorf("err position = (%d,%d), want the comment's opening offset (1,2)", err.Line, err.Column)
	}
}

func TestScanIllegalCharacterIsAnError(t *testing.T) {
	_, err := New("@@@").Scan()
	if err == nil || err.Kind != diagnostics.InvalidToken {
		t.Fatalf("err = %v, want InvalidToken", err)
	}
}

func TestScanTracksLineAndColumn(t *testing.T) {
	toks, err := New("a\nb").Scan()
	if err != nil {
		t.Fatalf("Scan raised %v", err)
	}
	if toks[0].Line != 1 {
		t.Errorf("toks[0].Line = %d, want 1", toks[0].Line)
	}
	if toks[1].Line != 2 {
		t.Errorf("toks[1].Line = %d, want 2", toks[1].Line)
	}
}
