package token

import "testing"

func TestKeywordsCoverReservedWords(t *testing.T) {
	want := map[string]Type{
		"fun": FUN, "if": IF, "else": ELSE, "while": WHILE,
		"continue": CONTINUE, "break": BREAK, "return": RETURN,
		"true": TRUE, "false": FALSE, "none": NONE,
		"and": AND, "or": OR, "new": NEW, "for": FOR, "in": IN,
	}
	for word, typ := range want {
		got, ok := Keywords[word]
		if !ok {
			t.Errorf("Keywords[%q] missing", word)
			continue
		}
		if got != typ {
			t.Errorf("Keywords[%q] = %v, want %v", word, got, typ)
		}
	}
	if len(Keywords) != len(want) {
		t.Errorf("Keywords has %d entries, want %d (extra reserved words?)", len(Keywords), len(want))
	}
}

func TestNewSetsFields(t *testing.T) {
	tok := New(PLUS, "+", 3, 4, 1, 3)
	if tok.Type != PLUS || tok.Lexeme != "+" || tok.Start != 3 || tok.End != 4 || tok.Line != 1 || tok.Column != 3 {
		t.Errorf("New() = %+v, unexpected fields", tok)
	}
	if tok.Literal != nil {
		t.Errorf("New() Literal = %v, want nil", tok.Literal)
	}
}

func TestNewLiteralCarriesLiteral(t *testing.T) {
	tok := NewLiteral(STRING, `"hi"`, "hi", 0, 4, 1, 0)
	if tok.Literal != "hi" {
		t.Errorf("NewLiteral() Literal = %v, want %q", tok.Literal, "hi")
	}
}

func TestStringFormatsTypeAndLexeme(t *testing.T) {
	tok := New(IDENTIFIER, "foo", 0, 3, 1, 0)
	got := tok.String()
	want := `Token{Type: IDENTIFIER, Lexeme: "foo"}`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
