package diagnostics

import (
	"strings"
	"testing"
)

func TestErrorFormatsFileAndPosition(t *testing.T) {
	d := New(DivideByZero, 2, 5, "division by zero").WithFile("main.olv")
	got := d.Error()
	want := "DivideByZero error in main.olv (line 2, column 5): division by zero"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorOmitsPositionWhenZero(t *testing.T) {
	d := New(Deserialize, 0, 0, "bad magic bytes")
	got := d.Error()
	want := "Deserialize error: bad magic bytes"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnexpectedTokenDiagnosticSuggestsCloseMatch(t *testing.T) {
	d := UnexpectedTokenDiagnostic(1, 0, []string{"fun", "while", "if"}, "fn")
	if d.Kind != UnexpectedToken {
		t.Fatalf("Kind = %v, want UnexpectedToken", d.Kind)
	}
	if want := `did you mean "fun"?`; !strings.Contains(d.Message, want) {
		t.Errorf("Message = %q, want it to contain %q", d.Message, want)
	}
}

func TestUnexpectedTokenDiagnosticOmitsSuggestionWhenUnrelated(t *testing.T) {
	d := UnexpectedTokenDiagnostic(1, 0, []string{"fun"}, ";")
	if strings.Contains(d.Message, "did you mean") {
		t.Errorf("Message = %q, did not expect a suggestion", d.Message)
	}
}

func TestVariableNotFoundDiagnosticSuggestsCloseMatch(t *testing.T) {
	d := VariableNotFoundDiagnostic(1, 0, "coutn", []string{"count", "total"})
	if d.Kind != VariableNotFound {
		t.Fatalf("Kind = %v, want VariableNotFound", d.Kind)
	}
	if !strings.Contains(d.Message, `did you mean "count"?`) {
		t.Errorf("Message = %q, want a suggestion for %q", d.Message, "count")
	}
}
