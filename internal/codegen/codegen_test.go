package codegen

import (
	"testing"

	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/lexer"
	"github.com/informatter/olive/internal/parser"
)

func compile(t *testing.T, src string) (*bytecode.Code, int) {
	t.Helper()
	toks, lexErr := lexer.New(src).Scan()
	if lexErr != nil {
		t.Fatalf("lexer raised %v", lexErr)
	}
	statements, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("parser raised %v", parseErrs)
	}
	code, genErrs := Generate(statements)
	return code, len(genErrs)
}

func opcodes(code *bytecode.Code) []bytecode.Opcode {
	ops := make([]bytecode.Opcode, len(code.Ops))
	for i, op := range code.Ops {
		ops[i] = op.Code
	}
	return ops
}

func TestGenerateAppendsImplicitReturn(t *testing.T) {
	code, nErrs := compile(t, "x = 1;")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	ops := opcodes(code)
	last2 := ops[len(ops)-2:]
	if last2[0] != bytecode.PushNone || last2[1] != bytecode.Return {
		t.Errorf("tail = %v, want [PushNone Return]", last2)
	}
}

func TestGenerateIfWithoutElseJumpsPastThenBlock(t *testing.T) {
	code, nErrs := compile(t, "if (true) { x = 1; }")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	var jumpIdx = -1
	for i, op := range code.Ops {
		if op.Code == bytecode.JumpNot {
			jumpIdx = i
			break
		}
	}
	if jumpIdx == -1 {
		t.Fatal("no JumpNot emitted")
	}
	target := jumpIdx + code.Ops[jumpIdx].Offset
	// The jump must land just past the then-block, on the trailing
	// PushNone of the PushNone/Return pair the top-level program appends.
	if target != len(code.Ops)-2 {
		t.Errorf("JumpNot target = %d, want %d (implicit PushNone)", target, len(code.Ops)-2)
	}
}

func TestGenerateIfElseSkipsElseBranch(t *testing.T) {
	code, nErrs := compile(t, "if (true) { x = 1; } else { x = 2; }")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	var jumpNotIdx, gotoIdx = -1, -1
	for i, op := range code.Ops {
		switch op.Code {
		case bytecode.JumpNot:
			if jumpNotIdx == -1 {
				jumpNotIdx = i
			}
		case bytecode.Goto:
			if gotoIdx == -1 {
				gotoIdx = i
			}
		}
	}
	if jumpNotIdx == -1 || gotoIdx == -1 {
		t.Fatalf("expected both a JumpNot and a Goto, got jumpNotIdx=%d gotoIdx=%d", jumpNotIdx, gotoIdx)
	}
	elseStart := jumpNotIdx + code.Ops[jumpNotIdx].Offset
	if elseStart != gotoIdx+1 {
		t.Errorf("JumpNot target = %d, want %d (start of else block)", elseStart, gotoIdx+1)
	}
	exit := gotoIdx + code.Ops[gotoIdx].Offset
	if exit != len(code.Ops)-2 {
		t.Errorf("Goto target = %d, want %d (implicit PushNone after the else block)", exit, len(code.Ops)-2)
	}
}

func TestGenerateWhileLoopsBackToCondition(t *testing.T) {
	code, nErrs := compile(t, "while (true) { break; continue; }")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	// Program order: [0]PushBoolean(true) [1]JumpNot [2]Goto(break)
	// [3]Goto(continue) [4]Goto(loop-back), exit=5.
	const condStart, jumpNotIdx, breakIdx, continueIdx, backIdx, exit = 0, 1, 2, 3, 4, 5
	if code.Ops[jumpNotIdx].Code != bytecode.JumpNot {
		t.Fatalf("ops[%d] = %v, want JumpNot", jumpNotIdx, code.Ops[jumpNotIdx].Code)
	}
	if got := jumpNotIdx + code.Ops[jumpNotIdx].Offset; got != exit {
		t.Errorf("JumpNot target = %d, want %d (loop exit)", got, exit)
	}
	if got := breakIdx + code.Ops[breakIdx].Offset; got != exit {
		t.Errorf("break target = %d, want %d (loop exit)", got, exit)
	}
	if got := continueIdx + code.Ops[continueIdx].Offset; got != condStart {
		t.Errorf("continue target = %d, want %d (loop condition)", got, condStart)
	}
	if got := backIdx + code.Ops[backIdx].Offset; got != condStart {
		t.Errorf("loop-back target = %d, want %d (loop condition)", got, condStart)
	}
}

func TestGenerateBreakOutsideLoopIsAnError(t *testing.T) {
	_, nErrs := compile(t, "break;")
	if nErrs == 0 {
		t.Fatal("expected a BreakOutsideWhile diagnostic")
	}
}

func TestGenerateContinueOutsideLoopIsAnError(t *testing.T) {
	_, nErrs := compile(t, "continue;")
	if nErrs == 0 {
		t.Fatal("expected a BreakOutsideWhile diagnostic for continue")
	}
}

func TestGenerateAndOrShortCircuitSentinel(t *testing.T) {
	code, nErrs := compile(t, "x = true and false;")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	found := false
	for _, op := range code.Ops {
		if op.Code == bytecode.JumpNot {
			found = true
		}
	}
	if !found {
		t.Error("expected a JumpNot implementing 'and' short-circuit")
	}
}

func TestGenerateOverflowingIntegerLiteralIsAnError(t *testing.T) {
	_, nErrs := compile(t, "x = 99999999999999999999999999;")
	if nErrs == 0 {
		t.Fatal("expected a ParseInteger diagnostic for an overflowing literal")
	}
}

func TestGenerateFunctionLiteralEmitsPushFunWithNestedBody(t *testing.T) {
	code, nErrs := compile(t, "f = fun(a) { return a; };")
	if nErrs != 0 {
		t.Fatalf("got %d codegen errors, want 0", nErrs)
	}
	var fn *bytecode.Op
	for i := range code.Ops {
		if code.Ops[i].Code == bytecode.PushFun {
			fn = &code.Ops[i]
			break
		}
	}
	if fn == nil {
		t.Fatal("no PushFun emitted")
	}
	if len(fn.Params) != 1 || fn.Params[0] != "a" {
		t.Errorf("Params = %v, want [a]", fn.Params)
	}
	if fn.Func == nil || len(fn.Func.Ops) == 0 {
		t.Error("PushFun.Func body is empty")
	}
}
