package bytecode

import (
	"strings"
	"testing"
)

func TestEmitReturnsSequentialIndices(t *testing.T) {
	c := NewCode()
	i0 := c.Emit(Op{Code: PushLong, Int: 1})
	i1 := c.Emit(Op{Code: PushLong, Int: 2})
	if i0 != 0 || i1 != 1 {
		t.Errorf("indices = (%d, %d), want (0, 1)", i0, i1)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestPatchRewritesOffset(t *testing.T) {
	c := NewCode()
	idx := c.Emit(Op{Code: JumpNot})
	c.Patch(idx, 7)
	if c.Ops[idx].Offset != 7 {
		t.Errorf("Offset = %d, want 7", c.Ops[idx].Offset)
	}
}

func TestMarkPositionRecordsOffset(t *testing.T) {
	c := NewCode()
	idx := c.Emit(Op{Code: Load, Str: "x"})
	c.MarkPosition(idx, 42)
	if c.Positions[idx] != 42 {
		t.Errorf("Positions[%d] = %d, want 42", idx, c.Positions[idx])
	}
}

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	if got := Add.String(); got != "Add" {
		t.Errorf("Add.String() = %q, want %q", got, "Add")
	}
	if got := Opcode(99).String(); got != "Opcode(99)" {
		t.Errorf("Opcode(99).String() = %q, want %q", got, "Opcode(99)")
	}
}

func TestDisassembleIncludesOperandsAndNestedFunctionBody(t *testing.T) {
	inner := NewCode()
	inner.Emit(Op{Code: Load, Str: "a"})
	inner.Emit(Op{Code: Return})

	c := NewCode()
	c.Emit(Op{Code: PushString, Str: "hi"})
	c.Emit(Op{Code: PushFun, Params: []string{"a"}, Func: inner})

	out := c.Disassemble()
	if !strings.Contains(out, `"hi"`) {
		t.Errorf("Disassemble() = %q, want it to contain the string operand", out)
	}
	if !strings.Contains(out, "params=[a]") {
		t.Errorf("Disassemble() = %q, want it to contain the param list", out)
	}
	if !strings.Contains(out, "function body") {
		t.Errorf("Disassemble() = %q, want a nested function body section", out)
	}
}
