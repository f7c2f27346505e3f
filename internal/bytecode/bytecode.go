// Package bytecode defines Olive's instruction set and the code object
// codegen emits. The opcode-table idiom (an Opcode byte and a name
// table keyed off it, used by String and the disassembler) mirrors a flat, table-driven instruction set; unlike a
// uniformly-uint16-operand byte stream, an Op here carries a small
// tagged operand set (string, int64, float64, or a nested *Code for
// function literals) because PushFun's operand is itself a compiled
// function body, which does not fit a fixed-width byte-packed
// encoding.
package bytecode

import "fmt"

// Opcode enumerates every bytecode operation. Gaps (8, 9, 25, 34, 35) are
// intentionally left unused to keep numbering stable across revisions.
type Opcode byte

const (
	PushString    Opcode = 1
	PushBoolean   Opcode = 2
	PushDouble    Opcode = 3
	PushLong      Opcode = 4
	PushFun       Opcode = 5
	Store         Opcode = 6
	Load          Opcode = 7
	JumpNot       Opcode = 10
	Goto          Opcode = 11
	PushNone      Opcode = 12
	PushBendy     Opcode = 13
	PushList      Opcode = 14
	Return        Opcode = 15
	Neg           Opcode = 16
	Add           Opcode = 17
	Sub           Opcode = 18
	Mul           Opcode = 19
	IntDiv        Opcode = 20
	FloatDiv      Opcode = 21
	Mod           Opcode = 22
	BitLsh        Opcode = 23
	BitRsh        Opcode = 24
	BitAnd        Opcode = 26
	BitOr         Opcode = 27
	BitXOr        Opcode = 28
	BoolNot       Opcode = 29
	Concat        Opcode = 30
	Put           Opcode = 31
	Get           Opcode = 32
	Call          Opcode = 33
	Equals        Opcode = 36
	NotEquals     Opcode = 37
	LessThan      Opcode = 38
	LessEquals    Opcode = 39
	GreaterThan   Opcode = 40
	GreaterEquals Opcode = 41
	Pop           Opcode = 42
	Dup           Opcode = 43
	Jump          Opcode = 44
)

var names = map[Opcode]string{
	PushString: "PushString", PushBoolean: "PushBoolean", PushDouble: "PushDouble",
	PushLong: "PushLong", PushFun: "PushFun", Store: "Store", Load: "Load",
	JumpNot: "JumpNot", Goto: "Goto", PushNone: "PushNone", PushBendy: "PushBendy",
	PushList: "PushList", Return: "Return", Neg: "Neg", Add: "Add", Sub: "Sub",
	Mul: "Mul", IntDiv: "IntDiv", FloatDiv: "FloatDiv", Mod: "Mod", BitLsh: "BitLsh",
	BitRsh: "BitRsh", BitAnd: "BitAnd", BitOr: "BitOr", BitXOr: "BitXOr",
	BoolNot: "BoolNot", Concat: "Concat", Put: "Put", Get: "Get", Call: "Call",
	Equals: "Equals", NotEquals: "NotEquals", LessThan: "LessThan",
	LessEquals: "LessEquals", GreaterThan: "GreaterThan", GreaterEquals: "GreaterEquals",
	Pop: "Pop", Dup: "Dup", Jump: "Jump",
}

func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Op is a single bytecode operation. Only the fields relevant to its
// Code are populated; the rest are zero. Offset is a relative jump
// distance measured in operations, used only by Goto/JumpNot/Jump.
type Op struct {
	Code Opcode

	Str      string  // Store/Load name, PushString value, Access/Index-by-name key
	Int      int64   // PushLong value
	Float    float64 // PushDouble value
	Bool     bool    // PushBoolean value
	Offset   int     // Goto/JumpNot/Jump relative offset, in operations
	ArgCount int      // Call argument count

	Params []string // PushFun parameter names
	Func   *Code    // PushFun function body
}

// Code is a linear sequence of operations plus the diagnostic
// code-position table codegen maintains alongside it: for operations
// that can fail or that a disassembler should annotate with source
// location, Positions maps the operation's index to a byte offset into
// the originating source. Positions is never serialized.
type Code struct {
	Ops       []Op
	Positions map[int]int
}

func NewCode() *Code {
	return &Code{Positions: make(map[int]int)}
}

// Len reports the number of operations currently emitted.
func (c *Code) Len() int { return len(c.Ops) }

// Emit appends an operation and returns its index.
func (c *Code) Emit(op Op) int {
	c.Ops = append(c.Ops, op)
	return len(c.Ops) - 1
}

// MarkPosition records the source byte offset an operation index
// corresponds to, for diagnostics raised while executing it.
func (c *Code) MarkPosition(opIndex, byteOffset int) {
	c.Positions[opIndex] = byteOffset
}

// Patch rewrites the Offset field of an already-emitted jump
// operation, used by codegen's backpatching passes.
func (c *Code) Patch(opIndex, offset int) {
	c.Ops[opIndex].Offset = offset
}

// Disassemble renders the code as human-readable text, one operation
// per line, for the `olv emit` subcommand and for tests.
func (c *Code) Disassemble() string {
	var out string
	for i, op := range c.Ops {
		out += fmt.Sprintf("%04d %s", i, op.Code)
		switch op.Code {
		case PushString:
			out += fmt.Sprintf(" %q", op.Str)
		case PushBoolean:
			out += fmt.Sprintf(" %v", op.Bool)
		case PushDouble:
			out += fmt.Sprintf(" %g", op.Float)
		case PushLong:
			out += fmt.Sprintf(" %d", op.Int)
		case Store, Load:
			out += fmt.Sprintf(" %s", op.Str)
		case JumpNot, Goto, Jump:
			out += fmt.Sprintf(" %+d", op.Offset)
		case Call:
			out += fmt.Sprintf(" argc=%d", op.ArgCount)
		case PushFun:
			out += fmt.Sprintf(" params=%v", op.Params)
		}
		out += "\n"
		if op.Code == PushFun && op.Func != nil {
			out += "  -- function body --\n"
			for _, line := range splitLines(op.Func.Disassemble()) {
				out += "  " + line + "\n"
			}
		}
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
