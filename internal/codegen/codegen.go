// Package codegen lowers an Olive AST to a linear bytecode.Code object,
// backpatching jump targets for if/while/and/or and break/continue, and
// maintaining the code-position table codegen must carry alongside the
// result for runtime diagnostics. The generate/generateLHS split and
// the "compile to a Code object via a visitor, accumulate semantic
// errors instead of aborting" shape follows a compiler.ASTCompiler
// lineage, whose single-arm if/while backpatching is generalized here
// to Olive's full jump-offset arithmetic, including the and/or
// short-circuit sentinel pattern for short-circuiting boolean
// operators rather than plain binary ops.
package codegen

import (
	"math"
	"strconv"

	"github.com/informatter/olive/internal/ast"
	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/diagnostics"
)

// loopFrame accumulates the positions of break/continue placeholders
// emitted inside one enclosing while loop, so the loop's own codegen
// can patch them once the loop's full extent (and exit point) is known.
type loopFrame struct {
	breaks    []int
	continues []int
}

// Generator walks an AST and emits bytecode.Code. A single Generator
// accumulates diagnostics across an entire top-level program so that
// every BreakOutsideWhile occurrence is reported rather
// than only the first.
type Generator struct {
	code      *bytecode.Code
	loopStack []*loopFrame
	errs      []*diagnostics.Diagnostic
}

func New() *Generator {
	return &Generator{code: bytecode.NewCode()}
}

// Generate compiles a full program (a sequence of top-level
// statements) to a Code object, appending the implicit `PushNone;
// Return` every top-level block and function body gets.
func Generate(statements []ast.Statement) (*bytecode.Code, []*diagnostics.Diagnostic) {
	g := New()
	g.block(statements)
	g.code.Emit(bytecode.Op{Code: bytecode.PushNone})
	g.code.Emit(bytecode.Op{Code: bytecode.Return})
	return g.code, g.errs
}

func (g *Generator) fail(kind diagnostics.Kind, offset int, msg string) {
	g.errs = append(g.errs, diagnostics.New(kind, 0, 0, msg).WithFile(""))
	_ = offset
}

func (g *Generator) block(statements []ast.Statement) {
	for _, s := range statements {
		g.statement(s)
	}
}

func (g *Generator) mark(offset int) {
	g.code.MarkPosition(g.code.Len(), offset)
}

// patchTo backpatches the jump operation at opIndex so that executing
// it sets ip to targetIndex (ip := ip + offset).
func (g *Generator) patchTo(opIndex, targetIndex int) {
	g.code.Patch(opIndex, targetIndex-opIndex)
}

func (g *Generator) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		g.block(n.Statements)
	case *ast.ReturnStmt:
		if n.Value != nil {
			g.expr(n.Value)
		} else {
			g.code.Emit(bytecode.Op{Code: bytecode.PushNone})
		}
		g.code.Emit(bytecode.Op{Code: bytecode.Return})
	case *ast.BreakStmt:
		idx := g.code.Emit(bytecode.Op{Code: bytecode.Goto})
		if len(g.loopStack) == 0 {
			start, _ := n.Span()
			g.fail(diagnostics.BreakOutsideLoop, start, "'break' outside of a while loop")
			return
		}
		top := g.loopStack[len(g.loopStack)-1]
		top.breaks = append(top.breaks, idx)
	case *ast.ContinueStmt:
		idx := g.code.Emit(bytecode.Op{Code: bytecode.Goto})
		if len(g.loopStack) == 0 {
			start, _ := n.Span()
			g.fail(diagnostics.BreakOutsideLoop, start, "'continue' outside of a while loop")
			return
		}
		top := g.loopStack[len(g.loopStack)-1]
		top.continues = append(top.continues, idx)
	case *ast.WhileStmt:
		g.whileStmt(n)
	case *ast.IfStmt:
		g.ifStmt(n)
	case *ast.AssignStmt:
		g.assignStmt(n)
	case *ast.CallStmt:
		g.expr(n.Call)
		g.code.Emit(bytecode.Op{Code: bytecode.Pop})
	}
}

func (g *Generator) whileStmt(n *ast.WhileStmt) {
	start := g.code.Len()
	g.expr(n.Cond)
	jIdx := g.code.Emit(bytecode.Op{Code: bytecode.JumpNot})

	frame := &loopFrame{}
	g.loopStack = append(g.loopStack, frame)
	g.block(n.Body.Statements)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	backIdx := g.code.Emit(bytecode.Op{Code: bytecode.Goto})
	g.patchTo(backIdx, start)

	exit := g.code.Len()
	g.patchTo(jIdx, exit)
	for _, b := range frame.breaks {
		g.patchTo(b, exit)
	}
	for _, c := range frame.continues {
		g.patchTo(c, start)
	}
}

func (g *Generator) ifStmt(n *ast.IfStmt) {
	g.expr(n.Cond)
	jIdx := g.code.Emit(bytecode.Op{Code: bytecode.JumpNot})
	g.block(n.Then.Statements)

	if n.Else == nil {
		exit := g.code.Len()
		g.patchTo(jIdx, exit)
		return
	}

	gIdx := g.code.Emit(bytecode.Op{Code: bytecode.Goto})
	elseStart := g.code.Len()
	g.patchTo(jIdx, elseStart)
	g.block(n.Else.Statements)
	exit := g.code.Len()
	g.patchTo(gIdx, exit)
}

func (g *Generator) assignStmt(n *ast.AssignStmt) {
	switch lhs := n.LHS.(type) {
	case *ast.Variable:
		g.expr(n.RHS)
		start, _ := lhs.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Store, Str: lhs.Name})
	case *ast.Index:
		g.expr(lhs.Target)
		g.expr(lhs.Key)
		g.expr(n.RHS)
		start, _ := lhs.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Put})
	case *ast.Access:
		g.expr(lhs.Target)
		g.code.Emit(bytecode.Op{Code: bytecode.PushString, Str: lhs.Name})
		g.expr(n.RHS)
		start, _ := lhs.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Put})
	default:
		start, _ := n.Span()
		g.fail(diagnostics.Assign, start, "invalid assignment target")
	}
}

func (g *Generator) expr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Integer:
		g.integerLiteral(n)
	case *ast.Float:
		g.floatLiteral(n)
	case *ast.String:
		g.code.Emit(bytecode.Op{Code: bytecode.PushString, Str: n.Value})
	case *ast.Boolean:
		g.code.Emit(bytecode.Op{Code: bytecode.PushBoolean, Bool: n.Value})
	case *ast.None:
		g.code.Emit(bytecode.Op{Code: bytecode.PushNone})
	case *ast.Variable:
		start, _ := n.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Load, Str: n.Name})
	case *ast.List:
		g.listLiteral(n)
	case *ast.Bendy:
		g.bendyLiteral(n)
	case *ast.Binary:
		g.binary(n)
	case *ast.Unary:
		g.unary(n)
	case *ast.Index:
		g.expr(n.Target)
		g.expr(n.Key)
		start, _ := n.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Get})
	case *ast.Access:
		g.expr(n.Target)
		g.code.Emit(bytecode.Op{Code: bytecode.PushString, Str: n.Name})
		start, _ := n.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Get})
	case *ast.CallExpr:
		for _, a := range n.Args {
			g.expr(a)
		}
		g.expr(n.Callee)
		start, _ := n.Span()
		g.mark(start)
		g.code.Emit(bytecode.Op{Code: bytecode.Call, ArgCount: len(n.Args)})
	case *ast.Function:
		g.functionLiteral(n)
	}
}

func (g *Generator) integerLiteral(n *ast.Integer) {
	i, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		start, _ := n.Span()
		g.fail(diagnostics.ParseInteger, start, "integer literal '"+n.Text+"' overflows a signed 64-bit integer")
		return
	}
	g.code.Emit(bytecode.Op{Code: bytecode.PushLong, Int: i})
}

func (g *Generator) floatLiteral(n *ast.Float) {
	f, err := strconv.ParseFloat(n.Text, 64)
	if err != nil || math.IsNaN(f) {
		start, _ := n.Span()
		g.fail(diagnostics.ParseFloat, start, "malformed float literal '"+n.Text+"'")
		return
	}
	g.code.Emit(bytecode.Op{Code: bytecode.PushDouble, Float: f})
}

func (g *Generator) listLiteral(n *ast.List) {
	g.code.Emit(bytecode.Op{Code: bytecode.PushList})
	for i, elem := range n.Elements {
		g.code.Emit(bytecode.Op{Code: bytecode.Dup})
		g.code.Emit(bytecode.Op{Code: bytecode.PushLong, Int: int64(i)})
		g.expr(elem)
		g.code.Emit(bytecode.Op{Code: bytecode.Put})
	}
}

func (g *Generator) bendyLiteral(n *ast.Bendy) {
	g.code.Emit(bytecode.Op{Code: bytecode.PushBendy})
	for _, field := range n.Fields {
		g.code.Emit(bytecode.Op{Code: bytecode.Dup})
		g.code.Emit(bytecode.Op{Code: bytecode.PushString, Str: field.Name})
		g.expr(field.Value)
		g.code.Emit(bytecode.Op{Code: bytecode.Put})
	}
}

var binOpcodes = map[ast.BinOp]bytecode.Opcode{
	ast.OpBitOr:    bytecode.BitOr,
	ast.OpBitXor:   bytecode.BitXOr,
	ast.OpBitAnd:   bytecode.BitAnd,
	ast.OpEq:       bytecode.Equals,
	ast.OpNeq:      bytecode.NotEquals,
	ast.OpLt:       bytecode.LessThan,
	ast.OpLte:      bytecode.LessEquals,
	ast.OpGt:       bytecode.GreaterThan,
	ast.OpGte:      bytecode.GreaterEquals,
	ast.OpConcat:   bytecode.Concat,
	ast.OpShl:      bytecode.BitLsh,
	ast.OpShr:      bytecode.BitRsh,
	ast.OpAdd:      bytecode.Add,
	ast.OpSub:      bytecode.Sub,
	ast.OpMul:      bytecode.Mul,
	ast.OpIntDiv:   bytecode.IntDiv,
	ast.OpFloatDiv: bytecode.FloatDiv,
	ast.OpMod:      bytecode.Mod,
}

func (g *Generator) binary(n *ast.Binary) {
	switch n.Op {
	case ast.OpAnd:
		g.shortCircuit(n, bytecode.JumpNot, false)
		return
	case ast.OpOr:
		g.shortCircuit(n, bytecode.Jump, true)
		return
	}

	g.expr(n.Left)
	g.expr(n.Right)
	start, _ := n.Span()
	g.mark(start)
	g.code.Emit(bytecode.Op{Code: binOpcodes[n.Op]})
}

// shortCircuit implements the and/or sentinel pattern: the skip-jump
// (JumpNot for `and`, Jump for `or`) lands directly on the
// sentinel push when the left operand's truthiness already determines
// the result; otherwise the right operand's own value is left on the
// stack and the trailing Goto skips over the sentinel push.
func (g *Generator) shortCircuit(n *ast.Binary, skipOp bytecode.Opcode, sentinel bool) {
	g.expr(n.Left)
	jIdx := g.code.Emit(bytecode.Op{Code: skipOp})
	g.expr(n.Right)
	gIdx := g.code.Emit(bytecode.Op{Code: bytecode.Goto})
	pIdx := g.code.Emit(bytecode.Op{Code: bytecode.PushBoolean, Bool: sentinel})
	g.patchTo(jIdx, pIdx)
	g.patchTo(gIdx, pIdx+1)
}

func (g *Generator) unary(n *ast.Unary) {
	g.expr(n.Operand)
	start, _ := n.Span()
	g.mark(start)
	switch n.Op {
	case ast.OpNeg:
		g.code.Emit(bytecode.Op{Code: bytecode.Neg})
	case ast.OpNot:
		g.code.Emit(bytecode.Op{Code: bytecode.BoolNot})
	}
}

func (g *Generator) functionLiteral(n *ast.Function) {
	savedLoops := g.loopStack
	savedCode := g.code
	g.loopStack = nil
	g.code = bytecode.NewCode()

	g.block(n.Body.Statements)
	g.code.Emit(bytecode.Op{Code: bytecode.PushNone})
	g.code.Emit(bytecode.Op{Code: bytecode.Return})

	inner := g.code
	g.code = savedCode
	g.loopStack = savedLoops

	g.code.Emit(bytecode.Op{Code: bytecode.PushFun, Params: n.Params, Func: inner})
}
