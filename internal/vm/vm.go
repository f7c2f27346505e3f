// Package vm implements Olive's stack-based bytecode interpreter: an
// operand stack, nested call frames, and full opcode dispatch over the
// value model and heap. The single-stack, fetch-decode-dispatch loop
// and the dedicated Stack helper type follow the same shape as a small
// arithmetic/print VM, generalized to Olive's full operator table,
// call frames closing over their construction-time scope, and the
// mark-and-sweep heap collector invoked when Run completes.
package vm

import (
	"fmt"
	"log/slog"

	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/heap"
	"github.com/informatter/olive/internal/scope"
	"github.com/informatter/olive/internal/source"
	"github.com/informatter/olive/internal/value"
)

// Stack is the VM's single shared operand stack; every call frame
// pushes and pops from the same Stack, so a Return only needs to leave
// its result on top for the caller to find.
type Stack []value.Value

func (s *Stack) push(v value.Value) { *s = append(*s, v) }

func (s *Stack) pop() (value.Value, bool) {
	if len(*s) == 0 {
		return value.Value{}, false
	}
	idx := len(*s) - 1
	v := (*s)[idx]
	*s = (*s)[:idx]
	return v, true
}

// frame is one active call's bytecode pointer and scope.
type frame struct {
	code  *bytecode.Code
	ip    int
	scope *scope.Scope
}

// VM evaluates a Code object against the value model and heap.
type VM struct {
	stack   Stack
	frames  []*frame
	heap    *heap.Heap
	globals *scope.Scope
	logger  *slog.Logger
	src     *source.Map // optional; nil when running a compiled unit with no source text
}

// New constructs a VM. logger may be nil, in which case a discarding
// logger is used (matching slog.New(slog.DiscardHandler) behavior).
func New(logger *slog.Logger) *VM {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &VM{
		heap:    heap.New(),
		globals: scope.New(nil),
		logger:  logger,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// WithStackCapacity pre-sizes the operand stack's backing array.
// Capacity only, never a hard limit: the stack still grows past it via
// append.
func (vm *VM) WithStackCapacity(capacity int) *VM {
	if capacity > 0 {
		vm.stack = make(Stack, 0, capacity)
	}
	return vm
}

// WithSource attaches a source.Map so runtime diagnostics can report
// line/column instead of bare byte offsets. Safe to skip when running
// a compiled unit that carries no source text.
func (vm *VM) WithSource(m *source.Map) *VM {
	vm.src = m
	return vm
}

// DefineNative registers a Go-implemented builtin as a global variable,
// used to install `print`, `len`, and other native functions before a
// Run.
func (vm *VM) DefineNative(name string, arity int, fn heap.NativeFunc) {
	vm.globals.Store(name, vm.heap.AllocNative(arity, fn))
}

// Heap exposes the VM's heap, for callers that need to inspect its
// values (e.g. the REPL, to render a result) or force a Collect.
func (vm *VM) Heap() *heap.Heap { return vm.heap }

// Run executes code to completion in the global scope and returns its
// final value (the implicit `none` from the trailing Return codegen
// always appends, unless an explicit `return` produced something
// else).
func (vm *VM) Run(code *bytecode.Code) (value.Value, *diagnostics.Diagnostic) {
	vm.frames = append(vm.frames, &frame{code: code, scope: vm.globals})
	result, err := vm.loop()
	vm.heap.Collect(vm.roots())
	return result, err
}

// roots gathers the GC root set: every value still on the operand
// stack, plus every value bound in every active scope.
func (vm *VM) roots() []value.Value {
	roots := append([]value.Value{}, vm.stack...)
	seen := make(map[*scope.Scope]bool)
	for _, f := range vm.frames {
		for s := f.scope; s != nil && !seen[s]; s = s.Parent {
			seen[s] = true
			roots = append(roots, s.Values()...)
		}
	}
	return roots
}

func (vm *VM) currentFrame() *frame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) diagAt(kind diagnostics.Kind, byteOffset int, msg string) *diagnostics.Diagnostic {
	line, col := 0, 0
	if vm.src != nil {
		line, col = vm.src.Position(byteOffset)
	}
	return diagnostics.New(kind, line, col, msg)
}

func (vm *VM) positionOf(f *frame) int {
	if off, ok := f.code.Positions[f.ip]; ok {
		return off
	}
	return 0
}

// loop is the fetch-decode-dispatch cycle. It runs until the
// outermost frame executes Return (program complete) or an opcode
// raises a diagnostic.
func (vm *VM) loop() (value.Value, *diagnostics.Diagnostic) {
	for {
		f := vm.currentFrame()
		if f.ip >= len(f.code.Ops) {
			return value.None(), nil
		}
		op := f.code.Ops[f.ip]
		vm.logger.Debug("dispatch", "ip", f.ip, "op", op.Code.String())

		switch op.Code {
		case bytecode.PushString:
			vm.stack.push(vm.heap.AllocString(op.Str))
			f.ip++
		case bytecode.PushBoolean:
			vm.stack.push(value.Boolean(op.Bool))
			f.ip++
		case bytecode.PushDouble:
			vm.stack.push(value.Float(op.Float))
			f.ip++
		case bytecode.PushLong:
			vm.stack.push(value.Integer(op.Int))
			f.ip++
		case bytecode.PushNone:
			vm.stack.push(value.None())
			f.ip++
		case bytecode.PushList:
			vm.stack.push(vm.heap.AllocList(nil))
			f.ip++
		case bytecode.PushBendy:
			vm.stack.push(vm.heap.AllocBendy())
			f.ip++
		case bytecode.PushFun:
			vm.stack.push(vm.heap.AllocFunction(op.Params, op.Func, f.scope))
			f.ip++

		case bytecode.Store:
			v, _ := vm.stack.pop()
			f.scope.Store(op.Str, v)
			f.ip++
		case bytecode.Load:
			v, ok := f.scope.Load(op.Str)
			if !ok {
				return value.Value{}, diagnostics.VariableNotFoundDiagnostic(0, 0, op.Str, f.scope.Names())
			}
			vm.stack.push(v)
			f.ip++

		case bytecode.JumpNot:
			v, _ := vm.stack.pop()
			if !value.Truthy(v, vm.heap) {
				f.ip += op.Offset
			} else {
				f.ip++
			}
		case bytecode.Jump:
			v, _ := vm.stack.pop()
			if value.Truthy(v, vm.heap) {
				f.ip += op.Offset
			} else {
				f.ip++
			}
		case bytecode.Goto:
			f.ip += op.Offset

		case bytecode.Pop:
			vm.stack.pop()
			f.ip++
		case bytecode.Dup:
			top := vm.stack[len(vm.stack)-1]
			vm.stack.push(top)
			f.ip++

		case bytecode.Return:
			ret, _ := vm.stack.pop()
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return ret, nil
			}
			vm.stack.push(ret)

		case bytecode.Call:
			// f.ip is advanced on the caller's own frame object before
			// dispatch, since Call may push a new callee frame onto
			// vm.frames: currentFrame() after a function call is the
			// callee, not f, so advancing through currentFrame() here
			// would corrupt the callee's fresh ip=0 instead of the
			// caller's.
			f.ip++
			if err := vm.call(op.ArgCount); err != nil {
				return value.Value{}, err
			}

		case bytecode.Neg, bytecode.BoolNot:
			if err := vm.unaryOp(op.Code); err != nil {
				return value.Value{}, err
			}
			f.ip++

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.IntDiv, bytecode.FloatDiv, bytecode.Mod,
			bytecode.BitAnd, bytecode.BitOr, bytecode.BitXOr, bytecode.BitLsh, bytecode.BitRsh,
			bytecode.Concat, bytecode.Equals, bytecode.NotEquals,
			bytecode.LessThan, bytecode.LessEquals, bytecode.GreaterThan, bytecode.GreaterEquals:
			if err := vm.binaryOp(op.Code, f); err != nil {
				return value.Value{}, err
			}
			f.ip++

		case bytecode.Put:
			if err := vm.put(f); err != nil {
				return value.Value{}, err
			}
			f.ip++
		case bytecode.Get:
			if err := vm.get(f); err != nil {
				return value.Value{}, err
			}
			f.ip++

		default:
			return value.Value{}, vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f),
				fmt.Sprintf("unimplemented opcode %s", op.Code))
		}
	}
}

// call implements the Call dispatch: a Function value binds popped
// arguments in reverse order into a fresh scope whose parent is the
// scope the function closed over when its PushFun executed (lexical
// capture-at-construction) — not the scope of whoever happens to call
// it — so a returned closure keeps reaching the locals of the call
// that constructed it even after that call has returned; a Native
// value is invoked directly against the popped argument slice.
func (vm *VM) call(argCount int) *diagnostics.Diagnostic {
	callerFrame := vm.currentFrame()
	callee, _ := vm.stack.pop()
	if !callee.IsHandle() {
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(callerFrame), "value is not callable")
	}

	switch callee.AsHandle().HeapKind {
	case value.HeapFunction:
		handle := callee.AsHandle()
		params := vm.heap.FunctionParams(handle)
		body := vm.heap.FunctionBody(handle)
		if len(params) != argCount {
			return vm.diagAt(diagnostics.CallArgs, vm.positionOf(callerFrame),
				fmt.Sprintf("function expects %d argument(s), got %d", len(params), argCount))
		}
		callScope := scope.New(vm.heap.FunctionScope(handle))
		// Arguments are pushed left-to-right, so the last-pushed argument
		// is on top of the stack; binding params in declared order while
		// popping top-first gives the spec's "last pushed argument binds
		// to the first parameter" rule directly, with no reversal step.
		for _, p := range params {
			v, _ := vm.stack.pop()
			callScope.Store(p, v)
		}
		vm.frames = append(vm.frames, &frame{code: body, scope: callScope})
		return nil

	case value.HeapNative:
		handle := callee.AsHandle()
		arity := vm.heap.NativeArity(handle)
		if arity != argCount {
			return vm.diagAt(diagnostics.CallArgs, vm.positionOf(callerFrame),
				fmt.Sprintf("native function expects %d argument(s), got %d", arity, argCount))
		}
		args := make([]value.Value, argCount)
		for i := argCount - 1; i >= 0; i-- {
			args[i], _ = vm.stack.pop()
		}
		fn := vm.heap.NativeFunc(handle)
		result, err := fn(args)
		if err != nil {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(callerFrame), err.Error())
		}
		vm.stack.push(result)
		return nil

	default:
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(callerFrame), "value is not callable")
	}
}

func (vm *VM) unaryOp(op bytecode.Opcode) *diagnostics.Diagnostic {
	f := vm.currentFrame()
	v, _ := vm.stack.pop()
	switch op {
	case bytecode.Neg:
		switch {
		case v.IsInteger():
			vm.stack.push(value.Integer(-v.AsInteger()))
		case v.IsFloat():
			vm.stack.push(value.Float(-v.AsFloat()))
		default:
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "'-' requires a numeric operand")
		}
	case bytecode.BoolNot:
		vm.stack.push(value.Boolean(!value.Truthy(v, vm.heap)))
	}
	return nil
}
