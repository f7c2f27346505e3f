package vm

import (
	"testing"

	"github.com/informatter/olive/internal/codegen"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/lexer"
	"github.com/informatter/olive/internal/parser"
	"github.com/informatter/olive/internal/value"
)

func run(t *testing.T, src string) (value.Value, *VM) {
	t.Helper()
	toks, lexErr := lexer.New(src).Scan()
	if lexErr != nil {
		t.Fatalf("lexer raised %v", lexErr)
	}
	statements, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("parser raised %v", parseErrs)
	}
	code, genErrs := codegen.Generate(statements)
	if len(genErrs) != 0 {
		t.Fatalf("codegen raised %v", genErrs)
	}
	machine := New(nil)
	result, runErr := machine.Run(code)
	if runErr != nil {
		t.Fatalf("vm raised %v", runErr)
	}
	return result, machine
}

func runExpectError(t *testing.T, src string) *diagnostics.Diagnostic {
	t.Helper()
	toks, lexErr := lexer.New(src).Scan()
	if lexErr != nil {
		t.Fatalf("lexer raised %v", lexErr)
	}
	statements, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("parser raised %v", parseErrs)
	}
	code, genErrs := codegen.Generate(statements)
	if len(genErrs) != 0 {
		t.Fatalf("codegen raised %v", genErrs)
	}
	_, runErr := New(nil).Run(code)
	if runErr == nil {
		t.Fatal("expected a runtime diagnostic, got none")
	}
	return runErr
}

func TestArithmeticIntVsFloatPromotion(t *testing.T) {
	result, vm := run(t, "x = 1 + 2; return x;")
	if !result.IsInteger() || result.AsInteger() != 3 {
		t.Errorf("1 + 2 = %v, want Integer(3)", value.ToString(result, vm.Heap()))
	}

	result, vm = run(t, "x = 1 + 2.0; return x;")
	if !result.IsFloat() || result.AsFloat() != 3.0 {
		t.Errorf("1 + 2.0 = %v, want Float(3.0)", value.ToString(result, vm.Heap()))
	}
}

func TestStringConcat(t *testing.T) {
	result, vm := run(t, `return "a" $ "b" $ 1;`)
	if got := vm.Heap().String(result.AsHandle()); got != "ab1" {
		t.Errorf("concat = %q, want %q", got, "ab1")
	}
}

func TestIfElseControlFlow(t *testing.T) {
	result, _ := run(t, `
x = 0;
if (1 < 2) { x = 10; } else { x = 20; }
return x;
`)
	if result.AsInteger() != 10 {
		t.Errorf("x = %d, want 10", result.AsInteger())
	}
}

func TestWhileBreakAndContinue(t *testing.T) {
	result, _ := run(t, `
i = 0;
sum = 0;
while (i < 10) {
  i = i + 1;
  if (i == 5) { continue; }
  if (i == 8) { break; }
  sum = sum + i;
}
return sum;
`)
	// 1+2+3+4 (skip 5) +6+7 = 23, loop exits before 8 is added
	if result.AsInteger() != 23 {
		t.Errorf("sum = %d, want 23", result.AsInteger())
	}
}

func TestClosureOverDynamicScope(t *testing.T) {
	result, _ := run(t, `
counter = 0;
inc = fun() { counter = counter + 1; return counter; };
inc();
inc();
return inc();
`)
	if result.AsInteger() != 3 {
		t.Errorf("counter = %d, want 3 (store-updates-nearest-ancestor gives the closure a mutable upvalue)", result.AsInteger())
	}
}

// TestClosureCapturesConstructionScopeAfterCallReturns is the spec's
// own mk/f example: mk's call-scope (holding c) must stay reachable
// through the closure it returns even after mk() itself has returned,
// which only holds if a function literal captures the scope it was
// constructed in rather than re-parenting to whatever scope happens to
// call it later.
func TestClosureCapturesConstructionScopeAfterCallReturns(t *testing.T) {
	result, vm := run(t, `
mk = fun() { c = 0; return fun() { c = c + 1; return c; }; };
f = mk();
a = f();
b = f();
d = f();
return new [a, b, d];
`)
	elems := vm.Heap().List(result.AsHandle())
	if len(elems) != 3 || elems[0].AsInteger() != 1 || elems[1].AsInteger() != 2 || elems[2].AsInteger() != 3 {
		t.Errorf("[f(), f(), f()] = %v, want [1 2 3]", elems)
	}
}

func TestListLiteralAndIndexAssignment(t *testing.T) {
	result, vm := run(t, `
xs = new [1, 2, 3];
xs[1] = 20;
return xs;
`)
	elems := vm.Heap().List(result.AsHandle())
	if len(elems) != 3 || elems[1].AsInteger() != 20 {
		t.Errorf("xs = %v, want [1 20 3]", elems)
	}
}

func TestBendyLiteralAndFieldAccess(t *testing.T) {
	result, _ := run(t, `
rec = new { name: "a", age: 1 };
rec.age = 2;
return rec.age;
`)
	if result.AsInteger() != 2 {
		t.Errorf("rec.age = %d, want 2", result.AsInteger())
	}
}

func TestCallArityMismatchIsAnError(t *testing.T) {
	diag := runExpectError(t, `
f = fun(a, b) { return a; };
f(1);
`)
	if diag.Kind != diagnostics.CallArgs {
		t.Errorf("Kind = %v, want CallArgs", diag.Kind)
	}
}

func TestCallBindsLastPushedArgumentToFirstParameter(t *testing.T) {
	result, vm := run(t, `
f = fun(a, b) { return a $ b; };
return f("first", "second");
`)
	if got := value.ToString(result, vm.Heap()); got != "secondfirst" {
		t.Errorf("f(\"first\", \"second\") = %q, want %q", got, "secondfirst")
	}
}

func TestDivideByZeroIsAnError(t *testing.T) {
	diag := runExpectError(t, "x = 1 // 0;")
	if diag.Kind != diagnostics.DivideByZero {
		t.Errorf("Kind = %v, want DivideByZero", diag.Kind)
	}
}

func TestVariableNotFoundIsAnError(t *testing.T) {
	diag := runExpectError(t, "return missing;")
	if diag.Kind != diagnostics.VariableNotFound {
		t.Errorf("Kind = %v, want VariableNotFound", diag.Kind)
	}
}

func TestIndexOutOfBoundsIsAnError(t *testing.T) {
	diag := runExpectError(t, `
xs = new [1];
return xs[5];
`)
	if diag.Kind != diagnostics.IndexOutOfBounds {
		t.Errorf("Kind = %v, want IndexOutOfBounds", diag.Kind)
	}
}

func TestWithStackCapacityPreSizesBackingArray(t *testing.T) {
	machine := New(nil).WithStackCapacity(64)
	if cap(machine.stack) != 64 {
		t.Errorf("cap(stack) = %d, want 64", cap(machine.stack))
	}
}

func TestAndOrShortCircuitValues(t *testing.T) {
	result, _ := run(t, "return false and (1 // 0);")
	if !result.IsBoolean() || result.AsBoolean() {
		t.Errorf("false and ... = %v, want Boolean(false) without evaluating the right side", result)
	}

	result, _ = run(t, "return true or (1 // 0);")
	if !result.IsBoolean() || !result.AsBoolean() {
		t.Errorf("true or ... = %v, want Boolean(true) without evaluating the right side", result)
	}
}

// TestFunctionEqualityComparesParamsAndBody mirrors the original
// Object::eq rule for RefObject::Function: two independently-compiled
// but structurally identical function literals are equal, and a
// structurally different one is not — equality is never by identity.
func TestFunctionEqualityComparesParamsAndBody(t *testing.T) {
	result, vm := run(t, `
a = fun(x) { return x; };
b = fun(x) { return x; };
c = fun(x) { return x + 1; };
return new [a == b, a == c];
`)
	elems := vm.Heap().List(result.AsHandle())
	if !elems[0].IsBoolean() || !elems[0].AsBoolean() {
		t.Errorf("a == b = %v, want true (same params and body)", elems[0])
	}
	if !elems[1].IsBoolean() || elems[1].AsBoolean() {
		t.Errorf("a == c = %v, want false (different body)", elems[1])
	}
}
