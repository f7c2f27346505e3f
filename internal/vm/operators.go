package vm

import (
	"math"

	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/value"
)

// binaryOp implements Olive's operator dispatch table: the stack-top
// is the right operand, stack-top-1 is the left.
func (vm *VM) binaryOp(op bytecode.Opcode, f *frame) *diagnostics.Diagnostic {
	right, _ := vm.stack.pop()
	left, _ := vm.stack.pop()

	switch op {
	case bytecode.Equals:
		vm.stack.push(value.Boolean(value.Equal(left, right, vm.heap)))
		return nil
	case bytecode.NotEquals:
		vm.stack.push(value.Boolean(!value.Equal(left, right, vm.heap)))
		return nil
	case bytecode.Concat:
		return vm.concat(left, right, f)
	}

	switch op {
	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.IntDiv, bytecode.FloatDiv, bytecode.Mod:
		return vm.arithmetic(op, left, right, f)
	case bytecode.BitAnd, bytecode.BitOr, bytecode.BitXOr, bytecode.BitLsh, bytecode.BitRsh:
		return vm.bitwise(op, left, right, f)
	case bytecode.LessThan, bytecode.LessEquals, bytecode.GreaterThan, bytecode.GreaterEquals:
		return vm.compareNumeric(op, left, right, f)
	}
	return nil
}

func (vm *VM) arithmetic(op bytecode.Opcode, left, right value.Value, f *frame) *diagnostics.Diagnostic {
	if !left.IsNumeric() || !right.IsNumeric() {
		return vm.diagAt(diagnostics.UnmatchingTypes, vm.positionOf(f),
			"arithmetic requires numeric operands")
	}

	bothInt := left.IsInteger() && right.IsInteger()

	switch op {
	case bytecode.Add:
		if bothInt {
			vm.stack.push(value.Integer(left.AsInteger() + right.AsInteger()))
		} else {
			vm.stack.push(value.Float(left.NumericFloat() + right.NumericFloat()))
		}
	case bytecode.Sub:
		if bothInt {
			vm.stack.push(value.Integer(left.AsInteger() - right.AsInteger()))
		} else {
			vm.stack.push(value.Float(left.NumericFloat() - right.NumericFloat()))
		}
	case bytecode.Mul:
		if bothInt {
			vm.stack.push(value.Integer(left.AsInteger() * right.AsInteger()))
		} else {
			vm.stack.push(value.Float(left.NumericFloat() * right.NumericFloat()))
		}
	case bytecode.Mod:
		if bothInt {
			if right.AsInteger() == 0 {
				return vm.diagAt(diagnostics.DivideByZero, vm.positionOf(f), "modulo by zero")
			}
			vm.stack.push(value.Integer(left.AsInteger() % right.AsInteger()))
		} else {
			vm.stack.push(value.Float(math.Mod(left.NumericFloat(), right.NumericFloat())))
		}
	case bytecode.IntDiv:
		if bothInt {
			if right.AsInteger() == 0 {
				return vm.diagAt(diagnostics.DivideByZero, vm.positionOf(f), "integer division by zero")
			}
			vm.stack.push(value.Integer(left.AsInteger() / right.AsInteger()))
		} else {
			lf, rf := left.NumericFloat(), right.NumericFloat()
			vm.stack.push(value.Float(float64(int64(lf / rf))))
		}
	case bytecode.FloatDiv:
		vm.stack.push(value.Float(left.NumericFloat() / right.NumericFloat()))
	}
	return nil
}

func (vm *VM) bitwise(op bytecode.Opcode, left, right value.Value, f *frame) *diagnostics.Diagnostic {
	if !left.IsInteger() || !right.IsInteger() {
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "bitwise operators require Integer operands")
	}
	l, r := left.AsInteger(), right.AsInteger()
	switch op {
	case bytecode.BitAnd:
		vm.stack.push(value.Integer(l & r))
	case bytecode.BitOr:
		vm.stack.push(value.Integer(l | r))
	case bytecode.BitXOr:
		vm.stack.push(value.Integer(l ^ r))
	case bytecode.BitLsh:
		if r < 0 || r >= 64 {
			vm.stack.push(value.Integer(0))
		} else {
			vm.stack.push(value.Integer(l << uint(r)))
		}
	case bytecode.BitRsh:
		if r < 0 || r >= 64 {
			if l < 0 {
				vm.stack.push(value.Integer(-1))
			} else {
				vm.stack.push(value.Integer(0))
			}
		} else {
			vm.stack.push(value.Integer(l >> uint(r)))
		}
	}
	return nil
}

func (vm *VM) compareNumeric(op bytecode.Opcode, left, right value.Value, f *frame) *diagnostics.Diagnostic {
	if !left.IsNumeric() || !right.IsNumeric() {
		return vm.diagAt(diagnostics.UnmatchingTypes, vm.positionOf(f), "comparison requires numeric operands")
	}
	l, r := left.NumericFloat(), right.NumericFloat()
	var result bool
	switch op {
	case bytecode.LessThan:
		result = l < r
	case bytecode.LessEquals:
		result = l <= r
	case bytecode.GreaterThan:
		result = l > r
	case bytecode.GreaterEquals:
		result = l >= r
	}
	vm.stack.push(value.Boolean(result))
	return nil
}

// concat implements Olive's Concat rule: two Strings, two Lists, or
// two Bendies concatenate structurally; a String paired with
// any other type coerces the other operand via to_string.
func (vm *VM) concat(left, right value.Value, f *frame) *diagnostics.Diagnostic {
	isStr := func(v value.Value) bool { return v.IsHandle() && v.AsHandle().HeapKind == value.HeapString }
	isList := func(v value.Value) bool { return v.IsHandle() && v.AsHandle().HeapKind == value.HeapList }
	isBendy := func(v value.Value) bool { return v.IsHandle() && v.AsHandle().HeapKind == value.HeapBendy }

	switch {
	case isStr(left) && isStr(right):
		vm.stack.push(vm.heap.AllocString(vm.heap.String(left.AsHandle()) + vm.heap.String(right.AsHandle())))
	case isList(left) && isList(right):
		combined := append(append([]value.Value{}, vm.heap.List(left.AsHandle())...), vm.heap.List(right.AsHandle())...)
		vm.stack.push(vm.heap.AllocList(combined))
	case isBendy(left) && isBendy(right):
		result := vm.heap.AllocBendy()
		rh := result.AsHandle()
		for _, k := range vm.heap.BendyKeys(left.AsHandle()) {
			v, _ := vm.heap.BendyGet(left.AsHandle(), k)
			vm.heap.BendyPut(rh, k, v)
		}
		for _, k := range vm.heap.BendyKeys(right.AsHandle()) {
			v, _ := vm.heap.BendyGet(right.AsHandle(), k)
			vm.heap.BendyPut(rh, k, v)
		}
		vm.stack.push(result)
	case isStr(left):
		vm.stack.push(vm.heap.AllocString(vm.heap.String(left.AsHandle()) + value.ToString(right, vm.heap)))
	case isStr(right):
		vm.stack.push(vm.heap.AllocString(value.ToString(left, vm.heap) + vm.heap.String(right.AsHandle())))
	default:
		return vm.diagAt(diagnostics.UnmatchingTypes, vm.positionOf(f), "'$' requires a String, List, or Bendy operand")
	}
	return nil
}

// put implements the Put opcode: pop value, pop index, pop target.
// Lists grow with None up to the assigned index; Bendies
// require a String key.
func (vm *VM) put(f *frame) *diagnostics.Diagnostic {
	v, _ := vm.stack.pop()
	key, _ := vm.stack.pop()
	target, _ := vm.stack.pop()

	if !target.IsHandle() {
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "target of index/access assignment is not a list or bendy")
	}
	handle := target.AsHandle()
	switch handle.HeapKind {
	case value.HeapList:
		if !key.IsInteger() || key.AsInteger() < 0 {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "list index must be a non-negative Integer")
		}
		idx := int(key.AsInteger())
		elems := vm.heap.List(handle)
		for len(elems) <= idx {
			elems = append(elems, value.None())
		}
		elems[idx] = v
		vm.heap.SetList(handle, elems)
	case value.HeapBendy:
		if !key.IsHandle() || key.AsHandle().HeapKind != value.HeapString {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "bendy key must be a String")
		}
		vm.heap.BendyPut(handle, vm.heap.String(key.AsHandle()), v)
	default:
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "target of index/access assignment is not a list or bendy")
	}
	return nil
}

// get implements the Get opcode: pop index, pop target.
func (vm *VM) get(f *frame) *diagnostics.Diagnostic {
	key, _ := vm.stack.pop()
	target, _ := vm.stack.pop()

	if !target.IsHandle() {
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "target of index/access is not a list, bendy, or string")
	}
	handle := target.AsHandle()
	switch handle.HeapKind {
	case value.HeapList:
		if !key.IsInteger() {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "list index must be an Integer")
		}
		elems := vm.heap.List(handle)
		idx := int(key.AsInteger())
		if idx < 0 || idx >= len(elems) {
			return vm.diagAt(diagnostics.IndexOutOfBounds, vm.positionOf(f), "list index out of bounds")
		}
		vm.stack.push(elems[idx])
	case value.HeapString:
		if !key.IsInteger() {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "string index must be an Integer")
		}
		runes := []rune(vm.heap.String(handle))
		idx := int(key.AsInteger())
		if idx < 0 || idx >= len(runes) {
			return vm.diagAt(diagnostics.IndexOutOfBounds, vm.positionOf(f), "string index out of bounds")
		}
		vm.stack.push(vm.heap.AllocString(string(runes[idx])))
	case value.HeapBendy:
		if !key.IsHandle() || key.AsHandle().HeapKind != value.HeapString {
			return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "bendy key must be a String")
		}
		k := vm.heap.String(key.AsHandle())
		v, ok := vm.heap.BendyGet(handle, k)
		if !ok {
			return vm.diagAt(diagnostics.IndexOutOfBounds, vm.positionOf(f), "bendy has no key '"+k+"'")
		}
		vm.stack.push(v)
	default:
		return vm.diagAt(diagnostics.IncorrectType, vm.positionOf(f), "target of index/access is not a list, bendy, or string")
	}
	return nil
}
