// Package value defines Olive's tagged runtime value model: immediate
// variants carried inline, and composite variants reached through a
// heap Handle. The tagged-union-via-Kind shape is generalized to a
// handle-indirection model so the heap package can mark-and-sweep
// composites independently of the VM stack.
package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/informatter/olive/internal/bytecode"
)

// Kind tags a Value's variant.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindBoolean
	KindNone
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindNone:
		return "None"
	case KindHandle:
		return "Handle"
	default:
		return "Unknown"
	}
}

// Value is Olive's tagged runtime value: an immediate (Integer, Float,
// Boolean, None) carried inline, or a Handle indexing into the heap for
// composite variants (String, List, Bendy, Function, Native).
type Value struct {
	kind    Kind
	integer int64
	float   float64
	boolean bool
	handle  Handle
}

// Handle is an opaque reference to a heap-allocated composite. Its
// HeapKind distinguishes String/List/Bendy/Function/Native without the
// VM needing to dereference the heap.
type Handle struct {
	Index    int
	HeapKind HeapKind
}

type HeapKind int

const (
	HeapString HeapKind = iota
	HeapList
	HeapBendy
	HeapFunction
	HeapNative
)

func Integer(i int64) Value   { return Value{kind: KindInteger, integer: i} }
func Float(f float64) Value   { return Value{kind: KindFloat, float: f} }
func Boolean(b bool) Value    { return Value{kind: KindBoolean, boolean: b} }
func None() Value             { return Value{kind: KindNone} }
func FromHandle(h Handle) Value { return Value{kind: KindHandle, handle: h} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsInteger() bool  { return v.kind == KindInteger }
func (v Value) IsFloat() bool    { return v.kind == KindFloat }
func (v Value) IsBoolean() bool  { return v.kind == KindBoolean }
func (v Value) IsNone() bool     { return v.kind == KindNone }
func (v Value) IsHandle() bool   { return v.kind == KindHandle }

func (v Value) AsInteger() int64  { return v.integer }
func (v Value) AsFloat() float64  { return v.float }
func (v Value) AsBoolean() bool   { return v.boolean }
func (v Value) AsHandle() Handle  { return v.handle }

// IsNumeric reports whether v is an Integer or Float, the pair accepted
// by arithmetic and comparison operators.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindFloat }

// NumericFloat widens an Integer or Float value to float64, for mixed
// arithmetic promotion.
func (v Value) NumericFloat() float64 {
	if v.kind == KindInteger {
		return float64(v.integer)
	}
	return v.float
}

// Heap abstracts the operations value needs from the heap without
// importing it directly (the heap package imports value, not the other
// way around); the VM supplies the concrete *heap.Heap at dispatch
// time.
type Heap interface {
	String(h Handle) string
	List(h Handle) []Value
	BendyKeys(h Handle) []string
	BendyGet(h Handle, key string) (Value, bool)
	FunctionParams(h Handle) []string
	FunctionBody(h Handle) *bytecode.Code
	NativeArity(h Handle) int
}

// Truthy implements Olive's truthiness table.
func Truthy(v Value, heap Heap) bool {
	switch v.kind {
	case KindInteger:
		return v.integer != 0
	case KindFloat:
		return v.float != 0.0
	case KindBoolean:
		return v.boolean
	case KindNone:
		return false
	case KindHandle:
		switch v.handle.HeapKind {
		case HeapString:
			return heap.String(v.handle) != ""
		case HeapList:
			return len(heap.List(v.handle)) != 0
		case HeapBendy:
			return len(heap.BendyKeys(v.handle)) != 0
		case HeapFunction, HeapNative:
			return true
		}
	}
	return false
}

// ToString implements Olive's to_string conversion, used by Concat and
// by diagnostics formatting.
func ToString(v Value, heap Heap) string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return formatFloat(v.float)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	case KindNone:
		return "none"
	case KindHandle:
		switch v.handle.HeapKind {
		case HeapString:
			return heap.String(v.handle)
		case HeapList:
			elems := heap.List(v.handle)
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = ToString(e, heap)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		case HeapBendy:
			keys := heap.BendyKeys(v.handle)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				val, _ := heap.BendyGet(v.handle, k)
				parts = append(parts, fmt.Sprintf("%s: %s", k, ToString(val, heap)))
			}
			return "{" + strings.Join(parts, ", ") + "}"
		case HeapFunction:
			return fmt.Sprintf("<function/%d>", len(heap.FunctionParams(v.handle)))
		case HeapNative:
			return fmt.Sprintf("<native/%d>", heap.NativeArity(v.handle))
		}
	}
	return "?"
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal implements Olive's cross-variant equality rules: Integer
// and Float are cross-equal when numerically equal; lists/bendies
// compare structurally; every other cross-variant pair is unequal.
func Equal(a, b Value, heap Heap) bool {
	if a.kind == KindInteger && b.kind == KindInteger {
		return a.integer == b.integer
	}
	if a.IsNumeric() && b.IsNumeric() {
		return a.NumericFloat() == b.NumericFloat()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBoolean:
		return a.boolean == b.boolean
	case KindNone:
		return true
	case KindHandle:
		if a.handle.HeapKind != b.handle.HeapKind {
			return false
		}
		switch a.handle.HeapKind {
		case HeapString:
			return heap.String(a.handle) == heap.String(b.handle)
		case HeapList:
			la, lb := heap.List(a.handle), heap.List(b.handle)
			if len(la) != len(lb) {
				return false
			}
			for i := range la {
				if !Equal(la[i], lb[i], heap) {
					return false
				}
			}
			return true
		case HeapBendy:
			ka, kb := heap.BendyKeys(a.handle), heap.BendyKeys(b.handle)
			if len(ka) != len(kb) {
				return false
			}
			for i := range ka {
				if ka[i] != kb[i] {
					return false
				}
				va, _ := heap.BendyGet(a.handle, ka[i])
				vb, _ := heap.BendyGet(b.handle, kb[i])
				if !Equal(va, vb, heap) {
					return false
				}
			}
			return true
		case HeapFunction:
			pa, pb := heap.FunctionParams(a.handle), heap.FunctionParams(b.handle)
			if len(pa) != len(pb) {
				return false
			}
			for i := range pa {
				if pa[i] != pb[i] {
					return false
				}
			}
			// Positions is a diagnostics-only aid absent from the
			// original Code type's own equality, so only Ops counts.
			return reflect.DeepEqual(heap.FunctionBody(a.handle).Ops, heap.FunctionBody(b.handle).Ops)
		default:
			return a.handle.Index == b.handle.Index
		}
	}
	return false
}
