// Package native implements Olive's built-in Native functions (the
// "Native with declared arity" callee kind) and the `.olvn` native-
// module descriptor format used to validate externally loaded modules
// before the plugin loader touches them. print moves printing out of
// the grammar and into an ordinary arity-1 Native function, rather than
// a dedicated print statement, so user code can shadow or pass it
// around like any other value.
package native

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/informatter/olive/internal/heap"
	"github.com/informatter/olive/internal/value"
)

// Binder is what Install registers Olive's standard native functions
// on as globals: an *vm.VM, or anything exposing DefineNative with
// this shape.
type Binder interface {
	DefineNative(name string, arity int, fn heap.NativeFunc)
}

// Install registers `print` and `len`, writing print's output to w.
func Install(b Binder, h *heap.Heap, w io.Writer) {
	b.DefineNative("print", 1, func(args []value.Value) (value.Value, error) {
		fmt.Fprintln(w, value.ToString(args[0], h))
		return value.None(), nil
	})

	b.DefineNative("len", 1, func(args []value.Value) (value.Value, error) {
		v := args[0]
		if !v.IsHandle() {
			return value.Value{}, fmt.Errorf("len() requires a String, List, or Bendy argument")
		}
		switch v.AsHandle().HeapKind {
		case value.HeapString:
			return value.Integer(int64(len([]rune(h.String(v.AsHandle()))))), nil
		case value.HeapList:
			return value.Integer(int64(len(h.List(v.AsHandle())))), nil
		case value.HeapBendy:
			return value.Integer(int64(len(h.BendyKeys(v.AsHandle())))), nil
		default:
			return value.Value{}, fmt.Errorf("len() requires a String, List, or Bendy argument")
		}
	})
}

// descriptorSchema validates an `.olvn` native-module descriptor: the
// JSON manifest a native module ships alongside its compiled plugin so
// the (out-of-scope) loader can check its declared exports' arities
// before dynamically loading it.
const descriptorSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "functions"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"functions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "arity"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"arity": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

// Descriptor is a validated `.olvn` manifest.
type Descriptor struct {
	Name      string             `json:"name"`
	Functions []FunctionManifest `json:"functions"`
}

type FunctionManifest struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

// ValidateDescriptor checks raw JSON bytes against the `.olvn` schema.
// It does not load or execute anything — the native plugin loader
// itself is out of scope; this only validates the manifest shape the
// loader would consume.
func ValidateDescriptor(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("olvn.json", strings.NewReader(descriptorSchema)); err != nil {
		return fmt.Errorf("compile .olvn schema: %w", err)
	}
	schema, err := compiler.Compile("olvn.json")
	if err != nil {
		return fmt.Errorf("compile .olvn schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse .olvn descriptor: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid .olvn descriptor: %w", err)
	}
	return nil
}
