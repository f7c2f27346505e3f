// Package codec implements Olive's binary compiled-unit format: a
// magic prefix, a content checksum, and a structured payload. The
// magic+checksum+payload layering follows common container conventions
// (length-prefixed sections after a magic number); the payload codec
// itself is github.com/fxamacker/cbor/v2 and the checksum is
// golang.org/x/crypto/blake2b.
package codec

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/informatter/olive/internal/bytecode"
	"github.com/informatter/olive/internal/diagnostics"
)

// Magic identifies an Olive compiled unit (.olvc) file.
var Magic = [4]byte{0xCE, 0xDA, 0xFA, 0xBA}

const checksumSize = 32

// wireOp and wireCode mirror bytecode.Op/Code but with Func as a
// pointer to another wireCode, since cbor needs a concrete exported
// shape to marshal recursively (bytecode.Op embeds a typed *Code
// directly, which round-trips fine through cbor's reflection, but
// spelling it out here keeps the wire format decoupled from whatever
// private fields Op gains later).
type wireOp struct {
	Code     bytecode.Opcode
	Str      string
	Int      int64
	Float    float64
	Bool     bool
	Offset   int
	ArgCount int
	Params   []string
	Func     *wireCode
}

type wireCode struct {
	Ops []wireOp
}

func toWire(c *bytecode.Code) *wireCode {
	if c == nil {
		return nil
	}
	w := &wireCode{Ops: make([]wireOp, len(c.Ops))}
	for i, op := range c.Ops {
		w.Ops[i] = wireOp{
			Code: op.Code, Str: op.Str, Int: op.Int, Float: op.Float,
			Bool: op.Bool, Offset: op.Offset, ArgCount: op.ArgCount,
			Params: op.Params, Func: toWire(op.Func),
		}
	}
	return w
}

func fromWire(w *wireCode) *bytecode.Code {
	if w == nil {
		return nil
	}
	c := bytecode.NewCode()
	c.Ops = make([]bytecode.Op, len(w.Ops))
	for i, op := range w.Ops {
		c.Ops[i] = bytecode.Op{
			Code: op.Code, Str: op.Str, Int: op.Int, Float: op.Float,
			Bool: op.Bool, Offset: op.Offset, ArgCount: op.ArgCount,
			Params: op.Params, Func: fromWire(op.Func),
		}
	}
	return c
}

// Encode serializes code into an Olive compiled-unit byte stream:
// magic, then a blake2b-256 checksum of the CBOR payload, then the
// payload itself. The code-position table is intentionally omitted —
// it is a compiler-internal diagnostic aid, not part of the portable
// unit.
func Encode(code *bytecode.Code) ([]byte, error) {
	payload, err := cbor.Marshal(toWire(code))
	if err != nil {
		return nil, fmt.Errorf("encode compiled unit: %w", err)
	}
	sum := blake2b.Sum256(payload)

	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write(sum[:])
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode. It fails with Deserialize on a bad
// magic, truncated input, checksum mismatch, or malformed CBOR. It
// never reports CompileCompiled: callers that must reject a compiled
// unit where source text was expected check IsCompiledUnit themselves.
func Decode(data []byte) (*bytecode.Code, *diagnostics.Diagnostic) {
	if len(data) < 4+checksumSize {
		return nil, diagnostics.New(diagnostics.Deserialize, 0, 0, "truncated compiled unit")
	}
	if !bytes.Equal(data[:4], Magic[:]) {
		return nil, diagnostics.New(diagnostics.Deserialize, 0, 0, "bad magic bytes")
	}
	wantSum := data[4 : 4+checksumSize]
	payload := data[4+checksumSize:]
	gotSum := blake2b.Sum256(payload)
	if !bytes.Equal(wantSum, gotSum[:]) {
		return nil, diagnostics.New(diagnostics.Deserialize, 0, 0, "checksum mismatch: corrupted compiled unit")
	}

	var w wireCode
	if err := cbor.Unmarshal(payload, &w); err != nil {
		return nil, diagnostics.New(diagnostics.Deserialize, 0, 0, "malformed compiled-unit payload: "+err.Error())
	}
	return fromWire(&w), nil
}

// IsCompiledUnit reports whether data begins with the Olive magic
// prefix, used by the CLI front end to reject "compile" on an already
// compiled file (CompileCompiled) before invoking the lexer on binary
// garbage.
func IsCompiledUnit(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], Magic[:])
}
