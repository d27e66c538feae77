package schema

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ErrShapeMismatch is returned when a value does not have the shape the
// caller (or a recipe being encoded) expects.
var ErrShapeMismatch = errors.New("schema: value shape mismatch")

// Value is a decoded SCALE value. The concrete types are Uint, Int, Big,
// Bool, Bytes, Optional, List, Tuple, Record and Enum.
type Value interface {
	isValue()
}

// Uint holds u8 through u64.
type Uint uint64

// Int holds i8 through i64.
type Int int64

// Big holds u128, u256 and compact integers.
type Big struct {
	uint256.Int
}

// Bool is a decoded boolean.
type Bool bool

// Bytes holds fixed-size byte arrays and Vec<u8>.
type Bytes []byte

// Optional is a decoded Option. A nil Some means absent.
type Optional struct {
	Some Value
}

// List is a decoded sequence of non-byte elements.
type List []Value

// Tuple is a decoded positional tuple.
type Tuple []Value

// NamedValue is one field of a Record.
type NamedValue struct {
	Name  string
	Value Value
}

// Record is a decoded struct, fields in declaration order.
type Record []NamedValue

// Enum is a decoded variant. Value is nil for unit cases.
type Enum struct {
	Index uint8
	Name  string
	Value Value
}

func (Uint) isValue()     {}
func (Int) isValue()      {}
func (Big) isValue()      {}
func (Bool) isValue()     {}
func (Bytes) isValue()    {}
func (Optional) isValue() {}
func (List) isValue()     {}
func (Tuple) isValue()    {}
func (Record) isValue()   {}
func (Enum) isValue()     {}

// NewBig wraps a uint64 as a Big.
func NewBig(v uint64) Big {
	return Big{*uint256.NewInt(v)}
}

// Present reports whether the option holds a value.
func (o Optional) Present() bool {
	return o.Some != nil
}

// Get returns the field with the given name.
func (r Record) Get(name string) (Value, error) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, nil
		}
	}
	return nil, fmt.Errorf("%w: no field %q", ErrShapeMismatch, name)
}

// At returns the i-th element.
func (t Tuple) At(i int) (Value, error) {
	if i < 0 || i >= len(t) {
		return nil, fmt.Errorf("%w: tuple of %d has no element %d", ErrShapeMismatch, len(t), i)
	}
	return t[i], nil
}

func mismatch(want string, v Value) error {
	return fmt.Errorf("%w: want %s, got %T", ErrShapeMismatch, want, v)
}

// AsUint returns an unsigned value of at most 64 bits.
func AsUint(v Value) (uint64, error) {
	switch x := v.(type) {
	case Uint:
		return uint64(x), nil
	case Big:
		if !x.IsUint64() {
			return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrShapeMismatch, x.Dec())
		}
		return x.Uint64(), nil
	default:
		return 0, mismatch("unsigned integer", v)
	}
}

// AsUint32 returns an unsigned value that fits in 32 bits.
func AsUint32(v Value) (uint32, error) {
	u, err := AsUint(v)
	if err != nil {
		return 0, err
	}
	if u > 1<<32-1 {
		return 0, fmt.Errorf("%w: %d exceeds 32 bits", ErrShapeMismatch, u)
	}
	return uint32(u), nil
}

// AsBig returns any unsigned integer value as a 256-bit integer.
func AsBig(v Value) (*uint256.Int, error) {
	switch x := v.(type) {
	case Big:
		out := x.Int
		return &out, nil
	case Uint:
		return uint256.NewInt(uint64(x)), nil
	default:
		return nil, mismatch("unsigned integer", v)
	}
}

func AsBytes(v Value) ([]byte, error) {
	b, ok := v.(Bytes)
	if !ok {
		return nil, mismatch("bytes", v)
	}
	return b, nil
}

func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, mismatch("bool", v)
	}
	return bool(b), nil
}

func AsOptional(v Value) (Optional, error) {
	o, ok := v.(Optional)
	if !ok {
		return Optional{}, mismatch("option", v)
	}
	return o, nil
}

func AsTuple(v Value) (Tuple, error) {
	t, ok := v.(Tuple)
	if !ok {
		return nil, mismatch("tuple", v)
	}
	return t, nil
}

func AsRecord(v Value) (Record, error) {
	r, ok := v.(Record)
	if !ok {
		return nil, mismatch("struct", v)
	}
	return r, nil
}

func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, mismatch("sequence", v)
	}
	return l, nil
}

func AsEnum(v Value) (Enum, error) {
	e, ok := v.(Enum)
	if !ok {
		return Enum{}, mismatch("variant", v)
	}
	return e, nil
}

// Plain converts v into plain Go values suitable for JSON encoding: records
// become maps, big integers decimal strings and bytes 0x-hex.
func Plain(v Value) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case Uint:
		return uint64(x)
	case Int:
		return int64(x)
	case Big:
		return x.Dec()
	case Bool:
		return bool(x)
	case Bytes:
		return hexutil.Bytes(x)
	case Optional:
		return Plain(x.Some)
	case List:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case Tuple:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case Record:
		out := make(map[string]interface{}, len(x))
		for _, f := range x {
			out[f.Name] = Plain(f.Value)
		}
		return out
	case Enum:
		if x.Value == nil {
			return x.Name
		}
		return map[string]interface{}{x.Name: Plain(x.Value)}
	default:
		return fmt.Sprintf("%v", v)
	}
}
