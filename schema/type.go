// Package schema describes SCALE wire layouts declaratively and decodes
// payloads according to them.
//
// A *Type is a decode recipe. It carries no runtime state and may be shared
// freely between goroutines once built.
package schema

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a Type.
type Kind uint8

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindI8
	KindI16
	KindI32
	KindI64
	KindBool
	KindCompact
	KindArray
	KindOption
	KindSequence
	KindTuple
	KindStruct
	KindVariant
)

var kindNames = [...]string{
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindU128:     "u128",
	KindU256:     "u256",
	KindI8:       "i8",
	KindI16:      "i16",
	KindI32:      "i32",
	KindI64:      "i64",
	KindBool:     "bool",
	KindCompact:  "compact",
	KindArray:    "array",
	KindOption:   "option",
	KindSequence: "sequence",
	KindTuple:    "tuple",
	KindStruct:   "struct",
	KindVariant:  "variant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Type is one node of a decode recipe.
type Type struct {
	Kind Kind
	// Name is an optional alias such as "AccountId32". It does not affect decoding.
	Name string

	Len       int     // KindArray: number of bytes.
	Canonical bool    // KindCompact: reject non-minimal encodings.
	Elem      *Type   // KindOption, KindSequence.
	Fields    []Field // KindTuple (names empty), KindStruct.
	Cases     []Case  // KindVariant.
}

// Field is a positional member of a tuple or struct.
type Field struct {
	Name string
	Type *Type
}

// Case is one arm of a variant. A nil Payload means a unit case.
type Case struct {
	Index   uint8
	Name    string
	Payload *Type
}

func prim(k Kind) *Type { return &Type{Kind: k} }

func U8() *Type   { return prim(KindU8) }
func U16() *Type  { return prim(KindU16) }
func U32() *Type  { return prim(KindU32) }
func U64() *Type  { return prim(KindU64) }
func U128() *Type { return prim(KindU128) }
func U256() *Type { return prim(KindU256) }
func I8() *Type   { return prim(KindI8) }
func I16() *Type  { return prim(KindI16) }
func I32() *Type  { return prim(KindI32) }
func I64() *Type  { return prim(KindI64) }

// Boolean is a single 0/1 byte.
func Boolean() *Type { return prim(KindBool) }

// Compact is a compact integer that tolerates non-minimal encodings.
func Compact() *Type { return &Type{Kind: KindCompact} }

// CompactCanonical is a compact integer that must be minimally encoded.
func CompactCanonical() *Type { return &Type{Kind: KindCompact, Canonical: true} }

// Array is a fixed-size byte array of n bytes.
func Array(n int) *Type { return &Type{Kind: KindArray, Len: n} }

// Option is an optional inner value.
func Option(inner *Type) *Type { return &Type{Kind: KindOption, Elem: inner} }

// Sequence is a compact-length-prefixed list of elem. A sequence of u8
// decodes into Bytes.
func Sequence(elem *Type) *Type { return &Type{Kind: KindSequence, Elem: elem} }

// TupleOf is a positional list of unnamed fields.
func TupleOf(elems ...*Type) *Type {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Type: e}
	}
	return &Type{Kind: KindTuple, Fields: fields}
}

// Struct is a positional list of named fields.
func Struct(fields ...Field) *Type { return &Type{Kind: KindStruct, Fields: fields} }

// F builds a struct field.
func F(name string, t *Type) Field { return Field{Name: name, Type: t} }

// Variant is a tagged union selected by a one-byte discriminant.
func Variant(cases ...Case) *Type { return &Type{Kind: KindVariant, Cases: cases} }

// C builds a variant case; payload may be nil.
func C(index uint8, name string, payload *Type) Case {
	return Case{Index: index, Name: name, Payload: payload}
}

// Named returns a copy of t carrying an alias.
func Named(name string, t *Type) *Type {
	cp := *t
	cp.Name = name
	return &cp
}

// caseByIndex finds the arm selected by a discriminant.
func (t *Type) caseByIndex(idx uint8) (*Case, bool) {
	for i := range t.Cases {
		if t.Cases[i].Index == idx {
			return &t.Cases[i], true
		}
	}
	return nil, false
}

// MinSize is a lower bound on the encoded size of a value of type t.
func (t *Type) MinSize() int {
	switch t.Kind {
	case KindU8, KindI8, KindBool, KindCompact, KindOption, KindSequence, KindVariant:
		return 1
	case KindU16, KindI16:
		return 2
	case KindU32, KindI32:
		return 4
	case KindU64, KindI64:
		return 8
	case KindU128:
		return 16
	case KindU256:
		return 32
	case KindArray:
		return t.Len
	case KindTuple, KindStruct:
		n := 0
		for _, f := range t.Fields {
			n += f.Type.MinSize()
		}
		return n
	default:
		return 0
	}
}

// String renders the structural signature of t, e.g.
// "{pool:AccountId32,data:(u32,Option<u32>)}". Aliased nodes render as their alias.
func (t *Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Type) write(sb *strings.Builder) {
	if t.Name != "" {
		sb.WriteString(t.Name)
		return
	}
	switch t.Kind {
	case KindCompact:
		sb.WriteString("Compact")
	case KindArray:
		fmt.Fprintf(sb, "[u8;%d]", t.Len)
	case KindOption:
		sb.WriteString("Option<")
		t.Elem.write(sb)
		sb.WriteString(">")
	case KindSequence:
		sb.WriteString("Vec<")
		t.Elem.write(sb)
		sb.WriteString(">")
	case KindTuple:
		sb.WriteString("(")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			f.Type.write(sb)
		}
		sb.WriteString(")")
	case KindStruct:
		sb.WriteString("{")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(f.Name)
			sb.WriteString(":")
			f.Type.write(sb)
		}
		sb.WriteString("}")
	case KindVariant:
		sb.WriteString("enum{")
		for i, c := range t.Cases {
			if i > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(c.Name)
			if c.Payload != nil {
				c.Payload.write(sb)
			}
		}
		sb.WriteString("}")
	default:
		sb.WriteString(t.Kind.String())
	}
}

// Validate checks that the recipe is well formed: composite nodes have their
// children, struct fields are named and unique, variant discriminants are unique.
func (t *Type) Validate() error {
	return t.validate("$")
}

func (t *Type) validate(path string) error {
	if t == nil {
		return fmt.Errorf("%s: nil type", path)
	}
	switch t.Kind {
	case KindArray:
		if t.Len <= 0 {
			return fmt.Errorf("%s: array length must be positive, got %d", path, t.Len)
		}
	case KindOption, KindSequence:
		if t.Elem == nil {
			return fmt.Errorf("%s: %s without element type", path, t.Kind)
		}
		if err := t.Elem.validate(path + "[]"); err != nil {
			return err
		}
		if t.Kind == KindSequence && t.Elem.MinSize() == 0 {
			return fmt.Errorf("%s: sequence of zero-width elements", path)
		}
	case KindTuple:
		for i, f := range t.Fields {
			if err := f.Type.validate(fmt.Sprintf("%s.%d", path, i)); err != nil {
				return err
			}
		}
	case KindStruct:
		seen := map[string]struct{}{}
		for _, f := range t.Fields {
			if f.Name == "" {
				return fmt.Errorf("%s: unnamed struct field", path)
			}
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("%s: duplicate struct field %q", path, f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := f.Type.validate(path + "." + f.Name); err != nil {
				return err
			}
		}
	case KindVariant:
		if len(t.Cases) == 0 {
			return fmt.Errorf("%s: variant without cases", path)
		}
		seen := map[uint8]struct{}{}
		for _, c := range t.Cases {
			if _, dup := seen[c.Index]; dup {
				return fmt.Errorf("%s: duplicate variant index %d", path, c.Index)
			}
			seen[c.Index] = struct{}{}
			if c.Payload != nil {
				if err := c.Payload.validate(path + "::" + c.Name); err != nil {
					return err
				}
			}
		}
	default:
		if t.Kind > KindVariant {
			return fmt.Errorf("%s: unknown kind %d", path, t.Kind)
		}
	}
	return nil
}
