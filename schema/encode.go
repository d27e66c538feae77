package schema

import (
	"fmt"

	"github.com/basilisk-nexus/eventnexus/codec/scale"
)

// EncodePayload encodes v according to t. It is the inverse of DecodePayload.
func EncodePayload(t *Type, v Value) ([]byte, error) {
	var w scale.Writer
	if err := Encode(t, v, &w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Encode appends the encoding of v, which must have the shape described by t.
func Encode(t *Type, v Value, w *scale.Writer) error {
	return encode(t, v, w, "$")
}

func encodeMismatch(path string, t *Type, v Value) error {
	return fmt.Errorf("%s: %w: cannot encode %T as %s", path, ErrShapeMismatch, v, t.Kind)
}

func encode(t *Type, v Value, w *scale.Writer, path string) error {
	switch t.Kind {
	case KindU8, KindU16, KindU32, KindU64:
		x, ok := v.(Uint)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		switch t.Kind {
		case KindU8:
			if x > 1<<8-1 {
				return fmt.Errorf("%s: %w: %d overflows u8", path, scale.ErrOverflow, x)
			}
			w.PutU8(uint8(x))
		case KindU16:
			if x > 1<<16-1 {
				return fmt.Errorf("%s: %w: %d overflows u16", path, scale.ErrOverflow, x)
			}
			w.PutU16(uint16(x))
		case KindU32:
			if x > 1<<32-1 {
				return fmt.Errorf("%s: %w: %d overflows u32", path, scale.ErrOverflow, x)
			}
			w.PutU32(uint32(x))
		default:
			w.PutU64(uint64(x))
		}
	case KindI8, KindI16, KindI32, KindI64:
		x, ok := v.(Int)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		switch t.Kind {
		case KindI8:
			w.PutU8(uint8(int8(x)))
		case KindI16:
			w.PutU16(uint16(int16(x)))
		case KindI32:
			w.PutU32(uint32(int32(x)))
		default:
			w.PutU64(uint64(x))
		}
	case KindU128, KindU256:
		x, ok := v.(Big)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		var err error
		if t.Kind == KindU128 {
			err = w.PutU128(&x.Int)
		} else {
			err = w.PutU256(&x.Int)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	case KindCompact:
		x, ok := v.(Big)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		w.PutCompact(&x.Int)
	case KindBool:
		x, ok := v.(Bool)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		w.PutBool(bool(x))
	case KindArray:
		x, ok := v.(Bytes)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		if len(x) != t.Len {
			return fmt.Errorf("%s: %w: want %d bytes, got %d", path, ErrShapeMismatch, t.Len, len(x))
		}
		w.PutFixed(x)
	case KindOption:
		x, ok := v.(Optional)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		w.PutOptionTag(x.Present())
		if x.Present() {
			return encode(t.Elem, x.Some, w, path+"?")
		}
	case KindSequence:
		if t.Elem.Kind == KindU8 {
			x, ok := v.(Bytes)
			if !ok {
				return encodeMismatch(path, t, v)
			}
			w.PutCompactUint64(uint64(len(x)))
			w.PutFixed(x)
			return nil
		}
		x, ok := v.(List)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		w.PutCompactUint64(uint64(len(x)))
		for i, e := range x {
			if err := encode(t.Elem, e, w, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case KindTuple:
		x, ok := v.(Tuple)
		if !ok || len(x) != len(t.Fields) {
			return encodeMismatch(path, t, v)
		}
		for i, f := range t.Fields {
			if err := encode(f.Type, x[i], w, fmt.Sprintf("%s.%d", path, i)); err != nil {
				return err
			}
		}
	case KindStruct:
		x, ok := v.(Record)
		if !ok || len(x) != len(t.Fields) {
			return encodeMismatch(path, t, v)
		}
		for i, f := range t.Fields {
			if x[i].Name != f.Name {
				return fmt.Errorf("%s: %w: field %d is %q, want %q", path, ErrShapeMismatch, i, x[i].Name, f.Name)
			}
			if err := encode(f.Type, x[i].Value, w, path+"."+f.Name); err != nil {
				return err
			}
		}
	case KindVariant:
		x, ok := v.(Enum)
		if !ok {
			return encodeMismatch(path, t, v)
		}
		c, found := t.caseByIndex(x.Index)
		if !found {
			return fmt.Errorf("%s: %w: %d", path, ErrUnknownVariant, x.Index)
		}
		w.PutU8(c.Index)
		if c.Payload == nil {
			if x.Value != nil {
				return fmt.Errorf("%s: %w: unit case %s carries a value", path, ErrShapeMismatch, c.Name)
			}
			return nil
		}
		return encode(c.Payload, x.Value, w, path+"::"+c.Name)
	default:
		return fmt.Errorf("%s: schema: cannot encode kind %s", path, t.Kind)
	}
	return nil
}
