package schema

import (
	"errors"
	"fmt"
	"math"

	"github.com/basilisk-nexus/eventnexus/codec/scale"
)

var (
	// ErrTrailingBytes is returned when a payload is longer than its recipe.
	ErrTrailingBytes = errors.New("schema: trailing bytes after payload")
	// ErrUnknownVariant is returned for a variant discriminant the recipe does not list.
	ErrUnknownVariant = errors.New("schema: unknown variant discriminant")
)

// TrailingBytesError reports how much of a payload was left unconsumed.
type TrailingBytesError struct {
	Consumed  int
	Remaining int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("schema: %d trailing bytes after %d decoded", e.Remaining, e.Consumed)
}

// Is makes errors.Is(err, ErrTrailingBytes) match.
func (e *TrailingBytesError) Is(target error) bool {
	return target == ErrTrailingBytes
}

// DecodePayload decodes a complete payload according to t.
//
// If bytes remain after the recipe is fully decoded, the decoded value is
// returned together with a *TrailingBytesError so the caller may choose to
// treat the condition as advisory. Any other error comes with a nil value.
func DecodePayload(t *Type, payload []byte) (Value, error) {
	r := scale.NewReader(payload)
	v, err := Decode(t, r)
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return v, &TrailingBytesError{Consumed: r.Offset(), Remaining: r.Remaining()}
	}
	return v, nil
}

// Decode reads one value of type t from r, advancing it by exactly the bytes consumed.
func Decode(t *Type, r *scale.Reader) (Value, error) {
	return decode(t, r, "$")
}

func wrap(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}

func decode(t *Type, r *scale.Reader, path string) (Value, error) {
	switch t.Kind {
	case KindU8:
		v, err := r.U8()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Uint(v), nil
	case KindU16:
		v, err := r.U16()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Uint(v), nil
	case KindU32:
		v, err := r.U32()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Uint(v), nil
	case KindU64:
		v, err := r.U64()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Uint(v), nil
	case KindU128:
		v, err := r.U128()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Big{*v}, nil
	case KindU256:
		v, err := r.U256()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Big{*v}, nil
	case KindI8:
		v, err := r.I8()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Int(v), nil
	case KindI16:
		v, err := r.I16()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Int(v), nil
	case KindI32:
		v, err := r.I32()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Int(v), nil
	case KindI64:
		v, err := r.I64()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Int(v), nil
	case KindBool:
		v, err := r.Bool()
		if err != nil {
			return nil, wrap(path, err)
		}
		return Bool(v), nil
	case KindCompact:
		v, err := r.Compact(t.Canonical)
		if err != nil {
			return nil, wrap(path, err)
		}
		return Big{*v}, nil
	case KindArray:
		b, err := r.Fixed(t.Len)
		if err != nil {
			return nil, wrap(path, err)
		}
		return Bytes(b), nil
	case KindOption:
		present, err := r.OptionTag()
		if err != nil {
			return nil, wrap(path, err)
		}
		if !present {
			return Optional{}, nil
		}
		inner, err := decode(t.Elem, r, path+"?")
		if err != nil {
			return nil, err
		}
		return Optional{Some: inner}, nil
	case KindSequence:
		return decodeSequence(t, r, path)
	case KindTuple:
		out := make(Tuple, len(t.Fields))
		for i, f := range t.Fields {
			v, err := decode(f.Type, r, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindStruct:
		out := make(Record, len(t.Fields))
		for i, f := range t.Fields {
			v, err := decode(f.Type, r, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			out[i] = NamedValue{Name: f.Name, Value: v}
		}
		return out, nil
	case KindVariant:
		idx, err := r.Byte()
		if err != nil {
			return nil, wrap(path, err)
		}
		c, ok := t.caseByIndex(idx)
		if !ok {
			return nil, wrap(path, fmt.Errorf("%w: %d", ErrUnknownVariant, idx))
		}
		if c.Payload == nil {
			return Enum{Index: c.Index, Name: c.Name}, nil
		}
		inner, err := decode(c.Payload, r, path+"::"+c.Name)
		if err != nil {
			return nil, err
		}
		return Enum{Index: c.Index, Name: c.Name, Value: inner}, nil
	default:
		return nil, wrap(path, fmt.Errorf("schema: cannot decode kind %s", t.Kind))
	}
}

func decodeSequence(t *Type, r *scale.Reader, path string) (Value, error) {
	start := r.Offset()
	n, err := r.CompactUint64(false)
	if err != nil {
		return nil, wrap(path, err)
	}
	// Reject lengths that cannot possibly fit before allocating anything.
	// Zero-width elements are charged one byte each so the length stays
	// bounded by the payload.
	minSize := uint64(max(t.Elem.MinSize(), 1))
	have := uint64(r.Remaining())
	if n > have/minSize {
		need := math.MaxInt
		if n <= uint64(math.MaxInt)/minSize {
			need = int(n * minSize)
		}
		return nil, wrap(path, &scale.TruncatedError{Offset: start, Need: need, Have: int(have)})
	}
	if t.Elem.Kind == KindU8 {
		b, err := r.Fixed(int(n))
		if err != nil {
			return nil, wrap(path, err)
		}
		return Bytes(b), nil
	}
	out := make(List, 0, min(n, uint64(r.Remaining())))
	for i := uint64(0); i < n; i++ {
		v, err := decode(t.Elem, r, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
