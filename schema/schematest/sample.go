// Package schematest builds deterministic sample values for recipes.
package schematest

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/basilisk-nexus/eventnexus/schema"
)

// Sample returns a value of shape t. Different seeds give different values;
// options are present for odd seeds, and variants pick a case by seed.
func Sample(t *schema.Type, seed uint8) schema.Value {
	switch t.Kind {
	case schema.KindU8:
		return schema.Uint(seed)
	case schema.KindU16:
		return schema.Uint(uint64(seed) << 8)
	case schema.KindU32:
		return schema.Uint(uint64(seed)<<24 | 7)
	case schema.KindU64:
		return schema.Uint(uint64(seed)<<56 | 11)
	case schema.KindI8, schema.KindI16, schema.KindI32, schema.KindI64:
		return schema.Int(-int64(seed))
	case schema.KindU128:
		v := new(uint256.Int).Lsh(uint256.NewInt(uint64(seed)+1), 100)
		return schema.Big{Int: *v}
	case schema.KindU256:
		v := new(uint256.Int).Lsh(uint256.NewInt(uint64(seed)+1), 200)
		return schema.Big{Int: *v}
	case schema.KindCompact:
		return schema.Big{Int: *uint256.NewInt(uint64(seed) * 1_000_003)}
	case schema.KindBool:
		return schema.Bool(seed%2 == 1)
	case schema.KindArray:
		b := make(schema.Bytes, t.Len)
		for i := range b {
			b[i] = seed + byte(i)
		}
		return b
	case schema.KindOption:
		if seed%2 == 0 {
			return schema.Optional{}
		}
		return schema.Optional{Some: Sample(t.Elem, seed+1)}
	case schema.KindSequence:
		n := int(seed%3) + 1
		if t.Elem.Kind == schema.KindU8 {
			b := make(schema.Bytes, n)
			for i := range b {
				b[i] = 'a' + byte(i)
			}
			return b
		}
		l := make(schema.List, n)
		for i := range l {
			l[i] = Sample(t.Elem, seed+uint8(i))
		}
		return l
	case schema.KindTuple:
		out := make(schema.Tuple, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = Sample(f.Type, seed+uint8(i))
		}
		return out
	case schema.KindStruct:
		out := make(schema.Record, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = schema.NamedValue{Name: f.Name, Value: Sample(f.Type, seed+uint8(i))}
		}
		return out
	case schema.KindVariant:
		c := t.Cases[int(seed)%len(t.Cases)]
		e := schema.Enum{Index: c.Index, Name: c.Name}
		if c.Payload != nil {
			e.Value = Sample(c.Payload, seed)
		}
		return e
	default:
		panic(fmt.Sprintf("schematest: no sample for kind %s", t.Kind))
	}
}
