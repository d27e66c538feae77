package normalizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/schema"
)

// fields reads event arguments either by position (tuple-shaped events of
// older runtimes) or by name (struct-shaped events). The first failure is
// kept and every later read becomes a no-op returning a zero value.
type fields struct {
	addr   common.AddressCodec
	named  bool
	tuple  schema.Tuple
	record schema.Record
	err    *error
}

func newFields(addr common.AddressCodec, v schema.Value) *fields {
	var err error
	f := &fields{addr: addr, err: &err}
	f.bind(v)
	return f
}

func (f *fields) bind(v schema.Value) {
	switch x := v.(type) {
	case schema.Tuple:
		f.tuple = x
	case schema.Record:
		f.named = true
		f.record = x
	default:
		f.fail("$", fmt.Errorf("%w: want tuple or struct, got %T", schema.ErrShapeMismatch, v))
	}
}

func (f *fields) Err() error {
	return *f.err
}

func (f *fields) fail(name string, err error) {
	if *f.err == nil {
		*f.err = fmt.Errorf("field %s: %w", name, err)
	}
}

func (f *fields) value(i int, name string) schema.Value {
	if *f.err != nil {
		return nil
	}
	var (
		v   schema.Value
		err error
	)
	if f.named {
		v, err = f.record.Get(name)
	} else {
		v, err = f.tuple.At(i)
	}
	if err != nil {
		f.fail(name, err)
		return nil
	}
	return v
}

// nested reads a tuple or struct argument. Failures are reported through the
// parent.
func (f *fields) nested(i int, name string) *fields {
	child := &fields{addr: f.addr, err: f.err}
	v := f.value(i, name)
	if *f.err == nil {
		child.bind(v)
	}
	return child
}

func (f *fields) u32(i int, name string) uint32 {
	v := f.value(i, name)
	if v == nil {
		return 0
	}
	u, err := schema.AsUint32(v)
	if err != nil {
		f.fail(name, err)
	}
	return u
}

func (f *fields) optU32(i int, name string) *uint32 {
	v := f.value(i, name)
	if v == nil {
		return nil
	}
	o, err := schema.AsOptional(v)
	if err != nil {
		f.fail(name, err)
		return nil
	}
	if !o.Present() {
		return nil
	}
	u, err := schema.AsUint32(o.Some)
	if err != nil {
		f.fail(name, err)
		return nil
	}
	return &u
}

func (f *fields) balance(i int, name string) common.Balance {
	v := f.value(i, name)
	if v == nil {
		return common.Balance{}
	}
	b, err := schema.AsBig(v)
	if err != nil {
		f.fail(name, err)
		return common.Balance{}
	}
	return common.Balance{Int: *b}
}

func (f *fields) optBalance(i int, name string) *common.Balance {
	v := f.value(i, name)
	if v == nil {
		return nil
	}
	o, err := schema.AsOptional(v)
	if err != nil {
		f.fail(name, err)
		return nil
	}
	if !o.Present() {
		return nil
	}
	b, err := schema.AsBig(o.Some)
	if err != nil {
		f.fail(name, err)
		return nil
	}
	return &common.Balance{Int: *b}
}

func (f *fields) accountID(i int, name string) common.AccountID {
	var id common.AccountID
	v := f.value(i, name)
	if v == nil {
		return id
	}
	b, err := schema.AsBytes(v)
	if err != nil {
		f.fail(name, err)
		return id
	}
	if len(b) != len(id) {
		f.fail(name, fmt.Errorf("%w: account of %d bytes", schema.ErrShapeMismatch, len(b)))
		return id
	}
	copy(id[:], b)
	return id
}

// account renders an account argument in the configured address format.
func (f *fields) account(i int, name string) string {
	id := f.accountID(i, name)
	if *f.err != nil {
		return ""
	}
	s, err := f.addr.Stringify(id[:])
	if err != nil {
		f.fail(name, err)
	}
	return s
}

func (f *fields) text(i int, name string) string {
	v := f.value(i, name)
	if v == nil {
		return ""
	}
	b, err := schema.AsBytes(v)
	if err != nil {
		f.fail(name, err)
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return hexutil.Encode(b)
}

func (f *fields) enum(i int, name string) schema.Enum {
	v := f.value(i, name)
	if v == nil {
		return schema.Enum{}
	}
	e, err := schema.AsEnum(v)
	if err != nil {
		f.fail(name, err)
	}
	return e
}
