package schema

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/codec/scale"
)

var accountID = Named("AccountId32", Array(32))

func sampleType() *Type {
	return Struct(
		F("who", accountID),
		F("flags", TupleOf(U8(), U16(), Boolean())),
		F("limit", Option(U128())),
		F("deadline", Option(U32())),
		F("name", Sequence(U8())),
		F("deltas", Sequence(I32())),
		F("kind", Variant(C(0, "Token", nil), C(1, "PoolShare", TupleOf(U32(), U32())))),
		F("perPeriod", CompactCanonical()),
	)
}

func sampleValue() Value {
	who := make(Bytes, 32)
	for i := range who {
		who[i] = byte(i)
	}
	return Record{
		{Name: "who", Value: who},
		{Name: "flags", Value: Tuple{Uint(7), Uint(65535), Bool(true)}},
		{Name: "limit", Value: Optional{Some: NewBig(1_000_000_000_000)}},
		{Name: "deadline", Value: Optional{}},
		{Name: "name", Value: Bytes("HDX")},
		{Name: "deltas", Value: List{Int(-1), Int(2)}},
		{Name: "kind", Value: Enum{Index: 1, Name: "PoolShare", Value: Tuple{Uint(0), Uint(5)}}},
		{Name: "perPeriod", Value: NewBig(100_000_000_000_000)},
	}
}

func TestRoundTrip(t *testing.T) {
	typ := sampleType()
	require.NoError(t, typ.Validate())

	payload, err := EncodePayload(typ, sampleValue())
	require.NoError(t, err)

	decoded, err := DecodePayload(typ, payload)
	require.NoError(t, err)
	require.Equal(t, sampleValue(), decoded)
}

func TestTruncatedAtEveryLength(t *testing.T) {
	typ := sampleType()
	payload, err := EncodePayload(typ, sampleValue())
	require.NoError(t, err)

	for n := 0; n < len(payload); n++ {
		v, err := DecodePayload(typ, payload[:n])
		require.ErrorIs(t, err, scale.ErrTruncated, "prefix of %d bytes", n)
		require.Nil(t, v)
	}
}

func TestTrailingBytes(t *testing.T) {
	typ := TupleOf(U32(), Boolean())
	payload, err := EncodePayload(typ, Tuple{Uint(9), Bool(false)})
	require.NoError(t, err)

	v, err := DecodePayload(typ, append(payload, 0xaa, 0xbb))
	require.ErrorIs(t, err, ErrTrailingBytes)
	var tb *TrailingBytesError
	require.True(t, errors.As(err, &tb))
	require.Equal(t, 5, tb.Consumed)
	require.Equal(t, 2, tb.Remaining)
	// The value is still handed back so callers can treat this as advisory.
	require.Equal(t, Tuple{Uint(9), Bool(false)}, v)
}

func TestUnknownVariant(t *testing.T) {
	typ := Variant(C(0, "Linear", nil))
	_, err := DecodePayload(typ, []byte{1})
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestSequenceLengthGuard(t *testing.T) {
	// Claims 2^20 u32 elements with only four bytes behind the prefix.
	payload, err := hex.DecodeString("0200400001020304")
	require.NoError(t, err)
	_, err = DecodePayload(Sequence(U32()), payload)
	require.ErrorIs(t, err, scale.ErrTruncated)
}

func TestSequenceOfZeroWidthElements(t *testing.T) {
	// Claims 2^22 empty tuples with nothing behind the prefix.
	payload, err := hex.DecodeString("02000001")
	require.NoError(t, err)
	_, err = DecodePayload(Sequence(TupleOf()), payload)
	require.ErrorIs(t, err, scale.ErrTruncated)

	_, err = DecodePayload(Sequence(Struct()), payload)
	require.ErrorIs(t, err, scale.ErrTruncated)

	// One empty tuple per remaining byte is still within bounds.
	v, err := DecodePayload(TupleOf(Sequence(TupleOf()), U16()), []byte{0x08, 0x01, 0x02})
	require.NoError(t, err)
	require.Len(t, v.(Tuple)[0].(List), 2)

	require.ErrorContains(t, Sequence(TupleOf()).Validate(), "zero-width")
	require.NoError(t, Option(TupleOf()).Validate())
}

func TestErrorPath(t *testing.T) {
	typ := Struct(F("pool", accountID), F("data", Struct(F("owner", accountID))))
	_, err := DecodePayload(typ, make([]byte, 40))
	require.ErrorIs(t, err, scale.ErrTruncated)
	require.Contains(t, err.Error(), "$.data.owner")
}

func TestEncodeShapeMismatch(t *testing.T) {
	_, err := EncodePayload(TupleOf(U32()), Tuple{Bool(true)})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = EncodePayload(Array(32), Bytes{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = EncodePayload(U8(), Uint(256))
	require.ErrorIs(t, err, scale.ErrOverflow)
}

func TestString(t *testing.T) {
	typ := TupleOf(accountID, Struct(F("start", Option(U32())), F("curve", Variant(C(0, "Linear", nil)))))
	require.Equal(t, "(AccountId32,{start:Option<u32>,curve:enum{Linear}})", typ.String())
}

func TestValidate(t *testing.T) {
	require.Error(t, Struct(F("a", U8()), F("a", U8())).Validate())
	require.Error(t, Struct(Field{Type: U8()}).Validate())
	require.Error(t, Variant(C(0, "A", nil), C(0, "B", nil)).Validate())
	require.Error(t, Option(nil).Validate())
	require.Error(t, Array(0).Validate())
}

func TestAccessors(t *testing.T) {
	rec := sampleValue().(Record)

	flags, err := rec.Get("flags")
	require.NoError(t, err)
	tup, err := AsTuple(flags)
	require.NoError(t, err)
	first, err := tup.At(1)
	require.NoError(t, err)
	u, err := AsUint32(first)
	require.NoError(t, err)
	require.Equal(t, uint32(65535), u)

	_, err = tup.At(3)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = rec.Get("missing")
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = AsBytes(first)
	require.ErrorIs(t, err, ErrShapeMismatch)

	limit, err := rec.Get("limit")
	require.NoError(t, err)
	opt, err := AsOptional(limit)
	require.NoError(t, err)
	big, err := AsBig(opt.Some)
	require.NoError(t, err)
	require.Equal(t, "1000000000000", big.Dec())
}

func TestPlain(t *testing.T) {
	plain := Plain(Record{
		{Name: "amount", Value: NewBig(5)},
		{Name: "curve", Value: Enum{Name: "Linear"}},
		{Name: "id", Value: Bytes{0xab}},
		{Name: "end", Value: Optional{}},
	}).(map[string]interface{})
	require.Equal(t, "5", plain["amount"])
	require.Equal(t, "Linear", plain["curve"])
	require.Nil(t, plain["end"])
	b, err := plain["id"].(interface{ MarshalText() ([]byte, error) }).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "0xab", string(b))
}
