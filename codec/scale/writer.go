package scale

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Writer accumulates a SCALE encoding. It is the inverse of Reader and exists
// so fixtures and round-trip checks can produce payloads.
type Writer struct {
	buf []byte
}

// Bytes returns the encoding written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutU128 appends v as 16 little-endian bytes.
func (w *Writer) PutU128(v *uint256.Int) error {
	return w.putUintN(v, 16)
}

// PutU256 appends v as 32 little-endian bytes.
func (w *Writer) PutU256(v *uint256.Int) error {
	return w.putUintN(v, 32)
}

func (w *Writer) putUintN(v *uint256.Int, n int) error {
	if v.BitLen() > n*8 {
		return fmt.Errorf("%w: %s does not fit in %d bytes", ErrOverflow, v.Dec(), n)
	}
	w.buf = append(w.buf, toLittleEndian(v, n)...)
	return nil
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// PutOptionTag appends the discriminant of an optional value.
func (w *Writer) PutOptionTag(present bool) {
	w.PutBool(present)
}

// PutFixed appends b verbatim.
func (w *Writer) PutFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// toLittleEndian returns the low n bytes of v, least significant first.
func toLittleEndian(v *uint256.Int, n int) []byte {
	be := v.Bytes32()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = be[31-i]
	}
	return out
}
