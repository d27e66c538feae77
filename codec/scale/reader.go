// Package scale implements the primitive operations of the SCALE binary codec
// used by Substrate runtimes: little-endian fixed-width integers, compact
// integers, booleans, option tags and fixed-size byte arrays.
//
// The Reader never reads past its input. Every failed read leaves the cursor
// where it was before the read.
package scale

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Reader is a cursor over a SCALE-encoded byte slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining is the number of bytes not yet consumed.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, &TruncatedError{Offset: r.off, Need: n, Have: r.Remaining()}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U8() (uint8, error) {
	return r.Byte()
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// U128 reads a 16-byte little-endian unsigned integer.
func (r *Reader) U128() (*uint256.Int, error) {
	return r.uintN(16)
}

// U256 reads a 32-byte little-endian unsigned integer.
func (r *Reader) U256() (*uint256.Int, error) {
	return r.uintN(32)
}

func (r *Reader) uintN(n int) (*uint256.Int, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return fromLittleEndian(b), nil
}

// Bool reads a boolean. Only 0x00 and 0x01 are accepted.
func (r *Reader) Bool() (bool, error) {
	b, err := r.peekByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		r.off++
		return false, nil
	case 1:
		r.off++
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidBool, b, r.off)
	}
}

// OptionTag reads the discriminant of an optional value and reports whether
// the inner value is present.
func (r *Reader) OptionTag() (bool, error) {
	b, err := r.peekByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		r.off++
		return false, nil
	case 1:
		r.off++
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidOption, b, r.off)
	}
}

// Fixed reads exactly n bytes and returns a copy of them.
func (r *Reader) Fixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) peekByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, &TruncatedError{Offset: r.off, Need: 1, Have: 0}
	}
	return r.buf[r.off], nil
}

// fromLittleEndian converts up to 32 little-endian bytes to an integer.
func fromLittleEndian(le []byte) *uint256.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(uint256.Int).SetBytes(be)
}
