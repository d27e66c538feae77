package scale

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Compact integer modes, selected by the two low bits of the first byte.
const (
	compactSingleByte = 0b00
	compactTwoByte    = 0b01
	compactFourByte   = 0b10
	compactBigInt     = 0b11

	maxSingleByte = 1<<6 - 1
	maxTwoByte    = 1<<14 - 1
	maxFourByte   = 1<<30 - 1

	// Widest compact integer we represent; the wire format allows up to 67 bytes.
	maxCompactBytes = 32
)

// Compact reads a compact-encoded unsigned integer. If canonical is set, an
// encoding that is longer than the minimal one fails with ErrNonCanonical.
func (r *Reader) Compact(canonical bool) (*uint256.Int, error) {
	start := r.off
	v, err := r.compact(canonical)
	if err != nil {
		r.off = start
		return nil, err
	}
	return v, nil
}

func (r *Reader) compact(canonical bool) (*uint256.Int, error) {
	b0, err := r.Byte()
	if err != nil {
		return nil, err
	}
	switch b0 & 0b11 {
	case compactSingleByte:
		return uint256.NewInt(uint64(b0 >> 2)), nil
	case compactTwoByte:
		b1, err := r.Byte()
		if err != nil {
			return nil, err
		}
		v := uint64(binary.LittleEndian.Uint16([]byte{b0, b1})) >> 2
		if canonical && v <= maxSingleByte {
			return nil, fmt.Errorf("%w: %d in two-byte mode at offset %d", ErrNonCanonical, v, r.off-2)
		}
		return uint256.NewInt(v), nil
	case compactFourByte:
		rest, err := r.take(3)
		if err != nil {
			return nil, err
		}
		v := uint64(binary.LittleEndian.Uint32([]byte{b0, rest[0], rest[1], rest[2]})) >> 2
		if canonical && v <= maxTwoByte {
			return nil, fmt.Errorf("%w: %d in four-byte mode at offset %d", ErrNonCanonical, v, r.off-4)
		}
		return uint256.NewInt(v), nil
	default:
		n := int(b0>>2) + 4
		le, err := r.take(n)
		if err != nil {
			return nil, err
		}
		if canonical && le[n-1] == 0 {
			return nil, fmt.Errorf("%w: %d-byte big-integer mode with zero high byte", ErrNonCanonical, n)
		}
		if n > maxCompactBytes {
			for _, b := range le[maxCompactBytes:] {
				if b != 0 {
					return nil, fmt.Errorf("%w: compact integer of %d bytes", ErrOverflow, n)
				}
			}
			le = le[:maxCompactBytes]
		}
		v := fromLittleEndian(le)
		if canonical && v.LtUint64(maxFourByte+1) {
			return nil, fmt.Errorf("%w: %s in big-integer mode", ErrNonCanonical, v.Dec())
		}
		return v, nil
	}
}

// CompactUint64 reads a compact integer that must fit in 64 bits, such as a
// sequence length.
func (r *Reader) CompactUint64(canonical bool) (uint64, error) {
	start := r.off
	v, err := r.Compact(canonical)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		r.off = start
		return 0, fmt.Errorf("%w: compact %s does not fit in 64 bits", ErrOverflow, v.Dec())
	}
	return v.Uint64(), nil
}

// PutCompact appends the minimal compact encoding of v.
func (w *Writer) PutCompact(v *uint256.Int) {
	switch {
	case v.LtUint64(maxSingleByte + 1):
		w.buf = append(w.buf, byte(v.Uint64()<<2)|compactSingleByte)
	case v.LtUint64(maxTwoByte + 1):
		w.PutU16(uint16(v.Uint64()<<2) | compactTwoByte)
	case v.LtUint64(maxFourByte + 1):
		w.PutU32(uint32(v.Uint64()<<2) | compactFourByte)
	default:
		n := (v.BitLen() + 7) / 8
		w.buf = append(w.buf, byte((n-4)<<2)|compactBigInt)
		w.buf = append(w.buf, toLittleEndian(v, n)...)
	}
}

// PutCompactUint64 appends the minimal compact encoding of v.
func (w *Writer) PutCompactUint64(v uint64) {
	w.PutCompact(uint256.NewInt(v))
}
