package common

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// SS58 is Substrate's account text format:
// base58(prefix || public key || checksum), where the checksum is the first
// two bytes of blake2b-512("SS58PRE" || prefix || public key).

const (
	ss58ChecksumLen = 2
	maxSS58Prefix   = 1<<14 - 1
)

var ss58Preimage = []byte("SS58PRE")

// ErrBadChecksum is returned when an SS58 string does not verify.
var ErrBadChecksum = errors.New("ss58: bad checksum")

func ss58PrefixBytes(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix <= maxSS58Prefix:
		return []byte{
			byte((prefix&0b1111_1100)>>2) | 0b0100_0000,
			byte(prefix>>8) | byte((prefix&0b11)<<6),
		}, nil
	default:
		return nil, fmt.Errorf("ss58: prefix %d out of range", prefix)
	}
}

func ss58Checksum(data []byte) []byte {
	sum := blake2b.Sum512(append(append([]byte{}, ss58Preimage...), data...))
	return sum[:ss58ChecksumLen]
}

// SS58Encode renders a 32-byte public key for the network with the given prefix.
func SS58Encode(pubKey []byte, prefix uint16) (string, error) {
	if len(pubKey) != 32 {
		return "", fmt.Errorf("ss58: want 32-byte public key, got %d bytes", len(pubKey))
	}
	pre, err := ss58PrefixBytes(prefix)
	if err != nil {
		return "", err
	}
	data := append(pre, pubKey...)
	return base58.Encode(append(data, ss58Checksum(data)...)), nil
}

// SS58Decode parses an SS58 string into its public key and network prefix.
func SS58Decode(s string) ([]byte, uint16, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, 0, fmt.Errorf("ss58: %w", err)
	}
	if len(raw) < 1 {
		return nil, 0, fmt.Errorf("ss58: empty address")
	}
	var prefix uint16
	prefixLen := 1
	switch b0 := raw[0]; {
	case b0 < 64:
		prefix = uint16(b0)
	case b0 < 128:
		if len(raw) < 2 {
			return nil, 0, fmt.Errorf("ss58: truncated prefix")
		}
		b1 := raw[1]
		lower := (b0 << 2) | (b1 >> 6)
		upper := b1 & 0b0011_1111
		prefix = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return nil, 0, fmt.Errorf("ss58: reserved prefix byte 0x%02x", b0)
	}
	if len(raw) != prefixLen+32+ss58ChecksumLen {
		return nil, 0, fmt.Errorf("ss58: unsupported address length %d", len(raw))
	}
	data, checksum := raw[:len(raw)-ss58ChecksumLen], raw[len(raw)-ss58ChecksumLen:]
	if !bytes.Equal(checksum, ss58Checksum(data)) {
		return nil, 0, ErrBadChecksum
	}
	return data[prefixLen:], prefix, nil
}

// AddressFormat selects the canonical text form of accounts in normalized records.
type AddressFormat string

const (
	// AddressFormatSS58 renders accounts as SS58 with the chain's prefix.
	AddressFormatSS58 AddressFormat = "ss58"
	// AddressFormatHex renders accounts as 0x-prefixed hex of the raw bytes.
	AddressFormatHex AddressFormat = "hex"
)

// Set implements pflag.Value.
func (f *AddressFormat) Set(s string) error {
	switch AddressFormat(strings.ToLower(s)) {
	case AddressFormatSS58:
		*f = AddressFormatSS58
	case AddressFormatHex:
		*f = AddressFormatHex
	default:
		return fmt.Errorf("invalid address format '%s'", s)
	}
	return nil
}

func (f *AddressFormat) String() string {
	return string(*f)
}

// Type implements pflag.Value.
func (f *AddressFormat) Type() string {
	return "[ss58,hex]"
}

// AddressCodec renders raw account bytes in the configured canonical form.
type AddressCodec struct {
	Format AddressFormat
	Prefix uint16
}

// Stringify renders a raw 32-byte account.
func (c AddressCodec) Stringify(account []byte) (string, error) {
	switch c.Format {
	case AddressFormatHex:
		if len(account) != 32 {
			return "", fmt.Errorf("account: want 32 bytes, got %d", len(account))
		}
		return hexutil.Encode(account), nil
	case AddressFormatSS58, "":
		return SS58Encode(account, c.Prefix)
	default:
		return "", fmt.Errorf("unsupported address format %q", c.Format)
	}
}
