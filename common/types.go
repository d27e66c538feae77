package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// FingerprintLen is the size of a schema fingerprint in bytes.
const FingerprintLen = 32

// Fingerprint is the content hash of an event's wire type signature, as
// reported by chain metadata. Two runtime versions with equal fingerprints
// share a binary layout.
type Fingerprint [FingerprintLen]byte

// ParseFingerprint parses a 0x-prefixed hex fingerprint.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	return f, f.UnmarshalText([]byte(s))
}

// MustParseFingerprint is like ParseFingerprint but panics on malformed
// input. Intended for compiled-in tables.
func MustParseFingerprint(s string) Fingerprint {
	f, err := ParseFingerprint(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Fingerprint) String() string {
	return hexutil.Encode(f[:])
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return fmt.Errorf("fingerprint %q: %w", text, err)
	}
	if len(b) != FingerprintLen {
		return fmt.Errorf("fingerprint %q: want %d bytes, got %d", text, FingerprintLen, len(b))
	}
	copy(f[:], b)
	return nil
}

// EventKind names a logical event: the pallet that emits it and the event name.
type EventKind struct {
	Pallet string
	Name   string
}

// ParseEventKind parses the "Pallet.Event" form, e.g. "LBP.PoolUpdated".
func ParseEventKind(s string) (EventKind, error) {
	pallet, name, ok := strings.Cut(s, ".")
	if !ok || pallet == "" || name == "" || strings.Contains(name, ".") {
		return EventKind{}, fmt.Errorf("malformed event kind %q, want Pallet.Event", s)
	}
	return EventKind{Pallet: pallet, Name: name}, nil
}

func (k EventKind) String() string {
	return k.Pallet + "." + k.Name
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// BlockRef identifies the block an event was emitted in.
type BlockRef struct {
	Height uint64        `json:"height"`
	Hash   hexutil.Bytes `json:"hash,omitempty"`
}

// RawEvent is a still-encoded chain event, as handed over by the chain client.
type RawEvent struct {
	Pallet      string        `json:"pallet"`
	Event       string        `json:"event"`
	Fingerprint Fingerprint   `json:"fingerprint"`
	Payload     hexutil.Bytes `json:"payload"`
	Block       BlockRef      `json:"block"`
	// Index is the position of the event within its block.
	Index uint32 `json:"index"`
}

// Kind returns the event's pallet and name.
func (e *RawEvent) Kind() EventKind {
	return EventKind{Pallet: e.Pallet, Name: e.Event}
}

// ID is a stable identifier of the event, "<height>-<index>".
func (e *RawEvent) ID() string {
	return fmt.Sprintf("%d-%d", e.Block.Height, e.Index)
}

// AccountID is a raw 32-byte account or pool identifier.
type AccountID [32]byte

func (a AccountID) String() string {
	return hexutil.Encode(a[:])
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(a) {
		return fmt.Errorf("account id: want %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return nil
}

// Balance is an unsigned on-chain amount (u128 or compact). It marshals to
// JSON as a decimal string so consumers never lose precision.
type Balance struct {
	uint256.Int
}

func NewBalance(v uint64) Balance {
	return Balance{*uint256.NewInt(v)}
}

func (b Balance) String() string {
	return b.Dec()
}

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.Dec()), nil
}

func (b *Balance) UnmarshalText(text []byte) error {
	v, err := uint256.FromDecimal(string(text))
	if err != nil {
		return fmt.Errorf("balance %q: %w", text, err)
	}
	b.Int = *v
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Dec())
}

func (b *Balance) UnmarshalJSON(text []byte) error {
	v := strings.Trim(string(text), "\"")
	return b.UnmarshalText([]byte(v))
}
