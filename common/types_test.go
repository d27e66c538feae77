package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFingerprint = "0x0101010101010101010101010101010101010101010101010101010101010101"

func TestFingerprintText(t *testing.T) {
	f, err := ParseFingerprint(sampleFingerprint)
	require.NoError(t, err)
	require.Equal(t, byte(1), f[31])
	require.Equal(t, sampleFingerprint, f.String())

	_, err = ParseFingerprint("0x0101")
	require.Error(t, err)
	_, err = ParseFingerprint("0101010101010101010101010101010101010101010101010101010101010101")
	require.Error(t, err, "missing 0x prefix")
	require.Panics(t, func() { MustParseFingerprint("nope") })
}

func TestParseEventKind(t *testing.T) {
	k, err := ParseEventKind("LBP.PoolUpdated")
	require.NoError(t, err)
	require.Equal(t, EventKind{Pallet: "LBP", Name: "PoolUpdated"}, k)
	require.Equal(t, "LBP.PoolUpdated", k.String())

	for _, bad := range []string{"", "LBP", ".PoolUpdated", "LBP.", "LBP.Pool.Updated"} {
		_, err := ParseEventKind(bad)
		require.Error(t, err, bad)
	}
}

func TestRawEventJSON(t *testing.T) {
	in := `{"pallet":"Tokens","event":"Transfer","fingerprint":"` + sampleFingerprint + `",` +
		`"payload":"0x0102","block":{"height":1200,"hash":"0xabcd"},"index":3}`

	var ev RawEvent
	require.NoError(t, json.Unmarshal([]byte(in), &ev))
	require.Equal(t, EventKind{"Tokens", "Transfer"}, ev.Kind())
	require.Equal(t, []byte{1, 2}, []byte(ev.Payload))
	require.Equal(t, "1200-3", ev.ID())

	out, err := json.Marshal(&ev)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestBalanceJSON(t *testing.T) {
	var b Balance
	require.NoError(t, json.Unmarshal([]byte(`"340282366920938463463374607431768211455"`), &b))
	out, err := json.Marshal(b)
	require.NoError(t, err)
	require.Equal(t, `"340282366920938463463374607431768211455"`, string(out))
	require.Equal(t, "7", NewBalance(7).String())

	require.Error(t, b.UnmarshalText([]byte("-1")))
}

func TestAccountIDText(t *testing.T) {
	var a AccountID
	a[0] = 0xd4
	text, err := a.MarshalText()
	require.NoError(t, err)

	var back AccountID
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, a, back)
	require.Error(t, back.UnmarshalText([]byte("0xd4")))
}

func TestChainPrefixes(t *testing.T) {
	p, err := ChainBasilisk.SS58Prefix()
	require.NoError(t, err)
	require.Equal(t, uint16(10041), p)

	_, err = ChainName("polkadot").SS58Prefix()
	require.Error(t, err)
}
