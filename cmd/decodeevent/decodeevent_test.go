package decodeevent

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/schema"
	"github.com/basilisk-nexus/eventnexus/schema/schematest"
)

func samplePayload(t *testing.T, kind common.EventKind, tag string) (string, common.Fingerprint) {
	v, err := basilisk.Catalog().Version(kind, tag)
	require.NoError(t, err)
	payload, err := schema.EncodePayload(v.Layout, schematest.Sample(v.Layout, 7))
	require.NoError(t, err)
	return hexutil.Encode(payload), v.Fingerprint
}

func TestDecodeByTag(t *testing.T) {
	payload, fp := samplePayload(t, basilisk.TokensTransfer, "V55")
	out, err := Decode(basilisk.Catalog(), &Request{
		Kind:          "Tokens.Transfer",
		Tag:           "V55",
		Payload:       payload,
		Chain:         common.ChainBasilisk,
		AddressFormat: common.AddressFormatHex,
	})
	require.NoError(t, err)
	require.Equal(t, basilisk.TokensTransfer, out.Kind)
	require.Equal(t, "V55", out.Version)
	require.Equal(t, fp, out.Fingerprint)
	require.Equal(t, "transfer", out.RecordType)
	require.Empty(t, out.NormalizeError)
	transfer, ok := out.Record.(*normalizer.Transfer)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(transfer.From, "0x"))

	var buf bytes.Buffer
	require.NoError(t, write(&buf, out))
	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))
	require.Equal(t, "Tokens.Transfer", generic["kind"])
	require.Equal(t, "transfer", generic["record_type"])
	require.NotNil(t, generic["value"])
}

func TestDecodeByFingerprint(t *testing.T) {
	payload, fp := samplePayload(t, basilisk.BalancesTransfer, "V16")
	out, err := Decode(basilisk.Catalog(), &Request{
		Kind:        "Balances.Transfer",
		Fingerprint: fp.String(),
		Payload:     strings.TrimPrefix(payload, "0x"),
		Chain:       common.ChainBasilisk,
	})
	require.NoError(t, err)
	require.Equal(t, "V16", out.Version)
	transfer, ok := out.Record.(*normalizer.Transfer)
	require.True(t, ok)
	require.Equal(t, normalizer.NativeAsset, transfer.Asset)
}

func TestDecodeUnmappedVersion(t *testing.T) {
	payload, _ := samplePayload(t, basilisk.LBPPoolUpdated, "V16")
	out, err := Decode(basilisk.Catalog(), &Request{
		Kind:    "LBP.PoolUpdated",
		Tag:     "V16",
		Payload: payload,
		Chain:   common.ChainBasilisk,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Value)
	require.Nil(t, out.Record)
	require.Contains(t, out.NormalizeError, "not implemented")
}

func TestDecodeErrors(t *testing.T) {
	payload, _ := samplePayload(t, basilisk.TokensTransfer, "V55")
	for name, tc := range map[string]struct {
		req  Request
		want string
	}{
		"bad kind": {
			req:  Request{Kind: "Transfer", Tag: "V55", Payload: payload, Chain: common.ChainBasilisk},
			want: "malformed event kind",
		},
		"no version": {
			req:  Request{Kind: "Tokens.Transfer", Payload: payload, Chain: common.ChainBasilisk},
			want: "one of --fingerprint or --tag",
		},
		"both versions": {
			req:  Request{Kind: "Tokens.Transfer", Tag: "V55", Fingerprint: "0x00", Payload: payload, Chain: common.ChainBasilisk},
			want: "mutually exclusive",
		},
		"bad hex": {
			req:  Request{Kind: "Tokens.Transfer", Tag: "V55", Payload: "0xzz", Chain: common.ChainBasilisk},
			want: "payload",
		},
		"unknown chain": {
			req:  Request{Kind: "Tokens.Transfer", Tag: "V55", Payload: payload, Chain: "polkadot"},
			want: "--ss58-prefix",
		},
		"truncated": {
			req:  Request{Kind: "Tokens.Transfer", Tag: "V55", Payload: payload[:10], Chain: common.ChainBasilisk},
			want: "Tokens.Transfer@V55",
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(basilisk.Catalog(), &tc.req)
			require.ErrorContains(t, err, tc.want)
		})
	}
}
