package normalizer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/resolver"
	"github.com/basilisk-nexus/eventnexus/schema"
	"github.com/basilisk-nexus/eventnexus/schema/schematest"
)

var (
	alice        = hexutil.MustDecode("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	aliceSS58    = "bXmPf7DcVmFuHEmzH3UX8t6AUkfNQW8pnTeXGhFhqbfngjAak"
	poolAccount  = bytes.Repeat([]byte{0x11}, 32)
	poolSS58     = "bXgynvaZUqyJLTRR1KpKKpSyf1AeVWm2GDqCGr1wzgHwLbQ2b"
	collector    = bytes.Repeat([]byte{0x22}, 32)
	collectorSS8 = "bXhNAoqzmsTVT8h7EiemviB8RBQ87T74hSAJHMTnt7HNqYU2P"

	basiliskAddresses = common.AddressCodec{Format: common.AddressFormatSS58, Prefix: 10041}
)

func newNormalizer(t *testing.T, addrs common.AddressCodec) *Normalizer {
	n, err := New(basilisk.Catalog(), Options{Addresses: addrs})
	require.NoError(t, err)
	return n
}

// decode encodes v under kind@tag and runs it through the resolver.
func decode(t *testing.T, kind common.EventKind, tag string, v schema.Value) *resolver.DecodedEvent {
	version, err := basilisk.Catalog().Version(kind, tag)
	require.NoError(t, err)
	payload, err := schema.EncodePayload(version.Layout, v)
	require.NoError(t, err)
	d, err := resolver.New(basilisk.Catalog(), resolver.Options{}).Decode(&common.RawEvent{
		Pallet:      kind.Pallet,
		Event:       kind.Name,
		Fingerprint: version.Fingerprint,
		Payload:     payload,
	})
	require.NoError(t, err)
	return d
}

func u32(v uint32) schema.Uint { return schema.Uint(v) }

func poolV38(fee schema.Value) schema.Record {
	return schema.Record{
		{Name: "owner", Value: schema.Bytes(alice)},
		{Name: "start", Value: schema.Optional{Some: u32(100)}},
		{Name: "end", Value: schema.Optional{}},
		{Name: "assets", Value: schema.Tuple{u32(0), u32(2)}},
		{Name: "initialWeight", Value: u32(10_000_000)},
		{Name: "finalWeight", Value: u32(90_000_000)},
		{Name: "weightCurve", Value: schema.Enum{Index: 0, Name: "Linear"}},
		{Name: "fee", Value: fee},
		{Name: "feeCollector", Value: schema.Bytes(collector)},
		{Name: "repayTarget", Value: schema.NewBig(5_000_000_000_000)},
	}
}

func expectedPoolData() PoolData {
	start := uint32(100)
	return PoolData{
		Owner:         aliceSS58,
		Start:         &start,
		AssetA:        0,
		AssetB:        2,
		InitialWeight: 10_000_000,
		FinalWeight:   90_000_000,
		WeightCurve:   "Linear",
		Fee:           Fee{Numerator: 2, Denominator: 1000},
		FeeCollector:  collectorSS8,
		RepayTarget:   common.NewBalance(5_000_000_000_000),
	}
}

func TestPoolUpdatedV55(t *testing.T) {
	d := decode(t, basilisk.LBPPoolUpdated, "V55", schema.Record{
		{Name: "pool", Value: schema.Bytes(poolAccount)},
		{Name: "data", Value: poolV38(schema.Tuple{u32(2), u32(1000)})},
	})

	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	updated, ok := rec.(*PoolUpdated)
	require.True(t, ok, "got %T", rec)

	var poolID common.AccountID
	copy(poolID[:], poolAccount)
	require.Equal(t, poolID, updated.PoolID)
	require.Equal(t, expectedPoolData(), updated.Data)
}

func TestPoolCreatedV81(t *testing.T) {
	data := poolV38(schema.Record{
		{Name: "numerator", Value: u32(2)},
		{Name: "denominator", Value: u32(1000)},
	})
	d := decode(t, basilisk.LBPPoolCreated, "V81", schema.Record{
		{Name: "pool", Value: schema.Bytes(poolAccount)},
		{Name: "data", Value: data},
	})

	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	created, ok := rec.(*PoolCreated)
	require.True(t, ok, "got %T", rec)
	require.Equal(t, expectedPoolData(), created.Data)
	require.Equal(t, "pool_created", created.RecordType())
}

func TestPoolUpdatedV16NotImplemented(t *testing.T) {
	version, err := basilisk.Catalog().Version(basilisk.LBPPoolUpdated, "V16")
	require.NoError(t, err)
	d := decode(t, basilisk.LBPPoolUpdated, "V16", schematest.Sample(version.Layout, 1))

	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.Nil(t, rec)
	require.ErrorIs(t, err, ErrNotImplemented)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	require.Equal(t, "V16", notImpl.Version)
	require.Equal(t, basilisk.LBPPoolUpdated, notImpl.Kind)
}

func TestEveryVersionHasAnArm(t *testing.T) {
	n := newNormalizer(t, basiliskAddresses)
	c := basilisk.Catalog()
	for _, kind := range c.Kinds() {
		versions, err := c.Versions(kind)
		require.NoError(t, err)
		for _, v := range versions {
			d := decode(t, kind, v.Tag, schematest.Sample(v.Layout, 5))
			rec, err := n.Normalize(d)
			if n.Mapped(kind, v.Tag) {
				require.NoError(t, err, v.String())
				require.NotNil(t, rec, v.String())
				_, err = json.Marshal(rec)
				require.NoError(t, err, v.String())
			} else {
				require.ErrorIs(t, err, ErrNotImplemented, v.String())
				require.Nil(t, rec, v.String())
			}
		}
	}
}

func TestCoverageChecked(t *testing.T) {
	layout := schema.U32()
	var fp common.Fingerprint

	// A version the table does not know.
	fp[0] = 1
	extra, err := basilisk.Register(catalog.NewBuilder()).
		Register(basilisk.TokensTransfer, "V99", fp, layout).
		Build()
	require.NoError(t, err)
	_, err = New(extra, Options{})
	require.ErrorContains(t, err, "Tokens.Transfer@V99")

	// A kind the table does not know.
	unknown, err := basilisk.Register(catalog.NewBuilder()).
		Register(common.EventKind{Pallet: "System", Name: "Remarked"}, "V16", fp, layout).
		Build()
	require.NoError(t, err)
	_, err = New(unknown, Options{})
	require.Error(t, err)

	// Arms naming versions the catalog lacks.
	partial, err := catalog.NewBuilder().
		Register(basilisk.BalancesTransfer, "V16", fp, layout).
		Build()
	require.NoError(t, err)
	_, err = New(partial, Options{})
	require.Error(t, err)
}

func TestLiquidityV16Positional(t *testing.T) {
	d := decode(t, basilisk.LBPLiquidityRemoved, "V16", schema.Tuple{
		schema.Bytes(alice), u32(1), u32(2), schema.NewBig(300), schema.NewBig(400),
	})
	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	require.Equal(t, &LiquidityChanged{
		Direction: LiquidityRemoved,
		Who:       aliceSS58,
		AssetA:    1,
		AssetB:    2,
		AmountA:   common.NewBalance(300),
		AmountB:   common.NewBalance(400),
	}, rec)
}

func TestBuyExecutedAssetOrder(t *testing.T) {
	args := []schema.Value{schema.Bytes(alice), u32(5), u32(7), schema.NewBig(10), schema.NewBig(20), u32(7), schema.NewBig(1)}
	want := &Trade{
		Side:      Buy,
		Who:       aliceSS58,
		AssetOut:  5,
		AssetIn:   7,
		Amount:    common.NewBalance(10),
		Price:     common.NewBalance(20),
		FeeAsset:  7,
		FeeAmount: common.NewBalance(1),
	}
	n := newNormalizer(t, basiliskAddresses)

	rec, err := n.Normalize(decode(t, basilisk.LBPBuyExecuted, "V16", schema.Tuple(args)))
	require.NoError(t, err)
	require.Equal(t, want, rec)

	names := []string{"who", "assetOut", "assetIn", "amount", "buyPrice", "feeAsset", "feeAmount"}
	named := make(schema.Record, len(args))
	for i := range args {
		named[i] = schema.NamedValue{Name: names[i], Value: args[i]}
	}
	rec, err = n.Normalize(decode(t, basilisk.LBPBuyExecuted, "V55", named))
	require.NoError(t, err)
	require.Equal(t, want, rec)
}

func TestBalancesTransferNativeAsset(t *testing.T) {
	d := decode(t, basilisk.BalancesTransfer, "V55", schema.Record{
		{Name: "from", Value: schema.Bytes(alice)},
		{Name: "to", Value: schema.Bytes(poolAccount)},
		{Name: "amount", Value: schema.NewBig(1)},
	})
	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	require.Equal(t, &Transfer{Asset: NativeAsset, From: aliceSS58, To: poolSS58, Amount: common.NewBalance(1)}, rec)
}

func TestHexAddresses(t *testing.T) {
	d := decode(t, basilisk.TokensTransfer, "V16", schema.Tuple{
		u32(3), schema.Bytes(alice), schema.Bytes(poolAccount), schema.NewBig(9),
	})
	rec, err := newNormalizer(t, common.AddressCodec{Format: common.AddressFormatHex}).Normalize(d)
	require.NoError(t, err)
	transfer := rec.(*Transfer)
	require.Equal(t, hexutil.Encode(alice), transfer.From)
	require.Equal(t, hexutil.Encode(poolAccount), transfer.To)
	require.Equal(t, uint32(3), transfer.Asset)
}

func TestAssetRegisteredV81(t *testing.T) {
	d := decode(t, basilisk.AssetRegistered, "V81", schema.Record{
		{Name: "assetId", Value: u32(12)},
		{Name: "assetName", Value: schema.Bytes("BSX-KSM")},
		{Name: "assetType", Value: schema.Enum{Index: 1, Name: "PoolShare", Value: schema.Tuple{u32(0), u32(1)}}},
		{Name: "existentialDeposit", Value: schema.NewBig(1000)},
		{Name: "xcmRateLimit", Value: schema.Optional{}},
	})
	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)

	ed := common.NewBalance(1000)
	require.Equal(t, &AssetRegistered{
		AssetID:            12,
		Name:               "BSX-KSM",
		Type:               AssetType{Kind: "PoolShare", PoolAssets: &[2]uint32{0, 1}},
		ExistentialDeposit: &ed,
	}, rec)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"asset_id":12,"name":"BSX-KSM","type":{"kind":"PoolShare","pool_assets":[0,1]},"existential_deposit":"1000"}`, string(out))
}

func TestAssetNameNotUTF8(t *testing.T) {
	d := decode(t, basilisk.AssetRegistered, "V16", schema.Tuple{
		u32(1), schema.Bytes{0xff, 0xfe}, schema.Enum{Index: 0, Name: "Token"},
	})
	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	require.Equal(t, "0xfffe", rec.(*AssetRegistered).Name)
	require.Nil(t, rec.(*AssetRegistered).Type.PoolAssets)
}

func TestVestingSchedule(t *testing.T) {
	schedule := schema.Record{
		{Name: "start", Value: u32(10)},
		{Name: "period", Value: u32(5)},
		{Name: "periodCount", Value: u32(4)},
		{Name: "perPeriod", Value: schema.NewBig(250)},
	}
	d := decode(t, basilisk.VestingScheduleAdded, "V16", schema.Tuple{schema.Bytes(alice), schema.Bytes(poolAccount), schedule})
	rec, err := newNormalizer(t, basiliskAddresses).Normalize(d)
	require.NoError(t, err)
	require.Equal(t, &VestingScheduleAdded{
		From: aliceSS58, To: poolSS58, Start: 10, Period: 5, PeriodCount: 4, PerPeriod: common.NewBalance(250),
	}, rec)
}

func TestFieldsShapeErrors(t *testing.T) {
	f := newFields(basiliskAddresses, schema.Uint(1))
	_ = f.u32(0, "x")
	require.ErrorIs(t, f.Err(), schema.ErrShapeMismatch)

	f = newFields(basiliskAddresses, schema.Record{{Name: "who", Value: schema.Uint(1)}})
	require.Empty(t, f.account(0, "who"))
	require.ErrorContains(t, f.Err(), "field who")
	// The first failure sticks.
	_ = f.u32(0, "missing")
	require.ErrorContains(t, f.Err(), "field who")

	f = newFields(basiliskAddresses, schema.Tuple{schema.Bytes{1, 2}})
	_ = f.accountID(0, "who")
	require.Error(t, f.Err())
}
