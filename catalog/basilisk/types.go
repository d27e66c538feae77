package basilisk

import "github.com/basilisk-nexus/eventnexus/schema"

// Runtime type aliases shared by the pallets below.
var (
	AccountID32     = schema.Named("AccountId32", schema.Array(32))
	AssetID         = schema.Named("AssetId", schema.U32())
	Balance         = schema.Named("Balance", schema.U128())
	BlockNumber     = schema.Named("BlockNumber", schema.U32())
	LBPWeight       = schema.Named("LBPWeight", schema.U32())
	WeightCurveType = schema.Named("WeightCurveType", schema.Variant(schema.C(0, "Linear", nil)))
	AssetPair       = schema.TupleOf(AssetID, AssetID)
)

// LBP pool layouts. Every runtime upgrade that touched the pool struct is
// listed; events embed the pool as-is.
var (
	lbpPoolV16 = schema.Named("PoolV16", schema.Struct(
		schema.F("owner", AccountID32),
		schema.F("start", BlockNumber),
		schema.F("end", BlockNumber),
		schema.F("assets", AssetPair),
		schema.F("initialWeight", LBPWeight),
		schema.F("finalWeight", LBPWeight),
		schema.F("weightCurve", WeightCurveType),
		schema.F("fee", schema.TupleOf(schema.U32(), schema.U32())),
		schema.F("feeCollector", AccountID32),
	))
	lbpPoolV25 = schema.Named("PoolV25", schema.Struct(
		schema.F("owner", AccountID32),
		schema.F("start", BlockNumber),
		schema.F("end", BlockNumber),
		schema.F("assets", AssetPair),
		schema.F("initialWeight", LBPWeight),
		schema.F("finalWeight", LBPWeight),
		schema.F("weightCurve", WeightCurveType),
		schema.F("fee", schema.TupleOf(schema.U32(), schema.U32())),
		schema.F("feeCollector", AccountID32),
		schema.F("repayTarget", Balance),
	))
	lbpPoolV38 = schema.Named("PoolV38", schema.Struct(
		schema.F("owner", AccountID32),
		schema.F("start", schema.Option(BlockNumber)),
		schema.F("end", schema.Option(BlockNumber)),
		schema.F("assets", AssetPair),
		schema.F("initialWeight", LBPWeight),
		schema.F("finalWeight", LBPWeight),
		schema.F("weightCurve", WeightCurveType),
		schema.F("fee", schema.TupleOf(schema.U32(), schema.U32())),
		schema.F("feeCollector", AccountID32),
		schema.F("repayTarget", Balance),
	))
	lbpFee     = schema.Named("Fee", schema.Struct(schema.F("numerator", schema.U32()), schema.F("denominator", schema.U32())))
	lbpPoolV81 = schema.Named("PoolV81", schema.Struct(
		schema.F("owner", AccountID32),
		schema.F("start", schema.Option(BlockNumber)),
		schema.F("end", schema.Option(BlockNumber)),
		schema.F("assets", AssetPair),
		schema.F("initialWeight", LBPWeight),
		schema.F("finalWeight", LBPWeight),
		schema.F("weightCurve", WeightCurveType),
		schema.F("fee", lbpFee),
		schema.F("feeCollector", AccountID32),
		schema.F("repayTarget", Balance),
	))
)

// lbpPoolEvent is the shared layout of LBP.PoolCreated and LBP.PoolUpdated.
func lbpPoolEvent(tag string) *schema.Type {
	switch tag {
	case "V16":
		return schema.TupleOf(AccountID32, lbpPoolV16)
	case "V25":
		return schema.TupleOf(AccountID32, lbpPoolV25)
	case "V38":
		return schema.TupleOf(AccountID32, lbpPoolV38)
	case "V55":
		return schema.Struct(schema.F("pool", AccountID32), schema.F("data", lbpPoolV38))
	case "V81":
		return schema.Struct(schema.F("pool", AccountID32), schema.F("data", lbpPoolV81))
	}
	panic("basilisk: no LBP pool layout for " + tag)
}

var (
	liquidityV16 = schema.TupleOf(AccountID32, AssetID, AssetID, Balance, Balance)
	liquidityV55 = schema.Struct(
		schema.F("who", AccountID32),
		schema.F("assetA", AssetID),
		schema.F("assetB", AssetID),
		schema.F("amountA", Balance),
		schema.F("amountB", Balance),
	)

	sellExecutedV16 = schema.TupleOf(AccountID32, AssetID, AssetID, Balance, Balance, AssetID, Balance)
	sellExecutedV55 = schema.Struct(
		schema.F("who", AccountID32),
		schema.F("assetIn", AssetID),
		schema.F("assetOut", AssetID),
		schema.F("amount", Balance),
		schema.F("salePrice", Balance),
		schema.F("feeAsset", AssetID),
		schema.F("feeAmount", Balance),
	)
	buyExecutedV16 = schema.TupleOf(AccountID32, AssetID, AssetID, Balance, Balance, AssetID, Balance)
	buyExecutedV55 = schema.Struct(
		schema.F("who", AccountID32),
		schema.F("assetOut", AssetID),
		schema.F("assetIn", AssetID),
		schema.F("amount", Balance),
		schema.F("buyPrice", Balance),
		schema.F("feeAsset", AssetID),
		schema.F("feeAmount", Balance),
	)
)

var (
	xykPoolCreatedV16 = schema.TupleOf(AccountID32, AssetID, AssetID, Balance)
	xykPoolCreatedV25 = schema.TupleOf(AccountID32, AssetID, AssetID, Balance, AssetID, AccountID32)
	xykPoolCreatedV55 = schema.Struct(
		schema.F("who", AccountID32),
		schema.F("assetA", AssetID),
		schema.F("assetB", AssetID),
		schema.F("initialSharesAmount", Balance),
		schema.F("shareToken", AssetID),
		schema.F("pool", AccountID32),
	)
)

var (
	tokensTransferV16 = schema.TupleOf(AssetID, AccountID32, AccountID32, Balance)
	tokensTransferV55 = schema.Struct(
		schema.F("currencyId", AssetID),
		schema.F("from", AccountID32),
		schema.F("to", AccountID32),
		schema.F("amount", Balance),
	)
	balancesTransferV16 = schema.TupleOf(AccountID32, AccountID32, Balance)
	balancesTransferV55 = schema.Struct(
		schema.F("from", AccountID32),
		schema.F("to", AccountID32),
		schema.F("amount", Balance),
	)
)

var (
	assetType = schema.Named("AssetType", schema.Variant(
		schema.C(0, "Token", nil),
		schema.C(1, "PoolShare", AssetPair),
	))
	assetName = schema.Sequence(schema.U8())

	registeredV16 = schema.TupleOf(AssetID, assetName, assetType)
	registeredV55 = schema.Struct(
		schema.F("assetId", AssetID),
		schema.F("assetName", assetName),
		schema.F("assetType", assetType),
	)
	registeredV81 = schema.Struct(
		schema.F("assetId", AssetID),
		schema.F("assetName", assetName),
		schema.F("assetType", assetType),
		schema.F("existentialDeposit", Balance),
		schema.F("xcmRateLimit", schema.Option(Balance)),
	)
)

var (
	vestingSchedule = schema.Named("VestingSchedule", schema.Struct(
		schema.F("start", BlockNumber),
		schema.F("period", BlockNumber),
		schema.F("periodCount", schema.U32()),
		schema.F("perPeriod", schema.Compact()),
	))
	vestingScheduleAddedV16 = schema.TupleOf(AccountID32, AccountID32, vestingSchedule)
	vestingScheduleAddedV55 = schema.Struct(
		schema.F("from", AccountID32),
		schema.F("to", AccountID32),
		schema.F("vestingSchedule", vestingSchedule),
	)
)
