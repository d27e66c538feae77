package normalizer

import (
	"github.com/basilisk-nexus/eventnexus/common"
)

// Record is a version-independent event. Every schema version of a kind
// normalizes to the same Record type.
type Record interface {
	// RecordType names the record shape, e.g. "trade".
	RecordType() string
}

// Fee is a fraction of a trade amount.
type Fee struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// PoolData is the configuration of a liquidity bootstrapping pool.
type PoolData struct {
	Owner         string         `json:"owner"`
	Start         *uint32        `json:"start"`
	End           *uint32        `json:"end"`
	AssetA        uint32         `json:"asset_a"`
	AssetB        uint32         `json:"asset_b"`
	InitialWeight uint32         `json:"initial_weight"`
	FinalWeight   uint32         `json:"final_weight"`
	WeightCurve   string         `json:"weight_curve"`
	Fee           Fee            `json:"fee"`
	FeeCollector  string         `json:"fee_collector"`
	RepayTarget   common.Balance `json:"repay_target"`
}

type PoolCreated struct {
	PoolID common.AccountID `json:"pool_id"`
	Data   PoolData         `json:"data"`
}

type PoolUpdated struct {
	PoolID common.AccountID `json:"pool_id"`
	Data   PoolData         `json:"data"`
}

// LiquidityDirection tells LBP deposits and withdrawals apart.
type LiquidityDirection string

const (
	LiquidityAdded   LiquidityDirection = "added"
	LiquidityRemoved LiquidityDirection = "removed"
)

type LiquidityChanged struct {
	Direction LiquidityDirection `json:"direction"`
	Who       string             `json:"who"`
	AssetA    uint32             `json:"asset_a"`
	AssetB    uint32             `json:"asset_b"`
	AmountA   common.Balance     `json:"amount_a"`
	AmountB   common.Balance     `json:"amount_b"`
}

type TradeSide string

const (
	Sell TradeSide = "sell"
	Buy  TradeSide = "buy"
)

// Trade is an executed LBP sell or buy. Price is the sale price for sells
// and the buy price for buys.
type Trade struct {
	Side      TradeSide      `json:"side"`
	Who       string         `json:"who"`
	AssetIn   uint32         `json:"asset_in"`
	AssetOut  uint32         `json:"asset_out"`
	Amount    common.Balance `json:"amount"`
	Price     common.Balance `json:"price"`
	FeeAsset  uint32         `json:"fee_asset"`
	FeeAmount common.Balance `json:"fee_amount"`
}

type XykPoolCreated struct {
	Who                 string         `json:"who"`
	AssetA              uint32         `json:"asset_a"`
	AssetB              uint32         `json:"asset_b"`
	InitialSharesAmount common.Balance `json:"initial_shares_amount"`
	ShareToken          uint32         `json:"share_token"`
	Pool                string         `json:"pool"`
}

// NativeAsset is the asset id of the chain's native token.
const NativeAsset uint32 = 0

// Transfer moves Amount of Asset between accounts. Native transfers carry
// NativeAsset.
type Transfer struct {
	Asset  uint32         `json:"asset"`
	From   string         `json:"from"`
	To     string         `json:"to"`
	Amount common.Balance `json:"amount"`
}

// AssetType is "Token" or "PoolShare"; PoolAssets is set for pool shares.
type AssetType struct {
	Kind       string     `json:"kind"`
	PoolAssets *[2]uint32 `json:"pool_assets,omitempty"`
}

// AssetRegistered announces a new asset. Name is the registered name when it
// is valid UTF-8 and its 0x-hex form otherwise. ExistentialDeposit and
// XcmRateLimit are only known from runtime 81 on.
type AssetRegistered struct {
	AssetID            uint32          `json:"asset_id"`
	Name               string          `json:"name"`
	Type               AssetType       `json:"type"`
	ExistentialDeposit *common.Balance `json:"existential_deposit,omitempty"`
	XcmRateLimit       *common.Balance `json:"xcm_rate_limit,omitempty"`
}

type VestingScheduleAdded struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Start       uint32         `json:"start"`
	Period      uint32         `json:"period"`
	PeriodCount uint32         `json:"period_count"`
	PerPeriod   common.Balance `json:"per_period"`
}

func (*PoolCreated) RecordType() string          { return "pool_created" }
func (*PoolUpdated) RecordType() string          { return "pool_updated" }
func (*LiquidityChanged) RecordType() string     { return "liquidity_changed" }
func (*Trade) RecordType() string                { return "trade" }
func (*XykPoolCreated) RecordType() string       { return "xyk_pool_created" }
func (*Transfer) RecordType() string             { return "transfer" }
func (*AssetRegistered) RecordType() string      { return "asset_registered" }
func (*VestingScheduleAdded) RecordType() string { return "vesting_schedule_added" }
