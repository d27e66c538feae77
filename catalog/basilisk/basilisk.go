// Package basilisk holds the compiled-in event catalog of the Basilisk
// parachain runtime.
package basilisk

import (
	"sync"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/common"
)

// Event kinds with registered layouts.
var (
	LBPPoolCreated       = common.EventKind{Pallet: "LBP", Name: "PoolCreated"}
	LBPPoolUpdated       = common.EventKind{Pallet: "LBP", Name: "PoolUpdated"}
	LBPLiquidityAdded    = common.EventKind{Pallet: "LBP", Name: "LiquidityAdded"}
	LBPLiquidityRemoved  = common.EventKind{Pallet: "LBP", Name: "LiquidityRemoved"}
	LBPSellExecuted      = common.EventKind{Pallet: "LBP", Name: "SellExecuted"}
	LBPBuyExecuted       = common.EventKind{Pallet: "LBP", Name: "BuyExecuted"}
	XYKPoolCreated       = common.EventKind{Pallet: "XYK", Name: "PoolCreated"}
	TokensTransfer       = common.EventKind{Pallet: "Tokens", Name: "Transfer"}
	BalancesTransfer     = common.EventKind{Pallet: "Balances", Name: "Transfer"}
	AssetRegistered      = common.EventKind{Pallet: "AssetRegistry", Name: "Registered"}
	VestingScheduleAdded = common.EventKind{Pallet: "Vesting", Name: "VestingScheduleAdded"}
)

// Register adds every Basilisk event layout to b, oldest version first.
func Register(b *catalog.Builder) *catalog.Builder {
	for _, kind := range []common.EventKind{LBPPoolCreated, LBPPoolUpdated} {
		for _, tag := range []string{"V16", "V25", "V38", "V55", "V81"} {
			b.Register(kind, tag, fingerprint(kind, tag), lbpPoolEvent(tag))
		}
	}
	for _, kind := range []common.EventKind{LBPLiquidityAdded, LBPLiquidityRemoved} {
		b.Register(kind, "V16", fingerprint(kind, "V16"), liquidityV16)
		b.Register(kind, "V55", fingerprint(kind, "V55"), liquidityV55)
	}
	b.Register(LBPSellExecuted, "V16", fingerprint(LBPSellExecuted, "V16"), sellExecutedV16).
		Register(LBPSellExecuted, "V55", fingerprint(LBPSellExecuted, "V55"), sellExecutedV55).
		Register(LBPBuyExecuted, "V16", fingerprint(LBPBuyExecuted, "V16"), buyExecutedV16).
		Register(LBPBuyExecuted, "V55", fingerprint(LBPBuyExecuted, "V55"), buyExecutedV55).
		Register(XYKPoolCreated, "V16", fingerprint(XYKPoolCreated, "V16"), xykPoolCreatedV16).
		Register(XYKPoolCreated, "V25", fingerprint(XYKPoolCreated, "V25"), xykPoolCreatedV25).
		Register(XYKPoolCreated, "V55", fingerprint(XYKPoolCreated, "V55"), xykPoolCreatedV55).
		Register(TokensTransfer, "V16", fingerprint(TokensTransfer, "V16"), tokensTransferV16).
		Register(TokensTransfer, "V55", fingerprint(TokensTransfer, "V55"), tokensTransferV55).
		Register(BalancesTransfer, "V16", fingerprint(BalancesTransfer, "V16"), balancesTransferV16).
		Register(BalancesTransfer, "V55", fingerprint(BalancesTransfer, "V55"), balancesTransferV55).
		Register(AssetRegistered, "V16", fingerprint(AssetRegistered, "V16"), registeredV16).
		Register(AssetRegistered, "V55", fingerprint(AssetRegistered, "V55"), registeredV55).
		Register(AssetRegistered, "V81", fingerprint(AssetRegistered, "V81"), registeredV81).
		Register(VestingScheduleAdded, "V16", fingerprint(VestingScheduleAdded, "V16"), vestingScheduleAddedV16).
		Register(VestingScheduleAdded, "V55", fingerprint(VestingScheduleAdded, "V55"), vestingScheduleAddedV55)
	return b
}

var (
	once    sync.Once
	builtin *catalog.Catalog
)

// Catalog returns the process-wide Basilisk catalog. It is built on first
// use and panics if the compiled-in tables are inconsistent.
func Catalog() *catalog.Catalog {
	once.Do(func() {
		c, err := Register(catalog.NewBuilder()).Build()
		if err != nil {
			panic(err)
		}
		builtin = c
	})
	return builtin
}
