package normalizer

import (
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/common"
)

var dispatch = map[common.EventKind]arms{
	basilisk.LBPPoolCreated: {
		"V16": nil,
		"V25": nil,
		"V38": nil,
		"V55": poolCreated,
		"V81": poolCreated,
	},
	basilisk.LBPPoolUpdated: {
		"V16": nil,
		"V25": nil,
		"V38": nil,
		"V55": poolUpdated,
		"V81": poolUpdated,
	},
	basilisk.LBPLiquidityAdded: {
		"V16": liquidityChanged(LiquidityAdded),
		"V55": liquidityChanged(LiquidityAdded),
	},
	basilisk.LBPLiquidityRemoved: {
		"V16": liquidityChanged(LiquidityRemoved),
		"V55": liquidityChanged(LiquidityRemoved),
	},
	basilisk.LBPSellExecuted: {
		"V16": sellExecuted,
		"V55": sellExecuted,
	},
	basilisk.LBPBuyExecuted: {
		"V16": buyExecuted,
		"V55": buyExecuted,
	},
	basilisk.XYKPoolCreated: {
		"V16": nil,
		"V25": xykPoolCreated,
		"V55": xykPoolCreated,
	},
	basilisk.TokensTransfer: {
		"V16": tokensTransfer,
		"V55": tokensTransfer,
	},
	basilisk.BalancesTransfer: {
		"V16": balancesTransfer,
		"V55": balancesTransfer,
	},
	basilisk.AssetRegistered: {
		"V16": assetRegistered(false),
		"V55": assetRegistered(false),
		"V81": assetRegistered(true),
	},
	basilisk.VestingScheduleAdded: {
		"V16": vestingScheduleAdded,
		"V55": vestingScheduleAdded,
	},
}
