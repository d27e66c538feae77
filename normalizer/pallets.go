package normalizer

func xykPoolCreated(f *fields) (Record, error) {
	rec := &XykPoolCreated{
		Who:                 f.account(0, "who"),
		AssetA:              f.u32(1, "assetA"),
		AssetB:              f.u32(2, "assetB"),
		InitialSharesAmount: f.balance(3, "initialSharesAmount"),
		ShareToken:          f.u32(4, "shareToken"),
		Pool:                f.account(5, "pool"),
	}
	return rec, f.Err()
}

func tokensTransfer(f *fields) (Record, error) {
	rec := &Transfer{
		Asset:  f.u32(0, "currencyId"),
		From:   f.account(1, "from"),
		To:     f.account(2, "to"),
		Amount: f.balance(3, "amount"),
	}
	return rec, f.Err()
}

func balancesTransfer(f *fields) (Record, error) {
	rec := &Transfer{
		Asset:  NativeAsset,
		From:   f.account(0, "from"),
		To:     f.account(1, "to"),
		Amount: f.balance(2, "amount"),
	}
	return rec, f.Err()
}

func assetRegistered(withLimits bool) arm {
	return func(f *fields) (Record, error) {
		rec := &AssetRegistered{
			AssetID: f.u32(0, "assetId"),
			Name:    f.text(1, "assetName"),
		}
		typ := f.enum(2, "assetType")
		rec.Type.Kind = typ.Name
		if typ.Value != nil {
			pair := newFields(f.addr, typ.Value)
			assets := [2]uint32{pair.u32(0, "0"), pair.u32(1, "1")}
			if err := pair.Err(); err != nil {
				f.fail("assetType", err)
			}
			rec.Type.PoolAssets = &assets
		}
		if withLimits {
			ed := f.balance(3, "existentialDeposit")
			rec.ExistentialDeposit = &ed
			rec.XcmRateLimit = f.optBalance(4, "xcmRateLimit")
		}
		return rec, f.Err()
	}
}

func vestingScheduleAdded(f *fields) (Record, error) {
	schedule := f.nested(2, "vestingSchedule")
	rec := &VestingScheduleAdded{
		From:        f.account(0, "from"),
		To:          f.account(1, "to"),
		Start:       schedule.u32(0, "start"),
		Period:      schedule.u32(1, "period"),
		PeriodCount: schedule.u32(2, "periodCount"),
		PerPeriod:   schedule.balance(3, "perPeriod"),
	}
	return rec, f.Err()
}
