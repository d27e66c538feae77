package normalizer

// Struct-shaped pool events: {pool, data}. Runtimes 55 and 81 differ only in
// the fee, a (numerator, denominator) tuple before and a struct after.
func poolData(f *fields) PoolData {
	data := f.nested(1, "data")
	assets := data.nested(3, "assets")
	fee := data.nested(7, "fee")
	return PoolData{
		Owner:         data.account(0, "owner"),
		Start:         data.optU32(1, "start"),
		End:           data.optU32(2, "end"),
		AssetA:        assets.u32(0, "0"),
		AssetB:        assets.u32(1, "1"),
		InitialWeight: data.u32(4, "initialWeight"),
		FinalWeight:   data.u32(5, "finalWeight"),
		WeightCurve:   data.enum(6, "weightCurve").Name,
		Fee: Fee{
			Numerator:   fee.u32(0, "numerator"),
			Denominator: fee.u32(1, "denominator"),
		},
		FeeCollector: data.account(8, "feeCollector"),
		RepayTarget:  data.balance(9, "repayTarget"),
	}
}

func poolCreated(f *fields) (Record, error) {
	rec := &PoolCreated{
		PoolID: f.accountID(0, "pool"),
		Data:   poolData(f),
	}
	return rec, f.Err()
}

func poolUpdated(f *fields) (Record, error) {
	rec := &PoolUpdated{
		PoolID: f.accountID(0, "pool"),
		Data:   poolData(f),
	}
	return rec, f.Err()
}

func liquidityChanged(dir LiquidityDirection) arm {
	return func(f *fields) (Record, error) {
		rec := &LiquidityChanged{
			Direction: dir,
			Who:       f.account(0, "who"),
			AssetA:    f.u32(1, "assetA"),
			AssetB:    f.u32(2, "assetB"),
			AmountA:   f.balance(3, "amountA"),
			AmountB:   f.balance(4, "amountB"),
		}
		return rec, f.Err()
	}
}

func sellExecuted(f *fields) (Record, error) {
	rec := &Trade{
		Side:      Sell,
		Who:       f.account(0, "who"),
		AssetIn:   f.u32(1, "assetIn"),
		AssetOut:  f.u32(2, "assetOut"),
		Amount:    f.balance(3, "amount"),
		Price:     f.balance(4, "salePrice"),
		FeeAsset:  f.u32(5, "feeAsset"),
		FeeAmount: f.balance(6, "feeAmount"),
	}
	return rec, f.Err()
}

// BuyExecuted lists the outgoing asset first.
func buyExecuted(f *fields) (Record, error) {
	rec := &Trade{
		Side:      Buy,
		Who:       f.account(0, "who"),
		AssetOut:  f.u32(1, "assetOut"),
		AssetIn:   f.u32(2, "assetIn"),
		Amount:    f.balance(3, "amount"),
		Price:     f.balance(4, "buyPrice"),
		FeeAsset:  f.u32(5, "feeAsset"),
		FeeAmount: f.balance(6, "feeAmount"),
	}
	return rec, f.Err()
}
