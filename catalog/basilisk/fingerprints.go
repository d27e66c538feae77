package basilisk

import (
	"fmt"

	"github.com/basilisk-nexus/eventnexus/common"
)

// Fingerprints as reported by runtime metadata for each release that
// changed an event's layout.
var fingerprints = map[string]string{
	"LBP.PoolCreated@V16": "0x282485b153aa38c0e315e837339b09d0491092d4625ae5bde69f6c8dc8e86942",
	"LBP.PoolCreated@V25": "0x00992dd6a18228f307ac801d3b35ef2082c0c19f44c7a53bc43787484585753c",
	"LBP.PoolCreated@V38": "0xc560ee67e8255cb72bd1101e615310c3794c35a4ff657cb181826edb26f0784e",
	"LBP.PoolCreated@V55": "0x74d403d8d2ea382bdf0d1cf7a552e73505bd95fbc38b43c6968a5dd621a3dc42",
	"LBP.PoolCreated@V81": "0x061b84fbc9c0eb9b7c13b1e9b7c9f5d565b8d2bea550d516cbe02e59ce67a279",

	"LBP.PoolUpdated@V16": "0x0b9bb0d31c3dae3dff5bfe5532d0807bd98d72643a0c732cbed61987a4013f17",
	"LBP.PoolUpdated@V25": "0x0b964243c1adca1257dbca35947fb46db3e5bcebf1721d6b12304b0e9249eae5",
	"LBP.PoolUpdated@V38": "0xc76746849819076ddeb356cca61e66d1b2bc27314d76964f1db22a0d93c7ad5b",
	"LBP.PoolUpdated@V55": "0x4575947709495769bb91522219804b552ee1ef7514cf3628c2ae85deda917576",
	"LBP.PoolUpdated@V81": "0xc204b4e2e80504250b73c345f5e51260c1ed0b4121cf45ebac926e299d648dcc",

	"LBP.LiquidityAdded@V16":   "0xed9677ae98daa902f0901268bdbd7d43e60d37fd5f876b2a9b080ac300c2400e",
	"LBP.LiquidityAdded@V55":   "0x319d3c32baa7b85e4bf6177cda3864b1077954d7ad458c6a48856e32a643dde2",
	"LBP.LiquidityRemoved@V16": "0xd1fef503d21063725b3f5eb0d8b91917844baff8028066d55797d2ea175c5d0b",
	"LBP.LiquidityRemoved@V55": "0x9af8f50d0ffb57be06d9bf747fbda4bc502c1564b4598a27c6958b121cb70972",
	"LBP.SellExecuted@V16":     "0xb0414bd4f54620ce8a3fff91ef2481d19cf22978a358bef20dc478962def7b16",
	"LBP.SellExecuted@V55":     "0xafba6b7317816e3021f508db97c7e0478675956d20b2466331563375b929d005",
	"LBP.BuyExecuted@V16":      "0x11e83bfa3316fbed202edcc5ba7d876ab53a9035edffac9de901d1c57f584264",
	"LBP.BuyExecuted@V55":      "0xd403285e1dbff0901a6f45024df755f86496d4dc363268292c5b691577c6099e",

	"XYK.PoolCreated@V16": "0xbb671833f2a7f05f7e4cf72ef1df069f678eefed05cb17cf4f391ccdfd34cfc4",
	"XYK.PoolCreated@V25": "0x0187109d90b25924998ec461da028fab3d96fd2ae70f92d39315734eef41b086",
	"XYK.PoolCreated@V55": "0x04c764aecd5d6e6d89a7aecf24c63d371fb3c2405e1eb97ef88fd8137141a0d5",

	"Tokens.Transfer@V16":   "0xaf61df9790f90d7b5a39adb1c15831cc0d55b26ba40be541b3a06a1f8b8f2edd",
	"Tokens.Transfer@V55":   "0xe83ba626bde56ff66231d78a5806fe004369f5df17d7768f47a49f84efb981ec",
	"Balances.Transfer@V16": "0x30ff4e02b02227e18ce00d78e8bb85e76380114104c868f52a615bc99d47d2b6",
	"Balances.Transfer@V55": "0x879867645da021049c412940624e1510b99da8a93e1de39ec0b517b8ea5e638d",

	"AssetRegistry.Registered@V16": "0x014999a471339ec03015db66d0e8b07d036e2a80d961f1e50744cbe3279c83bd",
	"AssetRegistry.Registered@V55": "0xafc91556640cfebaeef62e850c29028e1445c59750f7b527eaaa33db9eb455bd",
	"AssetRegistry.Registered@V81": "0xff4ae19113411f4b9ce0d99a454f1b12437f3e50385b4346eb022e1ce2ab86e7",

	"Vesting.VestingScheduleAdded@V16": "0x2360756682de00a18a3c5e4b5ba39d437ad74fe8bbafb97e43ac34783b9e7e03",
	"Vesting.VestingScheduleAdded@V55": "0x8589f2cfc6c087e50e5447cf0f2a4257cd1fb479ad0c07eec63dff8ade56f8c5",
}

func fingerprint(kind common.EventKind, tag string) common.Fingerprint {
	key := kind.String() + "@" + tag
	s, ok := fingerprints[key]
	if !ok {
		panic(fmt.Sprintf("basilisk: no fingerprint for %s", key))
	}
	return common.MustParseFingerprint(s)
}
