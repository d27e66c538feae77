package common

import "fmt"

// ChainName is a known Substrate network whose events we decode.
type ChainName string

const (
	ChainBasilisk ChainName = "basilisk"
	ChainHydraDX  ChainName = "hydradx"
	ChainRococo   ChainName = "basilisk-rococo"
)

// ss58Prefixes are the registered SS58 network prefixes.
var ss58Prefixes = map[ChainName]uint16{
	ChainBasilisk: 10041,
	ChainHydraDX:  63,
	ChainRococo:   42,
}

// SS58Prefix returns the registered prefix of a known chain.
func (c ChainName) SS58Prefix() (uint16, error) {
	p, ok := ss58Prefixes[c]
	if !ok {
		return 0, fmt.Errorf("unknown chain %q", c)
	}
	return p, nil
}
