package wallet

import "fmt"

var networkNames = map[uint64]string{
	1:        "mainnet",
	5:        "goerli",
	17000:    "holesky",
	11155111: "sepolia",
	31337:    "anvil",
	1337:     "dev",
}

// NetworkName returns the usual name of a chain, or chain-<id> when unknown.
func NetworkName(chainID uint64) string {
	if name, ok := networkNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("chain-%d", chainID)
}
