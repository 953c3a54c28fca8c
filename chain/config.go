package chain

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
)

// Config locates one BountyPool deployment. The same client works against any
// EVM chain carrying the contract; run two clients with two prefixes to cover
// two chains.
type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex, with or without 0x prefix
	ChainID         *big.Int
}

// LoadConfig reads a deployment config from <prefix>_RPC_URL, <prefix>_CONTRACT,
// <prefix>_PRIVATE_KEY and <prefix>_CHAIN_ID.
func LoadConfig(prefix string) (Config, error) {
	cfg := Config{
		RPCURL:          os.Getenv(prefix + "_RPC_URL"),
		ContractAddress: os.Getenv(prefix + "_CONTRACT"),
		PrivateKey:      os.Getenv(prefix + "_PRIVATE_KEY"),
	}
	if cfg.RPCURL == "" || cfg.ContractAddress == "" || cfg.PrivateKey == "" {
		return Config{}, fmt.Errorf("missing %s_RPC_URL, %s_CONTRACT or %s_PRIVATE_KEY", prefix, prefix, prefix)
	}

	chainIDStr := os.Getenv(prefix + "_CHAIN_ID")
	if chainIDStr == "" {
		return Config{}, fmt.Errorf("missing %s_CHAIN_ID", prefix)
	}
	chainID, err := strconv.ParseInt(chainIDStr, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s_CHAIN_ID %q: %w", prefix, chainIDStr, err)
	}
	cfg.ChainID = big.NewInt(chainID)

	return cfg, nil
}
