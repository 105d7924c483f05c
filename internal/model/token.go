package model

import "github.com/ethereum/go-ethereum/common"

// Mint describes an asset type held by the token ledger.
type Mint struct {
	Address   common.Address `json:"address"`
	Authority common.Address `json:"authority"`
	Decimals  uint8          `json:"decimals"`
	Supply    uint64         `json:"supply"`
}

// TokenAccount holds a balance of a single mint for an owner.
type TokenAccount struct {
	Address common.Address `json:"address"`
	Mint    common.Address `json:"mint"`
	Owner   common.Address `json:"owner"`
	Amount  uint64         `json:"amount"`
}
