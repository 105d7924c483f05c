package model

import "github.com/ethereum/go-ethereum/common"

// Depositor is a participant's staked principal in one pool.
type Depositor struct {
	Pool      common.Address `json:"pool"`
	Owner     common.Address `json:"owner"`
	Bump      uint8          `json:"bump"`
	Amount    uint64         `json:"amount"`
	TimeStart int64          `json:"time_start"`
	TimeLast  int64          `json:"time_last"`
}
