package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Op names a ledger operation.
type Op string

const (
	OpInitialize        Op = "initialize"
	OpConfigure         Op = "configure"
	OpConfigureSigner   Op = "configure_signer"
	OpRegisterDepositor Op = "register_depositor"
	OpDeposit           Op = "deposit"
	OpWithdraw          Op = "withdraw"
)

// Event is the journal entry written after an operation commits.
type Event struct {
	ID        string          `json:"id"`
	Op        Op              `json:"op"`
	Pool      common.Address  `json:"pool"`
	Signer    common.Address  `json:"signer"`
	Depositor *common.Address `json:"depositor,omitempty"`
	Quantity  uint64          `json:"quantity,omitempty"`
	Reward    uint64          `json:"reward,omitempty"`
	Cap       uint64          `json:"cap"`
	Rate      uint64          `json:"rate"`
	NewSigner *common.Address `json:"new_signer,omitempty"`
	At        time.Time       `json:"at"`
}
