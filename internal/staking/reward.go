package staking

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

// payReward transfers the live pool rate from the reward vault when the
// policy pays for op. The pool address is the vault authority.
func (l *Ledger) payReward(ctx context.Context, tx storage.Tx, op model.Op, poolAddr common.Address, pool *model.Pool, dest common.Address) (uint64, error) {
	if !l.policy.pays(op) || pool.Rate == 0 {
		return 0, nil
	}
	if err := l.tokens.Transfer(ctx, tx, pool.RewardVault, dest, poolAddr, pool.Rate); err != nil {
		return 0, tokenError("pay reward", err)
	}
	return pool.Rate, nil
}
