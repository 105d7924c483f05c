package staking

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

func (l *Ledger) Pool(ctx context.Context, addr common.Address) (*model.Pool, error) {
	var pool *model.Pool
	err := l.store.View(ctx, func(tx storage.Tx) error {
		var err error
		pool, err = storage.GetPool(ctx, tx, addr)
		return recordError("load pool", err)
	})
	return pool, err
}

func (l *Ledger) Depositor(ctx context.Context, addr common.Address) (*model.Depositor, error) {
	var depositor *model.Depositor
	err := l.store.View(ctx, func(tx storage.Tx) error {
		var err error
		depositor, err = storage.GetDepositor(ctx, tx, addr)
		return recordError("load depositor", err)
	})
	return depositor, err
}

func (l *Ledger) TokenAccount(ctx context.Context, addr common.Address) (*model.TokenAccount, error) {
	var account *model.TokenAccount
	err := l.store.View(ctx, func(tx storage.Tx) error {
		var err error
		account, err = l.tokens.Account(ctx, tx, addr)
		return tokenError("load token account", err)
	})
	return account, err
}

func (l *Ledger) Mint(ctx context.Context, addr common.Address) (*model.Mint, error) {
	var mint *model.Mint
	err := l.store.View(ctx, func(tx storage.Tx) error {
		var err error
		mint, err = l.tokens.Mint(ctx, tx, addr)
		return tokenError("load mint", err)
	})
	return mint, err
}
