package staking

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

type RegisterDepositorRequest struct {
	Caller    common.Address
	Pool      common.Address
	Depositor common.Address
	Bump      uint8
}

// RegisterDepositor creates the caller's empty depositor record in a pool.
func (l *Ledger) RegisterDepositor(ctx context.Context, req RegisterDepositorRequest) (*model.Depositor, error) {
	var depositor *model.Depositor
	owner := req.Caller
	event := model.Event{Op: model.OpRegisterDepositor, Pool: req.Pool, Signer: req.Caller, Depositor: &req.Depositor}

	err := l.run(ctx, &event, func(tx storage.Tx) error {
		pool, err := l.loadPool(ctx, tx, req.Pool)
		if err != nil {
			return err
		}
		event.Cap, event.Rate = pool.Cap, pool.Rate
		if err := l.verify(req.Depositor, derive.LabelDepositor, req.Bump, pool.Key.Bytes(), owner.Bytes()); err != nil {
			return err
		}

		exists, err := storage.Exists(ctx, tx, req.Depositor)
		if err != nil {
			return err
		}
		if exists {
			return newError(CodeAlreadyInitialized, "depositor "+req.Depositor.Hex(), nil)
		}

		depositor = &model.Depositor{Pool: req.Pool, Owner: owner, Bump: req.Bump}
		return storage.PutDepositor(ctx, tx, req.Depositor, depositor)
	})
	if err != nil {
		return nil, err
	}
	return depositor, nil
}

// StakeRequest carries the accounts and quantity for Deposit and Withdraw.
type StakeRequest struct {
	Caller           common.Address
	Pool             common.Address
	Depositor        common.Address
	PrincipalAccount common.Address
	RewardAccount    common.Address
	PrincipalVault   common.Address
	RewardVault      common.Address
	Quantity         uint64
}

// StakeResult reports the state after a deposit or withdraw.
type StakeResult struct {
	Depositor *model.Depositor
	Reward    uint64
}

// Deposit moves Quantity of principal into the pool vault and pays the reward
// due under the ledger's policy.
func (l *Ledger) Deposit(ctx context.Context, req StakeRequest) (*StakeResult, error) {
	return l.stake(ctx, model.OpDeposit, req)
}

// Withdraw returns Quantity of staked principal to the caller and pays the
// reward due under the ledger's policy.
func (l *Ledger) Withdraw(ctx context.Context, req StakeRequest) (*StakeResult, error) {
	return l.stake(ctx, model.OpWithdraw, req)
}

func (l *Ledger) stake(ctx context.Context, op model.Op, req StakeRequest) (*StakeResult, error) {
	var result StakeResult
	event := model.Event{Op: op, Pool: req.Pool, Signer: req.Caller, Depositor: &req.Depositor, Quantity: req.Quantity}

	err := l.run(ctx, &event, func(tx storage.Tx) error {
		if req.Quantity == 0 {
			return newError(CodeInvalidArgument, "quantity must be positive", nil)
		}

		pool, err := l.loadPool(ctx, tx, req.Pool)
		if err != nil {
			return err
		}
		event.Cap, event.Rate = pool.Cap, pool.Rate

		depositor, err := l.loadDepositor(ctx, tx, req.Pool, pool, req.Depositor)
		if err != nil {
			return err
		}
		if depositor.Owner != req.Caller {
			return newError(CodeUnauthorized, "caller does not own the depositor record", nil)
		}
		if req.PrincipalVault != pool.PrincipalVault {
			return newError(CodeDerivationMismatch, "principal vault "+req.PrincipalVault.Hex(), nil)
		}
		if req.RewardVault != pool.RewardVault {
			return newError(CodeDerivationMismatch, "reward vault "+req.RewardVault.Hex(), nil)
		}
		if err := l.checkUserAccount(ctx, tx, req.PrincipalAccount, pool.PrincipalMint, req.Caller); err != nil {
			return err
		}
		if err := l.checkUserAccount(ctx, tx, req.RewardAccount, pool.RewardMint, req.Caller); err != nil {
			return err
		}

		now := l.now().Unix()
		switch op {
		case model.OpDeposit:
			total, carry := bits.Add64(depositor.Amount, req.Quantity, 0)
			if carry != 0 {
				return newError(CodeOverflow, "staked amount", nil)
			}
			if total > pool.Cap {
				return newError(CodeCapExceeded, fmt.Sprintf("%d exceeds cap %d", total, pool.Cap), nil)
			}
			if err := l.tokens.Transfer(ctx, tx, req.PrincipalAccount, pool.PrincipalVault, req.Caller, req.Quantity); err != nil {
				return tokenError("transfer principal in", err)
			}
			depositor.Amount = total
			depositor.TimeStart = now
		case model.OpWithdraw:
			if req.Quantity > depositor.Amount {
				return newError(CodeInsufficientStakedBalance, fmt.Sprintf("%d staked, %d requested", depositor.Amount, req.Quantity), nil)
			}
			if err := l.tokens.Transfer(ctx, tx, pool.PrincipalVault, req.PrincipalAccount, req.Pool, req.Quantity); err != nil {
				return tokenError("transfer principal out", err)
			}
			depositor.Amount -= req.Quantity
		}

		reward, err := l.payReward(ctx, tx, op, req.Pool, pool, req.RewardAccount)
		if err != nil {
			return err
		}
		depositor.TimeLast = now

		if err := storage.PutDepositor(ctx, tx, req.Depositor, depositor); err != nil {
			return err
		}
		event.Reward = reward
		result = StakeResult{Depositor: depositor, Reward: reward}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// checkUserAccount requires addr to be a token account of mint owned by owner.
func (l *Ledger) checkUserAccount(ctx context.Context, tx storage.Tx, addr, mint, owner common.Address) error {
	account, err := l.tokens.Account(ctx, tx, addr)
	if err != nil {
		return tokenError("load token account", err)
	}
	if account.Mint != mint {
		return newError(CodeInvalidAccount, fmt.Sprintf("account %s holds mint %s, want %s", addr.Hex(), account.Mint.Hex(), mint.Hex()), nil)
	}
	if account.Owner != owner {
		return newError(CodeUnauthorized, fmt.Sprintf("account %s is not owned by the caller", addr.Hex()), nil)
	}
	return nil
}
