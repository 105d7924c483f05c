// Package token implements the asset registry the staking ledger moves
// funds through. Every call runs inside the caller's storage transaction.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// CreateMint registers a new asset type with zero supply.
func (s *Service) CreateMint(ctx context.Context, tx storage.Tx, addr, authority common.Address, decimals uint8) (*model.Mint, error) {
	if err := s.ensureFree(ctx, tx, addr); err != nil {
		return nil, err
	}
	mint := &model.Mint{Address: addr, Authority: authority, Decimals: decimals}
	if err := storage.PutMint(ctx, tx, mint); err != nil {
		return nil, err
	}
	s.logger.Debug("mint created", zap.String("mint", addr.Hex()), zap.Uint8("decimals", decimals))
	return mint, nil
}

// CreateAccount opens a zero-balance account of mint held by owner.
func (s *Service) CreateAccount(ctx context.Context, tx storage.Tx, addr, mint, owner common.Address) (*model.TokenAccount, error) {
	if err := s.ensureFree(ctx, tx, addr); err != nil {
		return nil, err
	}
	if _, err := s.Mint(ctx, tx, mint); err != nil {
		return nil, err
	}
	account := &model.TokenAccount{Address: addr, Mint: mint, Owner: owner}
	if err := storage.PutTokenAccount(ctx, tx, account); err != nil {
		return nil, err
	}
	s.logger.Debug("token account created",
		zap.String("account", addr.Hex()),
		zap.String("mint", mint.Hex()),
		zap.String("owner", owner.Hex()),
	)
	return account, nil
}

// MintTo issues new supply into dest. Only the mint authority may call it.
func (s *Service) MintTo(ctx context.Context, tx storage.Tx, mintAddr, dest, authority common.Address, amount uint64) error {
	mint, err := s.Mint(ctx, tx, mintAddr)
	if err != nil {
		return err
	}
	if mint.Authority != authority {
		return fmt.Errorf("mint %s authority %s: %w", mintAddr.Hex(), authority.Hex(), ErrOwnerMismatch)
	}
	account, err := s.Account(ctx, tx, dest)
	if err != nil {
		return err
	}
	if account.Mint != mintAddr {
		return fmt.Errorf("account %s holds %s: %w", dest.Hex(), account.Mint.Hex(), ErrMintMismatch)
	}

	supply, carry := bits.Add64(mint.Supply, amount, 0)
	if carry != 0 {
		return fmt.Errorf("mint %s supply: %w", mintAddr.Hex(), ErrOverflow)
	}
	// Balance cannot exceed supply, so it cannot overflow either.
	mint.Supply = supply
	account.Amount += amount

	if err := storage.PutMint(ctx, tx, mint); err != nil {
		return err
	}
	return storage.PutTokenAccount(ctx, tx, account)
}

// Transfer moves amount from one account to another of the same mint.
// authority must own the source account.
func (s *Service) Transfer(ctx context.Context, tx storage.Tx, from, to, authority common.Address, amount uint64) error {
	src, err := s.Account(ctx, tx, from)
	if err != nil {
		return err
	}
	if src.Owner != authority {
		return fmt.Errorf("account %s owner %s: %w", from.Hex(), authority.Hex(), ErrOwnerMismatch)
	}
	dst, err := s.Account(ctx, tx, to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("transfer %s -> %s: %w", src.Mint.Hex(), dst.Mint.Hex(), ErrMintMismatch)
	}
	if src.Amount < amount {
		return fmt.Errorf("account %s has %d, need %d: %w", from.Hex(), src.Amount, amount, ErrInsufficientFunds)
	}
	if from == to || amount == 0 {
		return nil
	}

	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return fmt.Errorf("account %s balance: %w", to.Hex(), ErrOverflow)
	}
	src.Amount -= amount
	dst.Amount = sum

	if err := storage.PutTokenAccount(ctx, tx, src); err != nil {
		return err
	}
	if err := storage.PutTokenAccount(ctx, tx, dst); err != nil {
		return err
	}

	s.logger.Debug("transfer",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("amount", amount),
	)
	return nil
}

func (s *Service) Balance(ctx context.Context, tx storage.Tx, addr common.Address) (uint64, error) {
	account, err := s.Account(ctx, tx, addr)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

func (s *Service) Mint(ctx context.Context, tx storage.Tx, addr common.Address) (*model.Mint, error) {
	mint, err := storage.GetMint(ctx, tx, addr)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrKindMismatch):
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrMintNotFound)
	case err != nil:
		return nil, err
	}
	return mint, nil
}

func (s *Service) Account(ctx context.Context, tx storage.Tx, addr common.Address) (*model.TokenAccount, error) {
	account, err := storage.GetTokenAccount(ctx, tx, addr)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrAccountNotFound)
	case errors.Is(err, storage.ErrKindMismatch):
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrNotTokenAccount)
	case err != nil:
		return nil, err
	}
	return account, nil
}

func (s *Service) ensureFree(ctx context.Context, tx storage.Tx, addr common.Address) error {
	exists, err := storage.Exists(ctx, tx, addr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrAccountExists)
	}
	return nil
}
