package staking

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

type InitializeRequest struct {
	Caller             common.Address
	Key                common.Address
	Cap                uint64
	Rate               uint64
	Pool               common.Address
	PoolBump           uint8
	PrincipalMint      common.Address
	PrincipalVault     common.Address
	PrincipalVaultBump uint8
	RewardMint         common.Address
	RewardVault        common.Address
	RewardVaultBump    uint8
}

// Initialize creates the pool record and both vaults. The caller becomes the
// pool signer.
func (l *Ledger) Initialize(ctx context.Context, req InitializeRequest) (*model.Pool, error) {
	var pool *model.Pool
	event := model.Event{Op: model.OpInitialize, Pool: req.Pool, Signer: req.Caller, Cap: req.Cap, Rate: req.Rate}

	err := l.run(ctx, &event, func(tx storage.Tx) error {
		seed := req.Key.Bytes()
		if err := l.verify(req.Pool, derive.LabelPool, req.PoolBump, seed); err != nil {
			return err
		}
		if err := l.verify(req.PrincipalVault, derive.LabelPrincipalVault, req.PrincipalVaultBump, seed); err != nil {
			return err
		}
		if err := l.verify(req.RewardVault, derive.LabelRewardVault, req.RewardVaultBump, seed); err != nil {
			return err
		}

		for _, addr := range []common.Address{req.Pool, req.PrincipalVault, req.RewardVault} {
			exists, err := storage.Exists(ctx, tx, addr)
			if err != nil {
				return err
			}
			if exists {
				return newError(CodeAlreadyInitialized, addr.Hex(), nil)
			}
		}

		if _, err := l.tokens.CreateAccount(ctx, tx, req.PrincipalVault, req.PrincipalMint, req.Pool); err != nil {
			return tokenError("create principal vault", err)
		}
		if _, err := l.tokens.CreateAccount(ctx, tx, req.RewardVault, req.RewardMint, req.Pool); err != nil {
			return tokenError("create reward vault", err)
		}

		pool = &model.Pool{
			Key:                req.Key,
			Bump:               req.PoolBump,
			Signer:             req.Caller,
			PrincipalMint:      req.PrincipalMint,
			PrincipalVault:     req.PrincipalVault,
			PrincipalVaultBump: req.PrincipalVaultBump,
			RewardMint:         req.RewardMint,
			RewardVault:        req.RewardVault,
			RewardVaultBump:    req.RewardVaultBump,
			Cap:                req.Cap,
			Rate:               req.Rate,
		}
		return storage.PutPool(ctx, tx, req.Pool, pool)
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

type ConfigureRequest struct {
	Caller common.Address
	Pool   common.Address
	Cap    uint64
	Rate   uint64
}

// Configure replaces the pool cap and rate. Existing depositors are not
// touched even if they now hold more than the new cap.
func (l *Ledger) Configure(ctx context.Context, req ConfigureRequest) (*model.Pool, error) {
	var pool *model.Pool
	event := model.Event{Op: model.OpConfigure, Pool: req.Pool, Signer: req.Caller, Cap: req.Cap, Rate: req.Rate}

	err := l.run(ctx, &event, func(tx storage.Tx) error {
		var err error
		pool, err = l.authorizedPool(ctx, tx, req.Pool, req.Caller)
		if err != nil {
			return err
		}
		pool.Cap = req.Cap
		pool.Rate = req.Rate
		return storage.PutPool(ctx, tx, req.Pool, pool)
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

type ConfigureSignerRequest struct {
	Caller    common.Address
	Pool      common.Address
	NewSigner common.Address
}

// ConfigureSigner hands pool administration to NewSigner in one step.
func (l *Ledger) ConfigureSigner(ctx context.Context, req ConfigureSignerRequest) (*model.Pool, error) {
	var pool *model.Pool
	newSigner := req.NewSigner
	event := model.Event{Op: model.OpConfigureSigner, Pool: req.Pool, Signer: req.Caller, NewSigner: &newSigner}

	err := l.run(ctx, &event, func(tx storage.Tx) error {
		var err error
		pool, err = l.authorizedPool(ctx, tx, req.Pool, req.Caller)
		if err != nil {
			return err
		}
		if req.NewSigner == (common.Address{}) {
			return newError(CodeInvalidArgument, "new signer is the zero address", nil)
		}
		event.Cap, event.Rate = pool.Cap, pool.Rate
		pool.Signer = req.NewSigner
		return storage.PutPool(ctx, tx, req.Pool, pool)
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (l *Ledger) authorizedPool(ctx context.Context, tx storage.Tx, addr, caller common.Address) (*model.Pool, error) {
	pool, err := l.loadPool(ctx, tx, addr)
	if err != nil {
		return nil, err
	}
	if pool.Signer != caller {
		return nil, newError(CodeUnauthorized, "caller is not the pool signer", nil)
	}
	return pool, nil
}
