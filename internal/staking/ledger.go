// Package staking implements the staking pool state machine: pool
// configuration, depositor bookkeeping and the custodial transfers that
// move principal and rewards.
package staking

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
	"stakingLedger/internal/token"
)

// RewardPolicy selects which lifecycle events pay the pool rate.
type RewardPolicy string

const (
	RewardPerEvent   RewardPolicy = "per-event"
	RewardOnWithdraw RewardPolicy = "on-withdraw"
)

func ParseRewardPolicy(value string) (RewardPolicy, error) {
	switch RewardPolicy(value) {
	case "", RewardPerEvent:
		return RewardPerEvent, nil
	case RewardOnWithdraw:
		return RewardOnWithdraw, nil
	default:
		return "", fmt.Errorf("unknown reward policy %q", value)
	}
}

func (p RewardPolicy) pays(op model.Op) bool {
	switch op {
	case model.OpWithdraw:
		return true
	case model.OpDeposit:
		return p != RewardOnWithdraw
	default:
		return false
	}
}

type Options struct {
	Logger  *zap.Logger
	Policy  RewardPolicy
	Journal storage.Journal
	Now     func() time.Time
}

// Ledger applies staking operations to an account space. Each operation is a
// single storage transaction.
type Ledger struct {
	store   storage.Store
	tokens  *token.Service
	program common.Address
	logger  *zap.Logger
	policy  RewardPolicy
	journal storage.Journal
	now     func() time.Time
}

func New(store storage.Store, tokens *token.Service, program common.Address, opts Options) *Ledger {
	l := &Ledger{
		store:   store,
		tokens:  tokens,
		program: program,
		logger:  opts.Logger,
		policy:  opts.Policy,
		journal: opts.Journal,
		now:     opts.Now,
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.policy == "" {
		l.policy = RewardPerEvent
	}
	if l.journal == nil {
		l.journal = storage.NopJournal{}
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.tokens == nil {
		l.tokens = token.NewService(l.logger)
	}
	return l
}

func (l *Ledger) Program() common.Address {
	return l.program
}

func (l *Ledger) Policy() RewardPolicy {
	return l.policy
}

// run executes fn in one transaction and records the outcome. event is
// filled in by fn.
func (l *Ledger) run(ctx context.Context, event *model.Event, fn func(tx storage.Tx) error) error {
	event.At = l.now().UTC()
	err := l.store.Update(ctx, fn)
	observe(*event, err)
	if err != nil {
		l.logger.Warn("operation rejected",
			zap.String("op", string(event.Op)),
			zap.String("pool", event.Pool.Hex()),
			zap.String("signer", event.Signer.Hex()),
			zap.Error(err),
		)
		return err
	}

	event.ID = uuid.NewString()
	l.logger.Info("operation committed",
		zap.String("id", event.ID),
		zap.String("op", string(event.Op)),
		zap.String("pool", event.Pool.Hex()),
		zap.Uint64("quantity", event.Quantity),
		zap.Uint64("reward", event.Reward),
	)
	if err := l.journal.PutEvents([]model.Event{*event}); err != nil {
		// The operation already committed; only the journal copy is lost.
		l.logger.Error("journal write failed", zap.String("id", event.ID), zap.Error(err))
	}
	return nil
}

func (l *Ledger) verify(addr common.Address, label string, bump uint8, seeds ...[]byte) error {
	if err := derive.Verify(addr, l.program, label, bump, seeds...); err != nil {
		return newError(CodeDerivationMismatch, label+" address", err)
	}
	return nil
}

// loadPool reads the pool at addr and checks that addr is its derivation.
func (l *Ledger) loadPool(ctx context.Context, tx storage.Tx, addr common.Address) (*model.Pool, error) {
	pool, err := storage.GetPool(ctx, tx, addr)
	if err != nil {
		return nil, recordError("load pool", err)
	}
	if err := l.verify(addr, derive.LabelPool, pool.Bump, pool.Key.Bytes()); err != nil {
		return nil, err
	}
	return pool, nil
}

// loadDepositor reads the depositor at addr and checks it belongs to pool.
func (l *Ledger) loadDepositor(ctx context.Context, tx storage.Tx, poolAddr common.Address, pool *model.Pool, addr common.Address) (*model.Depositor, error) {
	depositor, err := storage.GetDepositor(ctx, tx, addr)
	if err != nil {
		return nil, recordError("load depositor", err)
	}
	if err := l.verify(addr, derive.LabelDepositor, depositor.Bump, pool.Key.Bytes(), depositor.Owner.Bytes()); err != nil {
		return nil, err
	}
	if depositor.Pool != poolAddr {
		return nil, newError(CodeDerivationMismatch, "depositor belongs to another pool", nil)
	}
	return depositor, nil
}
