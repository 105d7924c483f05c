package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/model"
)

// Kind tags the type of record held at an address.
type Kind string

const (
	KindPool         Kind = "pool"
	KindDepositor    Kind = "depositor"
	KindMint         Kind = "mint"
	KindTokenAccount Kind = "token_account"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrKindMismatch = errors.New("account holds a different record kind")
	ErrReadOnly     = errors.New("write in read-only transaction")
)

// Record is a single entry of the account space.
type Record struct {
	Address common.Address
	Kind    Kind
	Data    json.RawMessage
}

// Tx is the account-space view of a single atomic operation.
type Tx interface {
	Load(ctx context.Context, addr common.Address) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
}

// Store executes operations against the account space. Update commits every
// Save made by fn, or none of them if fn returns an error.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close()
}

// Exists reports whether any record lives at addr.
func Exists(ctx context.Context, tx Tx, addr common.Address) (bool, error) {
	_, ok, err := tx.Load(ctx, addr)
	return ok, err
}

func GetPool(ctx context.Context, tx Tx, addr common.Address) (*model.Pool, error) {
	var pool model.Pool
	if err := get(ctx, tx, addr, KindPool, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func PutPool(ctx context.Context, tx Tx, addr common.Address, pool *model.Pool) error {
	return put(ctx, tx, addr, KindPool, pool)
}

func GetDepositor(ctx context.Context, tx Tx, addr common.Address) (*model.Depositor, error) {
	var depositor model.Depositor
	if err := get(ctx, tx, addr, KindDepositor, &depositor); err != nil {
		return nil, err
	}
	return &depositor, nil
}

func PutDepositor(ctx context.Context, tx Tx, addr common.Address, depositor *model.Depositor) error {
	return put(ctx, tx, addr, KindDepositor, depositor)
}

func GetMint(ctx context.Context, tx Tx, addr common.Address) (*model.Mint, error) {
	var mint model.Mint
	if err := get(ctx, tx, addr, KindMint, &mint); err != nil {
		return nil, err
	}
	return &mint, nil
}

func PutMint(ctx context.Context, tx Tx, mint *model.Mint) error {
	return put(ctx, tx, mint.Address, KindMint, mint)
}

func GetTokenAccount(ctx context.Context, tx Tx, addr common.Address) (*model.TokenAccount, error) {
	var account model.TokenAccount
	if err := get(ctx, tx, addr, KindTokenAccount, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func PutTokenAccount(ctx context.Context, tx Tx, account *model.TokenAccount) error {
	return put(ctx, tx, account.Address, KindTokenAccount, account)
}

func get(ctx context.Context, tx Tx, addr common.Address, kind Kind, out interface{}) error {
	rec, ok, err := tx.Load(ctx, addr)
	if err != nil {
		return fmt.Errorf("load %s %s: %w", kind, addr.Hex(), err)
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, addr.Hex(), ErrNotFound)
	}
	if rec.Kind != kind {
		return fmt.Errorf("%s holds %s, want %s: %w", addr.Hex(), rec.Kind, kind, ErrKindMismatch)
	}
	if err := json.Unmarshal(rec.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, addr.Hex(), err)
	}
	return nil
}

func put(ctx context.Context, tx Tx, addr common.Address, kind Kind, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, addr.Hex(), err)
	}
	if err := tx.Save(ctx, Record{Address: addr, Kind: kind, Data: data}); err != nil {
		return fmt.Errorf("save %s %s: %w", kind, addr.Hex(), err)
	}
	return nil
}
