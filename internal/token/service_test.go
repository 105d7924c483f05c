package token

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"stakingLedger/internal/storage"
	"stakingLedger/internal/storage/memory"
)

var (
	mintA     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	mintB     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	authority = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	aliceA    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	bobA      = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	aliceB    = common.HexToAddress("0x00000000000000000000000000000000000000d3")
)

func setup(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	svc := NewService(nil)
	store := memory.New()
	err := store.Update(ctx, func(tx storage.Tx) error {
		if _, err := svc.CreateMint(ctx, tx, mintA, authority, 9); err != nil {
			return err
		}
		if _, err := svc.CreateMint(ctx, tx, mintB, authority, 6); err != nil {
			return err
		}
		if _, err := svc.CreateAccount(ctx, tx, aliceA, mintA, alice); err != nil {
			return err
		}
		if _, err := svc.CreateAccount(ctx, tx, bobA, mintA, bob); err != nil {
			return err
		}
		if _, err := svc.CreateAccount(ctx, tx, aliceB, mintB, alice); err != nil {
			return err
		}
		return svc.MintTo(ctx, tx, mintA, aliceA, authority, 100)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return svc, store
}

func balance(t *testing.T, svc *Service, store storage.Store, addr common.Address) uint64 {
	t.Helper()
	var amount uint64
	err := store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		amount, err = svc.Balance(context.Background(), tx, addr)
		return err
	})
	if err != nil {
		t.Fatalf("balance %s: %v", addr.Hex(), err)
	}
	return amount
}

func TestTransferMovesFunds(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx storage.Tx) error {
		return svc.Transfer(ctx, tx, aliceA, bobA, alice, 40)
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balance(t, svc, store, aliceA); got != 60 {
		t.Fatalf("alice balance = %d, want 60", got)
	}
	if got := balance(t, svc, store, bobA); got != 40 {
		t.Fatalf("bob balance = %d, want 40", got)
	}
}

func TestTransferErrors(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		from, to  common.Address
		authority common.Address
		amount    uint64
		want      error
	}{
		{name: "wrong owner", from: aliceA, to: bobA, authority: bob, amount: 1, want: ErrOwnerMismatch},
		{name: "insufficient", from: aliceA, to: bobA, authority: alice, amount: 101, want: ErrInsufficientFunds},
		{name: "mint mismatch", from: aliceA, to: aliceB, authority: alice, amount: 1, want: ErrMintMismatch},
		{name: "missing dest", from: aliceA, to: common.HexToAddress("0x99"), authority: alice, amount: 1, want: ErrAccountNotFound},
		{name: "mint is not an account", from: aliceA, to: mintA, authority: alice, amount: 1, want: ErrNotTokenAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Update(ctx, func(tx storage.Tx) error {
				return svc.Transfer(ctx, tx, tt.from, tt.to, tt.authority, tt.amount)
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := balance(t, svc, store, aliceA); got != 100 {
		t.Fatalf("alice balance changed to %d", got)
	}
}

func TestMintToChecks(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx storage.Tx) error {
		return svc.MintTo(ctx, tx, mintA, aliceA, alice, 1)
	})
	if !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected owner mismatch, got %v", err)
	}

	err = store.Update(ctx, func(tx storage.Tx) error {
		return svc.MintTo(ctx, tx, mintB, aliceA, authority, 1)
	})
	if !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("expected mint mismatch, got %v", err)
	}

	err = store.Update(ctx, func(tx storage.Tx) error {
		return svc.MintTo(ctx, tx, mintA, bobA, authority, math.MaxUint64)
	})
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestCreateRejectsTakenAddress(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx storage.Tx) error {
		_, err := svc.CreateAccount(ctx, tx, aliceA, mintA, bob)
		return err
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}

	err = store.Update(ctx, func(tx storage.Tx) error {
		_, err := svc.CreateMint(ctx, tx, aliceA, authority, 0)
		return err
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}

	err = store.Update(ctx, func(tx storage.Tx) error {
		_, err := svc.CreateAccount(ctx, tx, common.HexToAddress("0x77"), common.HexToAddress("0x78"), bob)
		return err
	})
	if !errors.Is(err, ErrMintNotFound) {
		t.Fatalf("expected mint not found, got %v", err)
	}
}
