// Package derive computes capability keys: account addresses that are fully
// determined by a program id, a role label and a seed tuple.
//
// A derived address is the last 20 bytes of a Keccak-256 digest. The digest
// must not be a valid secp256k1 x-coordinate, so no private key can ever sign
// for a derived address. The bump byte is the salt searched to satisfy that.
package derive

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	domainTag = "stakingLedger/capability-key"
)

var (
	ErrOnCurve      = errors.New("derived key lies on the secp256k1 curve")
	ErrMismatch     = errors.New("address does not match its derivation")
	ErrNoValidBump  = errors.New("unable to find a valid bump")
	ErrSeedTooLong  = fmt.Errorf("seed longer than %d bytes", MaxSeedLen)
	ErrTooManySeeds = fmt.Errorf("more than %d seeds", MaxSeeds)
)

// Create derives the address for an explicit bump.
func Create(program common.Address, label string, bump uint8, seeds ...[]byte) (common.Address, error) {
	if len(seeds) > MaxSeeds {
		return common.Address{}, ErrTooManySeeds
	}
	if len(label) > MaxSeedLen {
		return common.Address{}, ErrSeedTooLong
	}

	parts := make([][]byte, 0, 2*len(seeds)+5)
	parts = append(parts, []byte{byte(len(label))}, []byte(label))
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return common.Address{}, ErrSeedTooLong
		}
		parts = append(parts, []byte{byte(len(seed))}, seed)
	}
	parts = append(parts, []byte{bump}, program.Bytes(), []byte(domainTag))

	digest := crypto.Keccak256(parts...)
	if onCurve(digest) {
		return common.Address{}, ErrOnCurve
	}
	return common.BytesToAddress(digest[12:]), nil
}

// Find returns the canonical address and bump: the highest bump whose
// derivation is off the curve.
func Find(program common.Address, label string, seeds ...[]byte) (common.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := Create(program, label, uint8(bump), seeds...)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return common.Address{}, 0, err
		}
	}
	return common.Address{}, 0, ErrNoValidBump
}

// Verify re-derives the address and reports ErrMismatch when it differs.
func Verify(addr common.Address, program common.Address, label string, bump uint8, seeds ...[]byte) error {
	expected, err := Create(program, label, bump, seeds...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	if expected != addr {
		return fmt.Errorf("%w: %s (label %q) expected %s", ErrMismatch, addr.Hex(), label, expected.Hex())
	}
	return nil
}

func onCurve(digest []byte) bool {
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, digest...)
	_, err := crypto.DecompressPubkey(compressed)
	return err == nil
}
