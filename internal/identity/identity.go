// Package identity loads the secp256k1 key that a CLI caller acts as.
package identity

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNoKey = errors.New("no key configured")

type Identity struct {
	key     *ecdsa.PrivateKey
	Address common.Address
}

func Generate() (*Identity, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return fromKey(key), nil
}

// FromHex parses a hex private key with or without a 0x prefix.
func FromHex(value string) (*Identity, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	return fromKey(key), nil
}

// Load reads a key file written by Save.
func Load(path string) (*Identity, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", path, err)
	}
	return fromKey(key), nil
}

// Resolve accepts either a key file path or a hex private key.
func Resolve(value string) (*Identity, error) {
	if value == "" {
		return nil, ErrNoKey
	}
	if stat, err := os.Stat(value); err == nil && !stat.IsDir() {
		return Load(value)
	}
	return FromHex(value)
}

func (i *Identity) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}
	}
	if err := crypto.SaveECDSA(path, i.key); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	return nil
}

// PrivateHex returns the 0x-prefixed private key.
func (i *Identity) PrivateHex() string {
	return hexutil.Encode(crypto.FromECDSA(i.key))
}

func fromKey(key *ecdsa.PrivateKey) *Identity {
	return &Identity{key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}
