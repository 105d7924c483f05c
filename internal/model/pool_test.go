package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPoolJSONRoundTrip(t *testing.T) {
	original := Pool{
		Key:                common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Bump:               254,
		Signer:             common.HexToAddress("0x2222222222222222222222222222222222222222"),
		PrincipalMint:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
		PrincipalVault:     common.HexToAddress("0x4444444444444444444444444444444444444444"),
		PrincipalVaultBump: 253,
		RewardMint:         common.HexToAddress("0x5555555555555555555555555555555555555555"),
		RewardVault:        common.HexToAddress("0x6666666666666666666666666666666666666666"),
		RewardVaultBump:    255,
		Cap:                2,
		Rate:               173612,
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Pool
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestDepositorJSONAddressFields(t *testing.T) {
	payload := Depositor{
		Pool:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Owner:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Amount: 1,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["pool"].(string); !ok {
		t.Fatalf("pool should be string")
	}
	if _, ok := decoded["owner"].(string); !ok {
		t.Fatalf("owner should be string")
	}
}
