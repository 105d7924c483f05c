package derive

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testProgram = common.HexToAddress("0x00000000000000000000000000000000005afe01")
	testKey     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testOwner   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestFindDeterministic(t *testing.T) {
	a1, b1, err := Find(testProgram, LabelPool, testKey.Bytes())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	a2, b2, err := Find(testProgram, LabelPool, testKey.Bytes())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a1 != a2 || b1 != b2 {
		t.Fatalf("derivation not deterministic: %s/%d != %s/%d", a1.Hex(), b1, a2.Hex(), b2)
	}

	again, err := Create(testProgram, LabelPool, b1, testKey.Bytes())
	if err != nil {
		t.Fatalf("create with canonical bump: %v", err)
	}
	if again != a1 {
		t.Fatalf("create mismatch: %s != %s", again.Hex(), a1.Hex())
	}
}

func TestFindReturnsHighestValidBump(t *testing.T) {
	_, bump, err := Find(testProgram, LabelDepositor, testKey.Bytes(), testOwner.Bytes())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for b := 255; b > int(bump); b-- {
		if _, err := Create(testProgram, LabelDepositor, uint8(b), testKey.Bytes(), testOwner.Bytes()); !errors.Is(err, ErrOnCurve) {
			t.Fatalf("bump %d above canonical %d should be on curve, got %v", b, bump, err)
		}
	}
}

func TestRolesAreDistinct(t *testing.T) {
	keys, err := FindPoolKeys(testProgram, testKey)
	if err != nil {
		t.Fatalf("find pool keys: %v", err)
	}
	depositor, _, err := FindDepositor(testProgram, testKey, testOwner)
	if err != nil {
		t.Fatalf("find depositor: %v", err)
	}

	seen := map[common.Address]string{}
	for name, addr := range map[string]common.Address{
		"pool":            keys.Pool,
		"principal-vault": keys.PrincipalVault,
		"reward-vault":    keys.RewardVault,
		"depositor":       depositor,
	} {
		if other, ok := seen[addr]; ok {
			t.Fatalf("%s collides with %s", name, other)
		}
		seen[addr] = name
	}
}

func TestProgramScopesDerivation(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000005afe02")
	a, _, err := Find(testProgram, LabelPool, testKey.Bytes())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	b, _, err := Find(other, LabelPool, testKey.Bytes())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a == b {
		t.Fatalf("different programs derived the same address")
	}
}

func TestVerify(t *testing.T) {
	addr, bump, err := FindDepositor(testProgram, testKey, testOwner)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := Verify(addr, testProgram, LabelDepositor, bump, testKey.Bytes(), testOwner.Bytes()); err != nil {
		t.Fatalf("verify canonical: %v", err)
	}

	stranger := common.HexToAddress("0x3333333333333333333333333333333333333333")
	err = Verify(addr, testProgram, LabelDepositor, bump, testKey.Bytes(), stranger.Bytes())
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected mismatch for other owner, got %v", err)
	}
}

func TestCreateRejectsLongSeeds(t *testing.T) {
	long := make([]byte, MaxSeedLen+1)
	if _, err := Create(testProgram, LabelPool, 255, long); !errors.Is(err, ErrSeedTooLong) {
		t.Fatalf("expected ErrSeedTooLong, got %v", err)
	}
	seeds := make([][]byte, MaxSeeds+1)
	if _, err := Create(testProgram, LabelPool, 255, seeds...); !errors.Is(err, ErrTooManySeeds) {
		t.Fatalf("expected ErrTooManySeeds, got %v", err)
	}
}
