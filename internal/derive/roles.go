package derive

import "github.com/ethereum/go-ethereum/common"

// Role labels.
const (
	LabelPool           = "pool"
	LabelPrincipalVault = "principal-vault"
	LabelRewardVault    = "reward-vault"
	LabelDepositor      = "depositor"
)

func PoolAddress(program, key common.Address, bump uint8) (common.Address, error) {
	return Create(program, LabelPool, bump, key.Bytes())
}

func PrincipalVaultAddress(program, key common.Address, bump uint8) (common.Address, error) {
	return Create(program, LabelPrincipalVault, bump, key.Bytes())
}

func RewardVaultAddress(program, key common.Address, bump uint8) (common.Address, error) {
	return Create(program, LabelRewardVault, bump, key.Bytes())
}

func DepositorAddress(program, key, owner common.Address, bump uint8) (common.Address, error) {
	return Create(program, LabelDepositor, bump, key.Bytes(), owner.Bytes())
}

// PoolKeys holds every canonical address a pool needs at initialization.
type PoolKeys struct {
	Pool               common.Address
	PoolBump           uint8
	PrincipalVault     common.Address
	PrincipalVaultBump uint8
	RewardVault        common.Address
	RewardVaultBump    uint8
}

// FindPoolKeys derives the canonical pool and vault addresses for key.
func FindPoolKeys(program, key common.Address) (PoolKeys, error) {
	var (
		keys PoolKeys
		err  error
	)
	keys.Pool, keys.PoolBump, err = Find(program, LabelPool, key.Bytes())
	if err != nil {
		return PoolKeys{}, err
	}
	keys.PrincipalVault, keys.PrincipalVaultBump, err = Find(program, LabelPrincipalVault, key.Bytes())
	if err != nil {
		return PoolKeys{}, err
	}
	keys.RewardVault, keys.RewardVaultBump, err = Find(program, LabelRewardVault, key.Bytes())
	if err != nil {
		return PoolKeys{}, err
	}
	return keys, nil
}

// FindDepositor derives the canonical depositor address for owner in the pool seeded by key.
func FindDepositor(program, key, owner common.Address) (common.Address, uint8, error) {
	return Find(program, LabelDepositor, key.Bytes(), owner.Bytes())
}
