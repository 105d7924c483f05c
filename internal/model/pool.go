package model

import "github.com/ethereum/go-ethereum/common"

// Pool is the staking pool configuration record.
type Pool struct {
	Key                common.Address `json:"key"`
	Bump               uint8          `json:"bump"`
	Signer             common.Address `json:"signer"`
	PrincipalMint      common.Address `json:"principal_mint"`
	PrincipalVault     common.Address `json:"principal_vault"`
	PrincipalVaultBump uint8          `json:"principal_vault_bump"`
	RewardMint         common.Address `json:"reward_mint"`
	RewardVault        common.Address `json:"reward_vault"`
	RewardVaultBump    uint8          `json:"reward_vault_bump"`
	Cap                uint64         `json:"cap"`
	Rate               uint64         `json:"rate"`
}
