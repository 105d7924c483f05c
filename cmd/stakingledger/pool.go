package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/staking"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and administer staking pools",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool with the caller as signer",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			key, err := freshAddress(cmd, "pool-key")
			if err != nil {
				return err
			}
			principalMint, err := flagAddress(cmd, "principal-mint")
			if err != nil {
				return err
			}
			rewardMint, err := flagAddress(cmd, "reward-mint")
			if err != nil {
				return err
			}
			limit, rate, err := poolTerms(ctx, cmd, a, principalMint, rewardMint)
			if err != nil {
				return err
			}

			keys, err := derive.FindPoolKeys(a.program, key)
			if err != nil {
				return err
			}
			pool, err := a.ledger.Initialize(ctx, staking.InitializeRequest{
				Caller:             caller.Address,
				Key:                key,
				Cap:                limit,
				Rate:               rate,
				Pool:               keys.Pool,
				PoolBump:           keys.PoolBump,
				PrincipalMint:      principalMint,
				PrincipalVault:     keys.PrincipalVault,
				PrincipalVaultBump: keys.PrincipalVaultBump,
				RewardMint:         rewardMint,
				RewardVault:        keys.RewardVault,
				RewardVaultBump:    keys.RewardVaultBump,
			})
			if err != nil {
				return err
			}
			return printPool(cmd, keys.Pool, pool)
		}),
	}
	initCmd.Flags().String("pool-key", "", "pool key address (random when empty)")
	initCmd.Flags().String("principal-mint", "", "principal asset mint")
	initCmd.Flags().String("reward-mint", "", "reward asset mint")
	initCmd.Flags().String("cap", "0", "per-depositor cap in principal display units")
	initCmd.Flags().String("rate", "0", "reward per event in reward display units")

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Set the pool cap and rate",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			poolAddr, err := flagAddress(cmd, "pool")
			if err != nil {
				return err
			}
			current, err := a.ledger.Pool(ctx, poolAddr)
			if err != nil {
				return err
			}
			limit, rate, err := poolTerms(ctx, cmd, a, current.PrincipalMint, current.RewardMint)
			if err != nil {
				return err
			}
			pool, err := a.ledger.Configure(ctx, staking.ConfigureRequest{
				Caller: caller.Address,
				Pool:   poolAddr,
				Cap:    limit,
				Rate:   rate,
			})
			if err != nil {
				return err
			}
			return printPool(cmd, poolAddr, pool)
		}),
	}
	configureCmd.Flags().String("pool", "", "pool address")
	configureCmd.Flags().String("cap", "0", "per-depositor cap in principal display units")
	configureCmd.Flags().String("rate", "0", "reward per event in reward display units")

	setSignerCmd := &cobra.Command{
		Use:   "set-signer",
		Short: "Hand pool administration to a new signer",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			poolAddr, err := flagAddress(cmd, "pool")
			if err != nil {
				return err
			}
			newSigner, err := flagAddress(cmd, "new-signer")
			if err != nil {
				return err
			}
			pool, err := a.ledger.ConfigureSigner(ctx, staking.ConfigureSignerRequest{
				Caller:    caller.Address,
				Pool:      poolAddr,
				NewSigner: newSigner,
			})
			if err != nil {
				return err
			}
			return printPool(cmd, poolAddr, pool)
		}),
	}
	setSignerCmd.Flags().String("pool", "", "pool address")
	setSignerCmd.Flags().String("new-signer", "", "new signer address")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a pool",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			poolAddr, err := flagAddress(cmd, "pool")
			if err != nil {
				return err
			}
			pool, err := a.ledger.Pool(ctx, poolAddr)
			if err != nil {
				return err
			}
			return printPool(cmd, poolAddr, pool)
		}),
	}
	showCmd.Flags().String("pool", "", "pool address")

	cmd.AddCommand(initCmd, configureCmd, setSignerCmd, showCmd)
	return cmd
}

// poolTerms parses --cap and --rate using the decimals of their mints.
func poolTerms(ctx context.Context, cmd *cobra.Command, a *app, principalMint, rewardMint common.Address) (uint64, uint64, error) {
	principal, err := a.ledger.Mint(ctx, principalMint)
	if err != nil {
		return 0, 0, err
	}
	reward, err := a.ledger.Mint(ctx, rewardMint)
	if err != nil {
		return 0, 0, err
	}

	capText, _ := cmd.Flags().GetString("cap")
	limit, err := model.ParseAmount(capText, principal.Decimals)
	if err != nil {
		return 0, 0, err
	}
	rateText, _ := cmd.Flags().GetString("rate")
	rate, err := model.ParseAmount(rateText, reward.Decimals)
	if err != nil {
		return 0, 0, err
	}
	return limit, rate, nil
}

func printPool(cmd *cobra.Command, addr common.Address, pool *model.Pool) error {
	return printJSON(cmd.OutOrStdout(), struct {
		Address common.Address `json:"address"`
		*model.Pool
	}{Address: addr, Pool: pool})
}
