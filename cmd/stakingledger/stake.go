package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/server"
	"stakingLedger/internal/staking"
)

func newStakeCmd(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			poolAddr, err := flagAddress(cmd, "pool")
			if err != nil {
				return err
			}
			principalAccount, err := flagAddress(cmd, "principal-account")
			if err != nil {
				return err
			}
			rewardAccount, err := flagAddress(cmd, "reward-account")
			if err != nil {
				return err
			}

			pool, err := a.ledger.Pool(ctx, poolAddr)
			if err != nil {
				return err
			}
			mint, err := a.ledger.Mint(ctx, pool.PrincipalMint)
			if err != nil {
				return err
			}
			amountText, _ := cmd.Flags().GetString("amount")
			quantity, err := model.ParseAmount(amountText, mint.Decimals)
			if err != nil {
				return err
			}
			depositor, _, err := derive.FindDepositor(a.program, pool.Key, caller.Address)
			if err != nil {
				return err
			}

			req := staking.StakeRequest{
				Caller:           caller.Address,
				Pool:             poolAddr,
				Depositor:        depositor,
				PrincipalAccount: principalAccount,
				RewardAccount:    rewardAccount,
				PrincipalVault:   pool.PrincipalVault,
				RewardVault:      pool.RewardVault,
				Quantity:         quantity,
			}

			var res *staking.StakeResult
			if use == "withdraw" {
				res, err = a.ledger.Withdraw(ctx, req)
			} else {
				res, err = a.ledger.Deposit(ctx, req)
			}
			if err != nil {
				return err
			}

			a.logger.Debug("stake updated",
				zap.String("depositor", depositor.Hex()),
				zap.Uint64("amount", res.Depositor.Amount),
			)
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"depositor": depositor.Hex(),
				"staked":    model.FormatAmount(res.Depositor.Amount, mint.Decimals),
				"reward":    res.Reward,
			})
		}),
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("amount", "0", "principal amount in display units")
	cmd.Flags().String("principal-account", "", "caller principal token account")
	cmd.Flags().String("reward-account", "", "caller reward token account")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only ledger state and metrics over HTTP",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			srv := server.New(a.cfg.Listen, a.ledger, a.logger)
			return srv.Run(ctx)
		}),
	}
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	return cmd
}
