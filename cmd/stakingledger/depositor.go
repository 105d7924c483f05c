package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/model"
	"stakingLedger/internal/staking"
)

func newDepositorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depositor",
		Short: "Register and inspect depositor records",
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register the caller as a depositor of a pool",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			poolAddr, err := flagAddress(cmd, "pool")
			if err != nil {
				return err
			}
			pool, err := a.ledger.Pool(ctx, poolAddr)
			if err != nil {
				return err
			}
			addr, bump, err := derive.FindDepositor(a.program, pool.Key, caller.Address)
			if err != nil {
				return err
			}
			depositor, err := a.ledger.RegisterDepositor(ctx, staking.RegisterDepositorRequest{
				Caller:    caller.Address,
				Pool:      poolAddr,
				Depositor: addr,
				Bump:      bump,
			})
			if err != nil {
				return err
			}
			return printDepositor(cmd, addr, depositor)
		}),
	}
	registerCmd.Flags().String("pool", "", "pool address")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a depositor record",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			addr, err := depositorAddress(ctx, cmd, a)
			if err != nil {
				return err
			}
			depositor, err := a.ledger.Depositor(ctx, addr)
			if err != nil {
				return err
			}
			return printDepositor(cmd, addr, depositor)
		}),
	}
	showCmd.Flags().String("address", "", "depositor address")
	showCmd.Flags().String("pool", "", "pool address, used with --owner")
	showCmd.Flags().String("owner", "", "depositor owner, used with --pool")

	cmd.AddCommand(registerCmd, showCmd)
	return cmd
}

// depositorAddress resolves --address, or derives it from --pool and --owner.
func depositorAddress(ctx context.Context, cmd *cobra.Command, a *app) (common.Address, error) {
	if value, _ := cmd.Flags().GetString("address"); value != "" {
		return parseAddress("address", value)
	}
	poolAddr, err := flagAddress(cmd, "pool")
	if err != nil {
		return common.Address{}, fmt.Errorf("either --address or --pool and --owner: %w", err)
	}
	owner, err := flagAddress(cmd, "owner")
	if err != nil {
		return common.Address{}, err
	}
	pool, err := a.ledger.Pool(ctx, poolAddr)
	if err != nil {
		return common.Address{}, err
	}
	addr, _, err := derive.FindDepositor(a.program, pool.Key, owner)
	return addr, err
}

func printDepositor(cmd *cobra.Command, addr common.Address, depositor *model.Depositor) error {
	return printJSON(cmd.OutOrStdout(), struct {
		Address common.Address `json:"address"`
		*model.Depositor
	}{Address: addr, Depositor: depositor})
}
