package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"stakingLedger/internal/config"
	"stakingLedger/internal/derive"
	"stakingLedger/internal/identity"
)

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a caller key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := identity.Generate()
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"address": id.Address.Hex(),
					"key":     id.PrivateHex(),
				})
			}
			if err := id.Save(out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.Address.Hex())
			return nil
		},
	}
	cmd.Flags().String("out", "", "write the key to this file instead of stdout")
	return cmd
}

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute canonical capability addresses",
	}

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Derive the pool and vault addresses for a pool key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			program, err := programFlag(cmd)
			if err != nil {
				return err
			}
			key, err := flagAddress(cmd, "pool-key")
			if err != nil {
				return err
			}
			keys, err := derive.FindPoolKeys(program, key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), keys)
		},
	}
	poolCmd.Flags().String("pool-key", "", "pool key address")

	depositorCmd := &cobra.Command{
		Use:   "depositor",
		Short: "Derive a depositor address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			program, err := programFlag(cmd)
			if err != nil {
				return err
			}
			key, err := flagAddress(cmd, "pool-key")
			if err != nil {
				return err
			}
			owner, err := flagAddress(cmd, "owner")
			if err != nil {
				return err
			}
			addr, bump, err := derive.FindDepositor(program, key, owner)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"depositor": addr.Hex(),
				"bump":      bump,
			})
		},
	}
	depositorCmd.Flags().String("pool-key", "", "pool key address")
	depositorCmd.Flags().String("owner", "", "depositor owner address")

	cmd.AddCommand(poolCmd, depositorCmd)
	return cmd
}

// programFlag resolves the program id without opening a store.
func programFlag(cmd *cobra.Command) (common.Address, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return common.Address{}, err
	}
	return parseAddress("program-id", cfg.ProgramID)
}
