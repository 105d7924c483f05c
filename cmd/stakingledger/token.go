package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakingLedger/internal/identity"
	"stakingLedger/internal/model"
	"stakingLedger/internal/storage"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage mints and token accounts",
	}

	createMintCmd := &cobra.Command{
		Use:   "create-mint",
		Short: "Create a mint with the caller as authority",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			addr, err := freshAddress(cmd, "address")
			if err != nil {
				return err
			}
			decimals, _ := cmd.Flags().GetUint8("decimals")

			var mint *model.Mint
			err = a.store.Update(ctx, func(tx storage.Tx) error {
				mint, err = a.tokens.CreateMint(ctx, tx, addr, caller.Address, decimals)
				return err
			})
			if err != nil {
				return err
			}
			a.logger.Info("mint created", zap.String("mint", addr.Hex()))
			return printJSON(cmd.OutOrStdout(), mint)
		}),
	}
	createMintCmd.Flags().String("address", "", "mint address (random when empty)")
	createMintCmd.Flags().Uint8("decimals", 9, "mint decimals")

	createAccountCmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create a token account",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			mintAddr, err := flagAddress(cmd, "mint")
			if err != nil {
				return err
			}
			addr, err := freshAddress(cmd, "address")
			if err != nil {
				return err
			}
			owner, err := optionalAddress(cmd, "owner", common.Address{})
			if err != nil {
				return err
			}
			if owner == (common.Address{}) {
				caller, err := a.caller()
				if err != nil {
					return err
				}
				owner = caller.Address
			}

			var account *model.TokenAccount
			err = a.store.Update(ctx, func(tx storage.Tx) error {
				account, err = a.tokens.CreateAccount(ctx, tx, addr, mintAddr, owner)
				return err
			})
			if err != nil {
				return err
			}
			a.logger.Info("token account created", zap.String("account", addr.Hex()), zap.String("owner", owner.Hex()))
			return printJSON(cmd.OutOrStdout(), account)
		}),
	}
	createAccountCmd.Flags().String("mint", "", "mint address")
	createAccountCmd.Flags().String("owner", "", "account owner (caller when empty)")
	createAccountCmd.Flags().String("address", "", "account address (random when empty)")

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint new supply into an account",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			mintAddr, err := flagAddress(cmd, "mint")
			if err != nil {
				return err
			}
			dest, err := flagAddress(cmd, "to")
			if err != nil {
				return err
			}
			amountText, _ := cmd.Flags().GetString("amount")

			return a.store.Update(ctx, func(tx storage.Tx) error {
				mint, err := a.tokens.Mint(ctx, tx, mintAddr)
				if err != nil {
					return err
				}
				amount, err := model.ParseAmount(amountText, mint.Decimals)
				if err != nil {
					return err
				}
				return a.tokens.MintTo(ctx, tx, mintAddr, dest, caller.Address, amount)
			})
		}),
	}
	mintCmd.Flags().String("mint", "", "mint address")
	mintCmd.Flags().String("to", "", "destination token account")
	mintCmd.Flags().String("amount", "0", "amount in display units")

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer tokens from a caller-owned account",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			from, err := flagAddress(cmd, "from")
			if err != nil {
				return err
			}
			to, err := flagAddress(cmd, "to")
			if err != nil {
				return err
			}
			amountText, _ := cmd.Flags().GetString("amount")

			return a.store.Update(ctx, func(tx storage.Tx) error {
				src, err := a.tokens.Account(ctx, tx, from)
				if err != nil {
					return err
				}
				mint, err := a.tokens.Mint(ctx, tx, src.Mint)
				if err != nil {
					return err
				}
				amount, err := model.ParseAmount(amountText, mint.Decimals)
				if err != nil {
					return err
				}
				return a.tokens.Transfer(ctx, tx, from, to, caller.Address, amount)
			})
		}),
	}
	transferCmd.Flags().String("from", "", "source token account")
	transferCmd.Flags().String("to", "", "destination token account")
	transferCmd.Flags().String("amount", "0", "amount in display units")

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a token account balance",
		RunE: runWithApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			addr, err := flagAddress(cmd, "account")
			if err != nil {
				return err
			}
			account, err := a.ledger.TokenAccount(ctx, addr)
			if err != nil {
				return err
			}
			mint, err := a.ledger.Mint(ctx, account.Mint)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"account": account.Address.Hex(),
				"mint":    account.Mint.Hex(),
				"owner":   account.Owner.Hex(),
				"amount":  account.Amount,
				"balance": model.FormatAmount(account.Amount, mint.Decimals),
			})
		}),
	}
	balanceCmd.Flags().String("account", "", "token account address")

	cmd.AddCommand(createMintCmd, createAccountCmd, mintCmd, transferCmd, balanceCmd)
	return cmd
}

// freshAddress reads an address flag or generates an unused random one.
func freshAddress(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value != "" {
		return parseAddress(name, value)
	}
	id, err := identity.Generate()
	if err != nil {
		return common.Address{}, err
	}
	return id.Address, nil
}
