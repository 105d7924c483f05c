package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stakingLedger/internal/config"
	"stakingLedger/internal/identity"
	"stakingLedger/internal/staking"
	"stakingLedger/internal/storage"
	"stakingLedger/internal/storage/file"
	"stakingLedger/internal/storage/memory"
	"stakingLedger/internal/storage/postgres"
	"stakingLedger/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "stakingledger",
		Short:        "Token staking ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("program-id", config.DefaultProgramID, "program id scoping derived addresses")
	flags.String("store", "file", "account store (memory, file, postgres)")
	flags.String("state-file", "./data/ledger.json", "state snapshot path for the file store")
	flags.String("pg-dsn", "", "Postgres DSN for the postgres store")
	flags.String("journal", "./data/journal.jsonl", "JSONL journal path, empty to disable")
	flags.String("reward-policy", "per-event", "reward policy (per-event, on-withdraw)")
	flags.String("key", "", "caller key file or hex private key")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newKeygenCmd(),
		newDeriveCmd(),
		newTokenCmd(),
		newPoolCmd(),
		newDepositorCmd(),
		newStakeCmd("deposit", "Stake principal into a pool"),
		newStakeCmd("withdraw", "Withdraw staked principal from a pool"),
		newServeCmd(),
	)
	return root
}

// app bundles everything a command needs to talk to the ledger.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	program common.Address
	store   storage.Store
	tokens  *token.Service
	ledger  *staking.Ledger
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	program, err := parseAddress("program-id", cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	policy, err := staking.ParseRewardPolicy(cfg.RewardPolicy)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var journal storage.Journal = storage.NopJournal{}
	if cfg.Journal != "" {
		journal = storage.NewJsonlJournal(cfg.Journal)
	}

	tokens := token.NewService(logger)
	ledger := staking.New(store, tokens, program, staking.Options{
		Logger:  logger,
		Policy:  policy,
		Journal: journal,
	})

	logger.Debug("ledger ready",
		zap.String("program", program.Hex()),
		zap.String("store", cfg.Store),
		zap.String("reward_policy", string(policy)),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		program: program,
		store:   store,
		tokens:  tokens,
		ledger:  ledger,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// caller returns the identity every mutating command acts as.
func (a *app) caller() (*identity.Identity, error) {
	id, err := identity.Resolve(a.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("caller key (--key or STAKING_KEY): %w", err)
	}
	return id, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store {
	case "memory":
		logger.Warn("memory store selected, state is discarded on exit")
		return memory.New(), nil
	case "file":
		return file.Open(cfg.StateFile)
	case "postgres":
		store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.Options{
			MaxRetries:   cfg.PGMaxRetries,
			RetryBackoff: cfg.PGRetryBackoff,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// runWithApp wires signal handling and the app around a command body.
func runWithApp(fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, cmd, a)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func flagAddress(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	return parseAddress(name, value)
}

// optionalAddress returns fallback when the flag is unset.
func optionalAddress(cmd *cobra.Command, name string, fallback common.Address) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return fallback, nil
	}
	return parseAddress(name, value)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
