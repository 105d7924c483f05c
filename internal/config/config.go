package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultProgramID scopes every derived address when no program id is set.
const DefaultProgramID = "0x5374616b696e674c65646765722d70726f677261"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ProgramID      string
	Store          string
	StateFile      string
	PGDSN          string
	PGMaxRetries   int
	PGRetryBackoff time.Duration
	Journal        string
	RewardPolicy   string
	Key            string
	Listen         string
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKING")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("program-id", DefaultProgramID)
	v.SetDefault("store", "file")
	v.SetDefault("state-file", "./data/ledger.json")
	v.SetDefault("pg-max-retries", 5)
	v.SetDefault("pg-retry-backoff", 500*time.Millisecond)
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("reward-policy", "per-event")
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("staking")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ProgramID:      v.GetString("program-id"),
		Store:          strings.ToLower(v.GetString("store")),
		StateFile:      v.GetString("state-file"),
		PGDSN:          v.GetString("pg-dsn"),
		PGMaxRetries:   v.GetInt("pg-max-retries"),
		PGRetryBackoff: v.GetDuration("pg-retry-backoff"),
		Journal:        v.GetString("journal"),
		RewardPolicy:   v.GetString("reward-policy"),
		Key:            v.GetString("key"),
		Listen:         v.GetString("listen"),
		LogLevel:       v.GetString("log-level"),
	}

	switch cfg.Store {
	case "memory", "file", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown store %q (memory, file, postgres)", cfg.Store)
	}

	return cfg, nil
}
