// Package config loads the Session Controller's startup configuration
// from the environment, with defaults matching a local development
// deployment.
package config

import (
	"fmt"

	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/luxfi/tss-solana/internal/party"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config enumerates the options in SPEC_FULL.md §4.4.1.
type Config struct {
	NodeID         party.ID
	N              int
	RedisURL       string
	DkgAddr        string
	SignAddr       string
	DefaultSession string
	Verbose        bool
}

// Load reads Config from the environment, applying the same defaults as
// the original service: NODE_ID=0, N=2, REDIS_URL=redis://127.0.0.1:6379,
// DKG_SERVER_ADDR=0.0.0.0:7001, SIGN_SERVER_ADDR=0.0.0.0:7002,
// DEFAULT_SESSION_ID=session-001.
//
// flags, when non-nil, is consulted for a "node-id" flag; if present and
// explicitly set, it takes precedence over the NODE_ID environment
// variable, so the two node instances can be told apart with either
// `--node-id` or NODE_ID, as documented.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("NODE_ID", 0)
	v.SetDefault("N", 2)
	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379")
	v.SetDefault("DKG_SERVER_ADDR", "0.0.0.0:7001")
	v.SetDefault("SIGN_SERVER_ADDR", "0.0.0.0:7002")
	v.SetDefault("DEFAULT_SESSION_ID", "session-001")
	v.SetDefault("VERBOSE", false)

	if flags != nil {
		if f := flags.Lookup("node-id"); f != nil {
			if err := v.BindPFlag("NODE_ID", f); err != nil {
				return Config{}, errs.New(errs.ConfigError, "config.Load", fmt.Errorf("bind node-id flag: %w", err))
			}
		}
	}

	nodeID := v.GetInt("NODE_ID")
	if nodeID != 0 && nodeID != 1 {
		return Config{}, errs.New(errs.ConfigError, "config.Load", fmt.Errorf("NODE_ID must be 0 or 1, got %d", nodeID))
	}

	n := v.GetInt("N")
	if n != 2 {
		return Config{}, errs.New(errs.ConfigError, "config.Load", fmt.Errorf("N must be 2 (n>2 is out of scope), got %d", n))
	}

	cfg := Config{
		NodeID:         party.ID(nodeID),
		N:              n,
		RedisURL:       v.GetString("REDIS_URL"),
		DkgAddr:        v.GetString("DKG_SERVER_ADDR"),
		SignAddr:       v.GetString("SIGN_SERVER_ADDR"),
		DefaultSession: v.GetString("DEFAULT_SESSION_ID"),
		Verbose:        v.GetBool("VERBOSE"),
	}
	if cfg.RedisURL == "" || cfg.DkgAddr == "" || cfg.SignAddr == "" {
		return Config{}, errs.New(errs.ConfigError, "config.Load", fmt.Errorf("redis url and both listen addresses are required"))
	}
	return cfg, nil
}
