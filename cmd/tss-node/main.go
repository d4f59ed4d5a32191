// Command tss-node runs one party of the two-party threshold Ed25519
// signing service. Two instances, differing only in NODE_ID, form the
// pair of cooperating processes described in SPEC_FULL.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/tss-solana/internal/bus"
	"github.com/luxfi/tss-solana/internal/config"
	"github.com/luxfi/tss-solana/internal/logging"
	"github.com/luxfi/tss-solana/internal/session"
	"github.com/luxfi/tss-solana/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	verbose bool
	nodeID  int
)

func main() {
	root := &cobra.Command{
		Use:   "tss-node",
		Short: "Two-party threshold Ed25519 signing node for Solana",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable development-mode (debug level, human readable) logging")
	root.PersistentFlags().IntVar(&nodeID, "node-id", 0, "party index of this node: 0 (listens, the \"server\" role) or 1 (dials, the \"client\" role); overrides NODE_ID")

	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Subscribe to dkg-start/sign-start and run the session controller until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cmd.Flags(), verbose)
		},
	}
}

func serve(ctx context.Context, flags *pflag.FlagSet, verbose bool) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Verbose = true
	}

	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("construct logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisBus, err := bus.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisBus.Close()

	st := store.New()
	controller := session.New(cfg, redisBus, st, log)

	log.Info("session controller starting",
		zap.Stringer("node_id", cfg.NodeID),
		zap.String("dkg_addr", cfg.DkgAddr),
		zap.String("sign_addr", cfg.SignAddr),
	)
	return controller.Run(ctx)
}
