// balancesim runs Monte Carlo balance batches against the tick core.
//
// Usage:
//
//	balancesim run                 - Run a batch and print the report
//	balancesim history             - List archived batches
//	balancesim history <batch-id>  - Show an archived report
//
// Global flags:
//
//	--config <path>   - Configuration file (default: built-in defaults plus IDLE_ env)
//	--archive <path>  - Report archive database (default: archive.path)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/config"
	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/observability"
	"github.com/cory-johannsen/idlerpg/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config  string
	archive string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "balancesim",
		Short: "Monte Carlo balance simulator for the idle RPG",
		Long: `balancesim replays the game's tick core thousands of times with seeded
randomness and reports time-to-zone, loot and prestige pacing.

Examples:
  balancesim run --runs 1000 --target-zone 5
  balancesim run --seed 42 --prestige --target-prestige 3
  balancesim history
  balancesim history 0b6f8c1e-...`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.config, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&g.archive, "archive", "", "Path to report archive database")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newHistoryCmd(g))
	return root
}

// load resolves configuration, logger and balance constants.
func (g *globalFlags) load() (config.Config, *zap.Logger, balance.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if g.config != "" {
		cfg, err = config.Load(g.config)
	} else {
		cfg, err = config.Defaults()
	}
	if err != nil {
		return config.Config{}, nil, balance.Config{}, fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, balance.Config{}, fmt.Errorf("initializing logger: %w", err)
	}

	bal := balance.Default()
	if cfg.Balance.Path != "" {
		if bal, err = balance.Load(cfg.Balance.Path); err != nil {
			return config.Config{}, nil, balance.Config{}, fmt.Errorf("loading balance: %w", err)
		}
	}
	return cfg, logger, bal, nil
}

func (g *globalFlags) openArchive(cfg config.Config) (*sqlite.Archive, error) {
	path := g.archive
	if path == "" {
		path = cfg.Archive.Path
	}
	a, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return a, nil
}
