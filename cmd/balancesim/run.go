package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

type runFlags struct {
	runs           uint32
	seed           uint64
	maxTicks       uint64
	targetZone     uint32
	targetPrestige uint32
	loot           bool
	prestige       bool
	workers        int
	output         string
	noArchive      bool
	jsonOut        bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation batch",
		Long: `Run a batch of independent simulated characters and print the aggregate
report. The JSON report is written to the output directory and archived.

Unset flags take the values from the sim.defaults configuration section.
Runs are reproducible: run i of a batch uses seed (base + i).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, g, f)
		},
	}
	flags := cmd.Flags()
	flags.Uint32Var(&f.runs, "runs", 0, "Number of runs")
	flags.Uint64Var(&f.seed, "seed", 0, "Base seed (default: random)")
	flags.Uint64Var(&f.maxTicks, "max-ticks", 0, "Tick limit per run")
	flags.Uint32Var(&f.targetZone, "target-zone", 0, "Zone that counts as completion")
	flags.Uint32Var(&f.targetPrestige, "target-prestige", 0, "Prestige rank that counts as completion")
	flags.BoolVar(&f.loot, "loot", true, "Simulate loot drops")
	flags.BoolVar(&f.prestige, "prestige", false, "Prestige when eligible")
	flags.IntVar(&f.workers, "workers", 0, "Concurrent runs (default: sim.workers)")
	flags.StringVar(&f.output, "output", "", "Directory for the JSON report (default: sim.output_dir)")
	flags.BoolVar(&f.noArchive, "no-archive", false, "Do not archive the report")
	flags.BoolVar(&f.jsonOut, "json", false, "Print the JSON report instead of tables")
	return cmd
}

// simConfig overlays the flags that were set on the configured defaults.
func (f *runFlags) simConfig(cmd *cobra.Command, defaults sim.SimConfig) sim.SimConfig {
	sc := defaults
	flags := cmd.Flags()
	if flags.Changed("runs") {
		sc.NumRuns = f.runs
	}
	if flags.Changed("seed") {
		seed := f.seed
		sc.Seed = &seed
	}
	if flags.Changed("max-ticks") {
		sc.MaxTicksPerRun = f.maxTicks
	}
	if flags.Changed("target-zone") {
		sc.TargetZone = f.targetZone
	}
	if flags.Changed("target-prestige") {
		sc.TargetPrestige = f.targetPrestige
	}
	if flags.Changed("loot") {
		sc.SimulateLoot = f.loot
	}
	if flags.Changed("prestige") {
		sc.SimulatePrestige = f.prestige
	}
	return sc
}

func runBatch(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	cfg, logger, bal, err := g.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	workers := cfg.Sim.Workers
	if cmd.Flags().Changed("workers") {
		workers = f.workers
	}
	runner := sim.NewRunner(bal, workers, logger)
	rep, err := runner.RunBatch(cmd.Context(), f.simConfig(cmd, cfg.Sim.Defaults))
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	out := cmd.OutOrStdout()
	if f.jsonOut {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, rep.Text())
	}

	dir := f.output
	if dir == "" {
		dir = cfg.Sim.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path, err := rep.WriteJSON(dir)
	if err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", path))

	if f.noArchive {
		return nil
	}
	archive, err := g.openArchive(cfg)
	if err != nil {
		return err
	}
	defer archive.Close()
	if err := archive.Save(cmd.Context(), rep); err != nil {
		return err
	}
	logger.Info("report archived", zap.String("batch_id", rep.BatchID))
	return nil
}
