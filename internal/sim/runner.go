package sim

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
	"github.com/cory-johannsen/idlerpg/internal/game/tick"
)

// runNamespace scopes deterministic run IDs.
var runNamespace = uuid.MustParse("6f1c2a4e-5d0b-4c39-9a57-2f3e8b7d1c60")

// RunID returns the deterministic identifier of run runIdx under base seed.
func RunID(base uint64, runIdx uint32) string {
	return uuid.NewSHA1(runNamespace, []byte(strconv.FormatUint(base, 10)+"/"+strconv.FormatUint(uint64(runIdx), 10))).String()
}

// Runner executes simulation batches.
type Runner struct {
	cfg     balance.Config
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner creates a Runner. workers <= 0 selects runtime.GOMAXPROCS(0).
//
// Precondition: cfg.Validate() == nil; logger must be non-nil.
func NewRunner(cfg balance.Config, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{cfg: cfg, workers: workers, logger: logger, now: time.Now}
}

func (r *Runner) engine(sc SimConfig) *tick.Engine {
	return tick.NewEngine(r.cfg, tick.Options{
		Curve:                   progression.SimulatorCurve,
		DisableLoot:             !sc.SimulateLoot,
		KeepEquipmentOnPrestige: true,
	})
}

// RunOne executes run runIdx of a batch with base seed base.
//
// Precondition: sc has been normalized.
// Postcondition: the result depends only on (r's balance config, sc, base, runIdx).
func (r *Runner) RunOne(sc SimConfig, base uint64, runIdx uint32) RunStats {
	return r.runOne(r.engine(sc), sc, base, runIdx)
}

func (r *Runner) runOne(eng *tick.Engine, sc SimConfig, base uint64, runIdx uint32) RunStats {
	seed := SeedForRun(base, runIdx)
	src := dice.NewSeededSource(seed)
	state, err := eng.NewGameState("sim-" + strconv.FormatUint(uint64(runIdx), 10))
	if err != nil {
		// Unreachable: the name is never empty.
		panic(fmt.Sprintf("sim: creating run state: %v", err))
	}

	stats := RunStats{
		RunID:           RunID(base, runIdx),
		RunIndex:        runIdx,
		Seed:            seed,
		ZoneReachedTick: []uint64{0},
	}
	dt := eng.Config().TickSeconds
	minLevel := eng.Config().Prestige.MinLevel

	for {
		p := state.Character.Progression
		if targetReached(sc, p) {
			stats.ReachedTarget = true
			stats.TicksToTarget = stats.Ticks
			break
		}
		if stats.Ticks >= sc.MaxTicksPerRun {
			break
		}
		if sc.SimulatePrestige && p.PrestigeRank < sc.TargetPrestige &&
			p.CurrentZone >= min(sc.TargetZone, progression.MaxZoneForPrestige(p.PrestigeRank)) &&
			state.Character.CanPrestige(minLevel) {
			if _, err := eng.Prestige(state); err == nil {
				stats.Prestiges++
				continue
			}
		}

		for _, ev := range eng.Tick(state, dt, src) {
			record(&stats, ev)
		}
		stats.Ticks++
		clearDiscoveries(eng, state)
	}

	p := state.Character.Progression
	stats.FinalLevel = p.CharacterLevel
	stats.FinalZone = p.CurrentZone
	stats.FinalSubzone = p.CurrentSubzone
	stats.FinalPrestige = p.PrestigeRank
	stats.HavenFound = state.Character.SideProgress.HavenDiscovered
	return stats
}

func targetReached(sc SimConfig, p progression.State) bool {
	return p.CurrentZone >= sc.TargetZone && (!sc.SimulatePrestige || p.PrestigeRank >= sc.TargetPrestige)
}

func record(stats *RunStats, ev tick.Event) {
	switch e := ev.(type) {
	case tick.EnemyDied:
		stats.Kills++
		if e.Enemy.IsBoss {
			stats.BossKills++
		}
		if e.Enemy.IsZoneBoss {
			stats.ZoneBossKills++
		}
	case tick.PlayerDied:
		stats.Deaths++
	case tick.LeveledUp:
		stats.LevelUps += uint64(e.Gained)
	case tick.ItemDropped:
		stats.ItemsDropped++
		stats.DropsByRarity[e.Item.Rarity]++
		if e.Equipped {
			stats.ItemsEquipped++
		}
	case tick.ZoneAdvanced:
		// Ticks has not been incremented yet for the tick producing this event.
		for uint32(len(stats.ZoneReachedTick)) < e.Zone {
			stats.ZoneReachedTick = append(stats.ZoneReachedTick, stats.Ticks+1)
		}
	case tick.DungeonDiscovered:
		stats.Dungeons++
	case tick.FishingSpotDiscovered:
		stats.FishingSpots++
	case tick.ChallengeDiscovered:
		stats.Challenges++
	}
}

// clearDiscoveries stands in for the host dismissing activities the simulator does not play.
func clearDiscoveries(eng *tick.Engine, s *tick.GameState) {
	d := s.Character.Discoveries
	if d.ActiveDungeon {
		eng.ClearDiscovery(s, tick.DiscoveryDungeon)
	}
	if d.FishingSpot {
		eng.ClearDiscovery(s, tick.DiscoveryFishingSpot)
	}
	if d.PendingChallenge != "" {
		eng.ClearDiscovery(s, tick.DiscoveryChallenge)
	}
}

// resolveSeed normalizes sc and fixes its base seed.
func (r *Runner) resolveSeed(sc SimConfig) (SimConfig, uint64) {
	sc = sc.Normalize()
	if sc.Seed == nil {
		seed := dice.NewSeed()
		sc.Seed = &seed
	}
	return sc, *sc.Seed
}

// Run executes every run of sc sequentially. Cancellation is checked between runs.
//
// Postcondition: report.Runs is ordered by run index; on cancellation the error is
// ctx.Err() and the report is nil.
func (r *Runner) Run(ctx context.Context, sc SimConfig) (*SimReport, error) {
	sc, base := r.resolveSeed(sc)
	start := r.now()
	eng := r.engine(sc)
	runs := make([]RunStats, sc.NumRuns)
	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runs[i] = r.runOne(eng, sc, base, uint32(i))
	}
	return r.finish(sc, base, runs, start), nil
}

// RunBatch executes the runs of sc on a bounded worker pool. Results are ordered
// by run index and identical to Run. Cancellation is checked between runs.
//
// Postcondition: on cancellation the error is ctx.Err() and the report is nil.
func (r *Runner) RunBatch(ctx context.Context, sc SimConfig) (*SimReport, error) {
	sc, base := r.resolveSeed(sc)
	start := r.now()
	r.logger.Info("simulation batch starting",
		zap.Uint32("runs", sc.NumRuns),
		zap.Uint64("base_seed", base),
		zap.Uint32("target_zone", sc.TargetZone),
		zap.Uint32("target_prestige", sc.TargetPrestige),
		zap.Int("workers", r.workers),
	)

	eng := r.engine(sc)
	runs := make([]RunStats, sc.NumRuns)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range runs {
		if gctx.Err() != nil {
			break
		}
		idx := uint32(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runs[idx] = r.runOne(eng, sc, base, idx)
			r.logger.Debug("simulation run complete",
				zap.Uint32("run", idx),
				zap.Uint64("ticks", runs[idx].Ticks),
				zap.Bool("reached_target", runs[idx].ReachedTarget),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := r.finish(sc, base, runs, start)
	r.logger.Info("simulation batch finished",
		zap.String("batch_id", report.BatchID),
		zap.Duration("elapsed", report.Elapsed),
		zap.Float64("completion_rate", report.Summary.CompletionRate),
	)
	return report, nil
}

func (r *Runner) finish(sc SimConfig, base uint64, runs []RunStats, start time.Time) *SimReport {
	now := r.now()
	return &SimReport{
		BatchID:     uuid.NewString(),
		GeneratedAt: now.UTC(),
		Elapsed:     now.Sub(start),
		Config:      sc,
		BaseSeed:    base,
		TickSeconds: r.cfg.TickSeconds,
		Summary:     Aggregate(runs, r.cfg.TickSeconds),
		Runs:        runs,
	}
}
