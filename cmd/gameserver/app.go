package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/idlerpg/internal/config"
	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
	"github.com/cory-johannsen/idlerpg/internal/game/tick"
	"github.com/cory-johannsen/idlerpg/internal/gameserver"
	"github.com/cory-johannsen/idlerpg/internal/observability"
	"github.com/cory-johannsen/idlerpg/internal/scripting"
	"github.com/cory-johannsen/idlerpg/internal/server"
	"github.com/cory-johannsen/idlerpg/internal/sim"
	"github.com/cory-johannsen/idlerpg/internal/storage/postgres"
)

// configPath is the configuration file the server was started with.
type configPath string

func provideConfig(path configPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideBalance(cfg config.Config) (balance.Config, error) {
	if cfg.Balance.Path == "" {
		return balance.Default(), nil
	}
	bal, err := balance.Load(cfg.Balance.Path)
	if err != nil {
		return balance.Config{}, fmt.Errorf("loading balance: %w", err)
	}
	return bal, nil
}

func provideEngine(bal balance.Config) *tick.Engine {
	return tick.NewEngine(bal, tick.Options{Curve: progression.GameplayCurve})
}

func providePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return pool, pool.Close, nil
}

func provideDB(pool *postgres.Pool) *pgxpool.Pool {
	return pool.DB()
}

// provideRewards returns Lua-scripted challenge rewards when a script directory
// is configured, falling back to the static table for unscripted kinds.
func provideRewards(cfg config.Config, logger *zap.Logger) (challenge.RewardSource, func(), error) {
	static := challenge.DefaultRewards()
	if cfg.Scripting.Dir == "" {
		return static, func() {}, nil
	}
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	mgr := scripting.NewManager(roller, logger)
	if err := mgr.Load(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("loading scripts from %s: %w", cfg.Scripting.Dir, err)
	}
	return scripting.NewScriptedRewards(mgr, static), mgr.Close, nil
}

func provideFrameDriver(eng *tick.Engine, rewards challenge.RewardSource, saver gameserver.SnapshotSaver, cfg config.Config, logger *zap.Logger) *gameserver.FrameDriver {
	return gameserver.NewFrameDriver(eng, rewards, saver, cfg.GameServer, logger)
}

func provideRunner(bal balance.Config, cfg config.Config, logger *zap.Logger) *sim.Runner {
	return sim.NewRunner(bal, cfg.Sim.Workers, logger)
}

func provideSimService(runner *sim.Runner, store gameserver.ReportStore, cfg config.Config, logger *zap.Logger) *gameserver.SimService {
	return gameserver.NewSimService(runner, cfg.Sim.Defaults, store, logger)
}

func provideGRPCServer(svc *gameserver.SimService) *grpc.Server {
	s := grpc.NewServer()
	gameserver.RegisterSimServer(s, svc)
	return s
}

// App owns every long-lived component of the server.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	engine    *tick.Engine
	pool      *postgres.Pool
	snapshots *postgres.SnapshotRepository
	driver    *gameserver.FrameDriver
	grpc      *grpc.Server
}

func newApp(cfg config.Config, logger *zap.Logger, eng *tick.Engine, pool *postgres.Pool,
	snapshots *postgres.SnapshotRepository, driver *gameserver.FrameDriver, grpcServer *grpc.Server) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    eng,
		pool:      pool,
		snapshots: snapshots,
		driver:    driver,
		grpc:      grpcServer,
	}
}

// Migrate applies pending schema migrations from dir.
func (a *App) Migrate(dir string) error {
	m, err := postgres.NewMigrator(a.cfg.Database, dir)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, postgres.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	version, _, err := m.Version()
	if err != nil {
		return err
	}
	a.logger.Info("database schema current", zap.Uint("version", version))
	return nil
}

// restore registers every saved character, then creates newCharacter if it
// was requested and is not already hosted.
func (a *App) restore(ctx context.Context, newCharacter string) error {
	names, err := a.snapshots.ListNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		snap, err := a.snapshots.Load(ctx, name)
		if err != nil {
			return err
		}
		if err := a.driver.Restore(snap); err != nil {
			return err
		}
	}
	a.logger.Info("characters restored", zap.Int("count", len(names)))

	if newCharacter == "" {
		return nil
	}
	s, err := a.engine.NewGameState(newCharacter)
	if err != nil {
		return err
	}
	if err := a.driver.Register(s, dice.NewSeededSource(dice.NewSeed())); err != nil {
		if errors.Is(err, gameserver.ErrCharacterExists) {
			return nil
		}
		return err
	}
	return nil
}

// logFrames reports the milestones of every hosted character.
func (a *App) logFrames(ctx context.Context) {
	frames := make(chan gameserver.Frame, 256)
	a.driver.Subscribe(frames)
	defer a.driver.Unsubscribe(frames)
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			for _, ev := range f.Events {
				switch e := ev.(type) {
				case tick.BossDefeated:
					a.logger.Info("zone boss defeated",
						zap.String("character", f.Character),
						zap.Uint32("zone", e.Zone),
						zap.Uint64("xp", e.XP),
						zap.Bool("zone_advanced", e.ZoneAdvanced),
						zap.Bool("gated", e.Gated),
					)
				case tick.LeveledUp, tick.ZoneAdvanced, tick.PrestigePerformed, tick.HavenDiscovered:
					a.logger.Info("milestone",
						zap.String("character", f.Character),
						zap.String("event", e.Kind()),
						zap.Uint32("level", f.View.Level),
						zap.Uint32("zone", f.View.Zone),
					)
				case tick.ItemDropped:
					a.logger.Debug("item dropped",
						zap.String("character", f.Character),
						zap.Stringer("slot", e.Item.Slot),
						zap.Stringer("rarity", e.Item.Rarity),
						zap.Uint32("ilvl", e.Item.ILvl),
						zap.Bool("equipped", e.Equipped),
					)
				}
			}
		}
	}
}

// Run hosts characters and serves gRPC until ctx is cancelled or a service fails.
func (a *App) Run(ctx context.Context, newCharacter string) error {
	if err := a.restore(ctx, newCharacter); err != nil {
		return fmt.Errorf("restoring characters: %w", err)
	}

	lifecycle := server.NewLifecycle(a.logger)

	lifecycle.Add("frames", server.NewRunService(a.driver.Run))
	lifecycle.Add("milestones", server.NewRunService(func(ctx context.Context) error {
		a.logFrames(ctx)
		return nil
	}))

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", a.cfg.GameServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", a.cfg.GameServer.Addr(), err)
			}
			a.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return a.grpc.Serve(lis)
		},
		StopFn: a.grpc.GracefulStop,
	})

	lifecycle.Add("postgres", server.NewRunService(func(ctx context.Context) error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := a.pool.Health(ctx, 5*time.Second); err != nil {
					a.logger.Warn("database health check failed", zap.Error(err))
				}
			}
		}
	}))

	return lifecycle.Run(ctx)
}
