// Package main provides the idle game server: it ticks hosted characters in
// real time, saves their snapshots to PostgreSQL, and serves balance batches
// over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	newCharacter := flag.String("new-character", "", "create and host this character if it has no saved snapshot")
	migrationsDir := flag.String("migrations", "", "apply pending migrations from this directory before starting; empty = skip")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initializeApp(ctx, configPath(*configPath))
	if err != nil {
		log.Fatalf("initializing game server: %v", err)
	}
	defer cleanup()

	if *migrationsDir != "" {
		if err := app.Migrate(*migrationsDir); err != nil {
			app.logger.Error("migrating database", zap.Error(err))
			cleanup()
			os.Exit(1)
		}
	}

	app.logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", app.cfg.GameServer.Addr()),
	)

	if err := app.Run(ctx, *newCharacter); err != nil {
		app.logger.Error("server error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}
