//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/idlerpg/internal/gameserver"
	"github.com/cory-johannsen/idlerpg/internal/storage/postgres"
)

func initializeApp(ctx context.Context, path configPath) (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideBalance,
		provideEngine,
		providePool,
		provideDB,
		postgres.NewSnapshotRepository,
		postgres.NewReportRepository,
		wire.Bind(new(gameserver.SnapshotSaver), new(*postgres.SnapshotRepository)),
		wire.Bind(new(gameserver.ReportStore), new(*postgres.ReportRepository)),
		provideRewards,
		provideFrameDriver,
		provideRunner,
		provideSimService,
		provideGRPCServer,
		newApp,
	)
	return nil, nil, nil
}
