package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/config"
	boltInfra "github.com/fastygo/tasks/internal/infrastructure/boltdb"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/tasks/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tasks/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/tasks/internal/infrastructure/sqlite"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/repository"
	boltRepo "github.com/fastygo/tasks/repository/bolt"
	"github.com/fastygo/tasks/repository/memory"
	pgRepo "github.com/fastygo/tasks/repository/postgres"
	redisRepo "github.com/fastygo/tasks/repository/redis"
	sqliteRepo "github.com/fastygo/tasks/repository/sqlite"
)

// store is a data source together with its health probe.
type store struct {
	repository.TasksDataSource
	ping monitor.Check
}

func openRemote(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (store, error) {
	log := logger.With(zap.String("store", "remote"), zap.String("backend", cfg.Remote.Backend))

	switch cfg.Remote.Backend {
	case config.RemoteMemory:
		remote := memory.NewRemote(cfg.Remote.Latency, log)
		if cfg.Remote.Seed {
			remote.Seed()
		}
		return store{TasksDataSource: remote, ping: remote.Ping}, nil

	case config.RemoteRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return store{}, fmt.Errorf("redis connection failed: %w", err)
		}
		manager.Register("redis", func(context.Context) error {
			return client.Close()
		})
		remote := redisRepo.NewTaskRemote(client, cfg.Redis.TasksKey, log)
		return store{TasksDataSource: remote, ping: remote.Ping}, nil

	case config.RemotePostgres:
		if err := pgInfra.RunMigrations(cfg, log); err != nil {
			return store{}, fmt.Errorf("migrations failed: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return store{}, fmt.Errorf("postgres connection failed: %w", err)
		}
		manager.RegisterStop("postgres", func() { pgInfra.Close(pool, log) })
		return store{TasksDataSource: pgRepo.NewTaskRemote(pool, log), ping: pool.Ping}, nil
	}
	return store{}, fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
}

func openLocal(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (store, error) {
	log := logger.With(zap.String("store", "local"), zap.String("backend", cfg.Local.Backend))

	switch cfg.Local.Backend {
	case config.LocalBolt:
		db, err := boltInfra.Open(cfg.Local.BoltPath, log)
		if err != nil {
			return store{}, fmt.Errorf("failed to open bolt store: %w", err)
		}
		manager.RegisterStop("bolt", func() { boltInfra.Close(db, log) })
		local, err := boltRepo.NewStore(db, log)
		if err != nil {
			return store{}, err
		}
		return store{TasksDataSource: local, ping: local.Ping}, nil

	case config.LocalSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.Local.SQLitePath, log)
		if err != nil {
			return store{}, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		manager.Register("sqlite", func(context.Context) error {
			return db.Close()
		})
		local, err := sqliteRepo.NewStore(ctx, db, log)
		if err != nil {
			return store{}, err
		}
		return store{TasksDataSource: local, ping: local.Ping}, nil
	}
	return store{}, fmt.Errorf("unknown local backend %q", cfg.Local.Backend)
}

// remoteProbeTimeout covers the memory remote's artificial latency.
func remoteProbeTimeout(cfg *config.Config) time.Duration {
	timeout := 3 * time.Second
	if cfg.Remote.Backend == config.RemoteMemory && cfg.Remote.Latency >= timeout {
		timeout = cfg.Remote.Latency + time.Second
	}
	return timeout
}
