package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/internal/config"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	"github.com/fastygo/tasks/internal/middleware"
	"github.com/fastygo/tasks/internal/router"
	"github.com/fastygo/tasks/internal/services"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/pkg/httpcontext"
	"github.com/fastygo/tasks/pkg/logger"
	"github.com/fastygo/tasks/repository/cache"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	remote, err := openRemote(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("remote task store unavailable", zap.Error(err))
	}
	local, err := openLocal(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("local task store unavailable", zap.Error(err))
	}

	mon := monitor.New(cfg.Sync.HealthInterval, zapLogger)
	mon.Register("remote", true, remoteProbeTimeout(cfg), remote.ping)
	mon.Register("local", false, 0, local.ping)
	mon.Start()
	manager.RegisterStop("monitor", mon.Stop)

	dispatcher := cache.NewSerialDispatcher(0)
	manager.RegisterStop("dispatcher", dispatcher.Close)

	failures := services.NewWriteFailures()
	tasksRepo := cache.New(remote, local, zapLogger.Named("tasks"),
		cache.WithDispatcher(dispatcher),
		cache.WithWriteFailureHook(failures.Record),
	)

	if cfg.Sync.RefreshInterval > 0 {
		refresher, err := services.NewRefresher(tasksRepo, mon, zapLogger, services.RefresherConfig{
			Interval: cfg.Sync.RefreshInterval,
		})
		if err != nil {
			zapLogger.Fatal("invalid refresh configuration", zap.Error(err))
		}
		refresher.Start()
		manager.Register("refresher", func(ctx context.Context) error {
			refresher.Stop(ctx)
			return nil
		})
	}

	taskUseCase := taskUC.New(tasksRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout).WithBase(appCtx)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, failures, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("remote", cfg.Remote.Backend),
			zap.String("local", cfg.Local.Backend))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
