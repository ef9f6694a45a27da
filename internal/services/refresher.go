package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// TaskSyncer is the part of the task repository the refresher drives.
type TaskSyncer interface {
	RefreshTasks()
	GetTasks(ctx context.Context) ([]domain.Task, error)
}

// RefresherConfig controls how often the cache is re-synced from the remote.
type RefresherConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Refresher periodically marks the task cache dirty and reloads it, which
// also rewrites the local store from the remote.
type Refresher struct {
	syncer  TaskSyncer
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RefresherConfig
}

func NewRefresher(syncer TaskSyncer, monitor ConnectionHealth, logger *zap.Logger, cfg RefresherConfig) (*Refresher, error) {
	if cfg.Interval < time.Second {
		return nil, fmt.Errorf("refresh interval %s is below one second", cfg.Interval)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Refresher{
		syncer:  syncer,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := r.Refresh(ctx); err != nil {
			r.logger.Warn("task refresh failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}

	return r, nil
}

// Start launches the cron scheduler.
func (r *Refresher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("task refresher started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running refresh to finish or ctx to end.
func (r *Refresher) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("task refresher stopped")
}

// Refresh forces one full reload from the remote. It is skipped while the
// monitor reports the remote offline.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping task refresh (offline)")
		return nil
	}

	r.syncer.RefreshTasks()
	tasks, err := r.syncer.GetTasks(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("tasks refreshed", zap.Int("count", len(tasks)))
	return nil
}
