package worker

import (
	"context"
	"errors"
	"time"

	"tableside/internal/dto"

	"go.uber.org/zap"
)

type Syncer interface {
	SyncPendingOrders(ctx context.Context) (*dto.SyncResult, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SyncWorker sweeps the queue at startup, on every tick while the remote API
// is reachable, and immediately when connectivity comes back.
type SyncWorker struct {
	syncer       Syncer
	health       HealthChecker
	interval     time.Duration
	probeTimeout time.Duration
	logger       *zap.Logger

	online bool
}

func NewSyncWorker(syncer Syncer, health HealthChecker, interval, probeTimeout time.Duration, logger *zap.Logger) *SyncWorker {
	return &SyncWorker{
		syncer:       syncer,
		health:       health,
		interval:     interval,
		probeTimeout: probeTimeout,
		logger:       logger,
		online:       true,
	}
}

// Run blocks until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) {
	w.logger.Info("sync worker started", zap.Duration("interval", w.interval))

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	if !w.probe(ctx) {
		return
	}
	w.sweep(ctx)
}

// probe reports reachability and logs transitions only.
func (w *SyncWorker) probe(ctx context.Context) bool {
	if w.health == nil {
		return true
	}

	probeCtx := ctx
	if w.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, w.probeTimeout)
		defer cancel()
	}

	err := w.health.Ping(probeCtx)
	switch {
	case err != nil && w.online:
		w.online = false
		w.logger.Warn("remote API unreachable, sync paused", zap.Error(err))
	case err == nil && !w.online:
		w.online = true
		w.logger.Info("remote API reachable again, syncing")
	}
	return err == nil
}

func (w *SyncWorker) sweep(ctx context.Context) {
	result, err := w.syncer.SyncPendingOrders(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Error("sync sweep failed", zap.Error(err))
		return
	}

	if result.Skipped {
		w.logger.Debug("sync sweep skipped, another sweep is running")
	}
}
