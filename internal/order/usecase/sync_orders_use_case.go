package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tableside/internal/config"
	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"

	"go.uber.org/zap"
)

const defaultRemoteTimeout = 10 * time.Second

type SyncStore interface {
	ListPending(ctx context.Context) ([]domain.SyncQueueEntry, error)
	MarkStatus(ctx context.Context, localID, status string) error
	CompleteSync(ctx context.Context, entry domain.SyncQueueEntry) error
	RecordFailure(ctx context.Context, entry domain.SyncQueueEntry, attempts int, nextAttemptAt time.Time, lastError string, parked bool) error
	PurgeSynced(ctx context.Context) (int64, error)
}

type RemoteOrderClient interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload, idempotencyKey string) (*domain.RemoteOrder, error)
	ListOrders(ctx context.Context) ([]domain.RemoteOrder, error)
}

type SweepLock interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

type EventPublisher interface {
	PublishOrderSynced(ctx context.Context, event domain.OrderSyncedEvent) error
}

// SyncOrdersUseCase replays queued offline orders against the remote API.
type SyncOrdersUseCase struct {
	store         SyncStore
	remote        RemoteOrderClient
	lock          SweepLock
	publisher     EventPublisher
	logger        *zap.Logger
	cfg           config.SyncConfig
	remoteTimeout time.Duration
	now           func() time.Time

	mu sync.Mutex
}

// NewSyncOrdersUseCase builds the coordinator. lock and publisher may be nil.
func NewSyncOrdersUseCase(
	store SyncStore,
	remote RemoteOrderClient,
	lock SweepLock,
	publisher EventPublisher,
	logger *zap.Logger,
	cfg config.SyncConfig,
	remoteTimeout time.Duration,
) *SyncOrdersUseCase {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if remoteTimeout <= 0 {
		remoteTimeout = defaultRemoteTimeout
	}
	return &SyncOrdersUseCase{
		store:         store,
		remote:        remote,
		lock:          lock,
		publisher:     publisher,
		logger:        logger,
		cfg:           cfg,
		remoteTimeout: remoteTimeout,
		now:           time.Now,
	}
}

// SyncPendingOrders runs one sweep over the queue. A sweep that finds
// another one in progress returns a skipped result instead of waiting.
func (uc *SyncOrdersUseCase) SyncPendingOrders(ctx context.Context) (*dto.SyncResult, error) {
	result := &dto.SyncResult{
		Orders:    []domain.RemoteOrder{},
		StartedAt: uc.now().UTC(),
	}

	if !uc.mu.TryLock() {
		uc.logger.Debug("sync already running in this process, skipping")
		return uc.skipped(result), nil
	}
	defer uc.mu.Unlock()

	if uc.lock != nil {
		release, acquired, err := uc.lock.TryAcquire(ctx)
		switch {
		case err != nil:
			uc.logger.Warn("sync lock unavailable, continuing with local guard only", zap.Error(err))
		case !acquired:
			uc.logger.Debug("sync held by another agent, skipping")
			return uc.skipped(result), nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					uc.logger.Warn("failed to release sync lock", zap.Error(err))
				}
			}()
		}
	}

	entries, err := uc.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading sync queue: %w", err)
	}

	uc.logger.Info("sync started", zap.Int("pending", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = uc.now().UTC()
			return result, err
		}

		if entry.Parked {
			result.Parked++
			continue
		}
		if !entry.Due(uc.now()) {
			result.Deferred++
			continue
		}

		result.Attempted++
		if err := uc.replay(ctx, entry, result); err != nil {
			result.FinishedAt = uc.now().UTC()
			return result, err
		}
	}

	uc.refresh(ctx, result)

	reconciled, err := uc.store.PurgeSynced(ctx)
	if err != nil {
		result.FinishedAt = uc.now().UTC()
		return result, fmt.Errorf("reconciling local orders: %w", err)
	}
	result.Reconciled = int(reconciled)
	result.FinishedAt = uc.now().UTC()

	uc.logger.Info("sync finished",
		zap.Int("attempted", result.Attempted),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
		zap.Int("deferred", result.Deferred),
		zap.Int("parked", result.Parked),
		zap.Int("reconciled", result.Reconciled),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)

	return result, nil
}

// replay sends one entry. Remote failures are recorded on the entry and
// swallowed; only storage faults and cancellation are returned.
func (uc *SyncOrdersUseCase) replay(ctx context.Context, entry domain.SyncQueueEntry, result *dto.SyncResult) error {
	logger := uc.logger.With(zap.Int64("entryId", entry.ID), zap.String("localId", entry.LocalID))

	if err := uc.store.MarkStatus(ctx, entry.LocalID, domain.LocalOrderSyncing); err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			return fmt.Errorf("marking local order %s syncing: %w", entry.LocalID, err)
		}
		logger.Warn("sync entry has no local order")
	}

	// Once the create has been sent, bookkeeping must outlive a cancelled
	// caller. An accepted order left in the queue would be created twice.
	bookCtx := context.WithoutCancel(ctx)

	callCtx, cancel := context.WithTimeout(ctx, uc.remoteTimeout)
	order, err := uc.remote.CreateOrder(callCtx, entry.Data, entry.LocalID)
	cancel()

	if err == nil {
		if err := uc.store.CompleteSync(bookCtx, entry); err != nil {
			return fmt.Errorf("completing sync of %s: %w", entry.LocalID, err)
		}
		result.Synced++
		logger.Info("order synced", zap.String("remoteOrderId", order.ID), zap.Int("attempts", entry.Attempts+1))
		uc.publish(bookCtx, entry, order, logger)
		return nil
	}

	if ctx.Err() != nil {
		if err := uc.store.MarkStatus(bookCtx, entry.LocalID, domain.LocalOrderStaged); err != nil {
			logger.Warn("failed to restore local order status", zap.Error(err))
		}
		return ctx.Err()
	}

	attempts := entry.Attempts + 1
	retryable := apperrors.IsRetryable(err)
	parked := !retryable && attempts >= uc.cfg.MaxAttempts
	nextAttemptAt := uc.now().Add(domain.Backoff(attempts, uc.cfg.BaseDelay, uc.cfg.MaxDelay))

	if recErr := uc.store.RecordFailure(bookCtx, entry, attempts, nextAttemptAt, err.Error(), parked); recErr != nil {
		return fmt.Errorf("recording sync failure of %s: %w", entry.LocalID, recErr)
	}

	result.Failed++
	if parked {
		result.Parked++
		logger.Error("order rejected by remote API, parked",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil
	}

	logger.Warn("order sync failed, will retry",
		zap.Int("attempts", attempts),
		zap.Bool("retryable", retryable),
		zap.Time("nextAttemptAt", nextAttemptAt),
		zap.Error(err),
	)
	return nil
}

func (uc *SyncOrdersUseCase) publish(ctx context.Context, entry domain.SyncQueueEntry, order *domain.RemoteOrder, logger *zap.Logger) {
	if uc.publisher == nil {
		return
	}

	event := domain.OrderSyncedEvent{
		Type:          domain.EventOrderSynced,
		LocalID:       entry.LocalID,
		RemoteOrderID: order.ID,
		TableID:       entry.Data.TableID,
		Attempts:      entry.Attempts + 1,
		Timestamp:     uc.now().UTC(),
	}
	if err := uc.publisher.PublishOrderSynced(ctx, event); err != nil {
		logger.Warn("failed to publish sync event", zap.Error(err))
	}
}

// refresh reloads the canonical order list. A failure is reported on the
// result without failing the sweep.
func (uc *SyncOrdersUseCase) refresh(ctx context.Context, result *dto.SyncResult) {
	callCtx, cancel := context.WithTimeout(ctx, uc.remoteTimeout)
	defer cancel()

	orders, err := uc.remote.ListOrders(callCtx)
	if err != nil {
		uc.logger.Warn("failed to refresh remote orders", zap.Error(err))
		result.RefreshError = err.Error()
		return
	}
	result.Orders = orders
}

func (uc *SyncOrdersUseCase) skipped(result *dto.SyncResult) *dto.SyncResult {
	result.Skipped = true
	result.FinishedAt = uc.now().UTC()
	return result
}
