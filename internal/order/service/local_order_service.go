package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"tableside/internal/domain"
	apperrors "tableside/internal/errors"
	"tableside/internal/infrastructure/mysql"

	"go.uber.org/zap"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type LocalOrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order domain.LocalOrder) (int64, error)
	FindByLocalID(ctx context.Context, localID string) (*domain.LocalOrder, error)
	ListAll(ctx context.Context) ([]domain.LocalOrder, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, localID, status string) error
	DeleteByLocalID(ctx context.Context, tx *sql.Tx, localID string) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type SyncQueueRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, entry domain.SyncQueueEntry) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.SyncQueueEntry, error)
	ListByType(ctx context.Context, entryType string) ([]domain.SyncQueueEntry, error)
	CountByType(ctx context.Context, entryType string) (int, error)
	DeleteByLocalID(ctx context.Context, tx *sql.Tx, localID string) (int64, error)
	RecordFailure(ctx context.Context, tx *sql.Tx, id int64, attempts int, nextAttemptAt time.Time, lastError string, parked bool) error
	ResetAttempts(ctx context.Context, tx *sql.Tx, id int64) error
}

// LocalOrderService owns the offline order tables. A local order and its
// queue entry are always written and removed together.
type LocalOrderService struct {
	db     TransactionManager
	orders LocalOrderRepository
	queue  SyncQueueRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewLocalOrderService(db TransactionManager, orders LocalOrderRepository, queue SyncQueueRepository, logger *zap.Logger) *LocalOrderService {
	return &LocalOrderService{
		db:     db,
		orders: orders,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

func (s *LocalOrderService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveOrderLocally stages payload under a freshly generated local id.
func (s *LocalOrderService) SaveOrderLocally(ctx context.Context, payload domain.OrderPayload) (*domain.LocalOrder, error) {
	return s.StageOrder(ctx, domain.NewLocalID(s.now()), payload)
}

// StageOrder stores the order and its sync entry under a caller-chosen local
// id, so a submit that already tried the remote API keeps the same
// idempotency key.
func (s *LocalOrderService) StageOrder(ctx context.Context, localID string, payload domain.OrderPayload) (*domain.LocalOrder, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := domain.LocalOrder{
		LocalID:   localID,
		TableID:   payload.TableID,
		Status:    domain.LocalOrderStaged,
		Payload:   payload,
		CreatedAt: now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.orders.Insert(ctx, tx, order)
		if err != nil {
			return err
		}
		order.ID = id

		_, err = s.queue.Insert(ctx, tx, domain.SyncQueueEntry{
			Type:      domain.SyncEntryTypeOrder,
			LocalID:   localID,
			Data:      payload,
			Timestamp: now,
		})
		return err
	})
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("local order %s already exists", localID))
		}
		return nil, err
	}

	s.logger.Info("order saved locally",
		zap.String("localId", localID),
		zap.String("tableId", payload.TableID),
		zap.Int("itemCount", len(payload.Items)),
	)

	return &order, nil
}

func (s *LocalOrderService) GetLocalOrders(ctx context.Context) ([]domain.LocalOrder, error) {
	return s.orders.ListAll(ctx)
}

func (s *LocalOrderService) GetLocalOrder(ctx context.Context, localID string) (*domain.LocalOrder, error) {
	return s.orders.FindByLocalID(ctx, localID)
}

// DeleteLocalOrder discards an unsynced order together with its queue entry.
func (s *LocalOrderService) DeleteLocalOrder(ctx context.Context, localID string) error {
	var deletedOrders, deletedEntries int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if deletedEntries, err = s.queue.DeleteByLocalID(ctx, tx, localID); err != nil {
			return err
		}
		deletedOrders, err = s.orders.DeleteByLocalID(ctx, tx, localID)
		return err
	})
	if err != nil {
		return err
	}

	if deletedOrders == 0 && deletedEntries == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("local order %s not found", localID))
	}

	s.logger.Info("local order discarded", zap.String("localId", localID))
	return nil
}

func (s *LocalOrderService) PendingCount(ctx context.Context) (int, error) {
	return s.queue.CountByType(ctx, domain.SyncEntryTypeOrder)
}

// ListPending returns the order entries in the order they must be replayed.
func (s *LocalOrderService) ListPending(ctx context.Context) ([]domain.SyncQueueEntry, error) {
	return s.queue.ListByType(ctx, domain.SyncEntryTypeOrder)
}

func (s *LocalOrderService) MarkStatus(ctx context.Context, localID, status string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.orders.UpdateStatus(ctx, tx, localID, status)
	})
}

// CompleteSync drops the entry and its local order once the remote API has
// accepted the order.
func (s *LocalOrderService) CompleteSync(ctx context.Context, entry domain.SyncQueueEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.queue.DeleteByLocalID(ctx, tx, entry.LocalID); err != nil {
			return err
		}
		_, err := s.orders.DeleteByLocalID(ctx, tx, entry.LocalID)
		return err
	})
}

// RecordFailure stores a failed replay and returns the local order to
// staged, or parks both when parked is set.
func (s *LocalOrderService) RecordFailure(ctx context.Context, entry domain.SyncQueueEntry, attempts int, nextAttemptAt time.Time, lastError string, parked bool) error {
	status := domain.LocalOrderStaged
	if parked {
		status = domain.LocalOrderParked
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.queue.RecordFailure(ctx, tx, entry.ID, attempts, nextAttemptAt.UTC(), lastError, parked); err != nil {
			return err
		}
		err := s.orders.UpdateStatus(ctx, tx, entry.LocalID, status)
		if _, ok := apperrors.IsNotFoundError(err); ok {
			s.logger.Warn("sync entry has no local order", zap.Int64("entryId", entry.ID), zap.String("localId", entry.LocalID))
			return nil
		}
		return err
	})
}

// RetryEntry clears the attempt history of an entry so the next sweep
// replays it.
func (s *LocalOrderService) RetryEntry(ctx context.Context, id int64) (*domain.SyncQueueEntry, error) {
	entry, err := s.queue.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.queue.ResetAttempts(ctx, tx, id); err != nil {
			return err
		}
		err := s.orders.UpdateStatus(ctx, tx, entry.LocalID, domain.LocalOrderStaged)
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	entry.Attempts = 0
	entry.NextAttemptAt = nil
	entry.Parked = false

	s.logger.Info("sync entry reset", zap.Int64("entryId", id), zap.String("localId", entry.LocalID))
	return entry, nil
}

// PurgeSynced deletes local orders whose queue entry is gone.
func (s *LocalOrderService) PurgeSynced(ctx context.Context) (int64, error) {
	return s.orders.DeleteOrphans(ctx)
}

// ValidatePayload checks the fields the remote API requires before an order
// is accepted into the queue.
func ValidatePayload(payload domain.OrderPayload) error {
	var details []apperrors.ValidationDetail

	if payload.TableID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "table_id",
			Message: "table_id is required",
		})
	}

	if len(payload.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "at least one item is required",
		})
	}

	for idx, item := range payload.Items {
		if item.MenuItemID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].menu_item_id",
				Message: "menu_item_id is required",
			})
		}
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be at least 1",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}
