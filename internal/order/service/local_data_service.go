package service

import (
	"context"
	"database/sql"
	"fmt"

	"tableside/internal/dto"

	"go.uber.org/zap"
)

type TableWiper interface {
	DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error)
}

// LocalDataService wipes the agent's local store when a device is handed
// over. Unsynced orders are lost, so callers must confirm explicitly.
type LocalDataService struct {
	db     TransactionManager
	carts  TableWiper
	orders TableWiper
	queue  TableWiper
	logger *zap.Logger
}

func NewLocalDataService(db TransactionManager, carts, orders, queue TableWiper, logger *zap.Logger) *LocalDataService {
	return &LocalDataService{
		db:     db,
		carts:  carts,
		orders: orders,
		queue:  queue,
		logger: logger,
	}
}

// ClearAllData empties carts, local orders and the sync queue in one
// transaction.
func (s *LocalDataService) ClearAllData(ctx context.Context) (*dto.ClearedData, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var cleared dto.ClearedData
	if cleared.SyncEntries, err = s.queue.DeleteAll(ctx, tx); err != nil {
		return nil, err
	}
	if cleared.LocalOrders, err = s.orders.DeleteAll(ctx, tx); err != nil {
		return nil, err
	}
	if cleared.CartItems, err = s.carts.DeleteAll(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Warn("local data cleared",
		zap.Int64("cartItems", cleared.CartItems),
		zap.Int64("localOrders", cleared.LocalOrders),
		zap.Int64("syncEntries", cleared.SyncEntries),
	)
	return &cleared, nil
}
