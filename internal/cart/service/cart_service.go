package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"
	"tableside/internal/infrastructure/mysql"

	"go.uber.org/zap"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type CartItemRepository interface {
	FindByMenuItemAndSessionForUpdate(ctx context.Context, tx *sql.Tx, menuItemID, sessionID string) (*domain.CartItem, error)
	Insert(ctx context.Context, tx *sql.Tx, item domain.CartItem) (int64, error)
	UpdateMerged(ctx context.Context, tx *sql.Tx, item domain.CartItem) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.CartItem, error)
}

type CartService struct {
	db     TransactionManager
	repo   CartItemRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(db TransactionManager, repo CartItemRepository, logger *zap.Logger) *CartService {
	return &CartService{
		db:     db,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// AddItem stages item in its session's cart. Adding a menu item that is
// already in the cart folds into the existing row instead of creating a
// second one.
func (s *CartService) AddItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	if item.Quantity < 1 {
		return nil, apperrors.NewValidationError("quantity must be at least 1", apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		})
	}
	item.SessionID = domain.SessionOrDefault(item.SessionID)

	// Two first-time adds of the same item can race on the unique index; the
	// loser retries once and takes the merge path.
	const maxAttempts = 2
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stored, err := s.addItemTx(ctx, item)
		if err == nil {
			return stored, nil
		}
		if !mysql.IsDuplicateEntry(err) && !mysql.IsDeadlock(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("cart add collided, retrying",
			zap.String("menuItemId", item.MenuItemID),
			zap.String("sessionId", item.SessionID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

func (s *CartService) addItemTx(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning cart transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.repo.FindByMenuItemAndSessionForUpdate(ctx, tx, item.MenuItemID, item.SessionID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			return nil, err
		}
		existing = nil
	}

	var stored domain.CartItem
	if existing != nil {
		stored = *existing
		stored.Merge(item)
		if err := s.repo.UpdateMerged(ctx, tx, stored); err != nil {
			return nil, err
		}
	} else {
		stored = item
		stored.AddedAt = s.now().UTC()
		id, err := s.repo.Insert(ctx, tx, stored)
		if err != nil {
			return nil, err
		}
		stored.ID = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cart transaction: %w", err)
	}

	s.logger.Debug("cart item staged",
		zap.Int64("id", stored.ID),
		zap.String("menuItemId", stored.MenuItemID),
		zap.String("sessionId", stored.SessionID),
		zap.Int("quantity", stored.Quantity),
		zap.Bool("merged", existing != nil),
	)

	return &stored, nil
}

// UpdateQuantity sets the quantity of a cart row. A quantity of zero or less
// removes the row.
func (s *CartService) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity <= 0 {
		return s.repo.Delete(ctx, id)
	}
	return s.repo.UpdateQuantity(ctx, id, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	sessionID = domain.SessionOrDefault(sessionID)

	deleted, err := s.repo.DeleteBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	s.logger.Debug("cart cleared", zap.String("sessionId", sessionID), zap.Int64("deleted", deleted))
	return nil
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	return s.repo.ListBySession(ctx, domain.SessionOrDefault(sessionID))
}

func (s *CartService) ItemCount(ctx context.Context, sessionID string) (int, error) {
	items, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return domain.CartItemCount(items), nil
}

func (s *CartService) Summary(ctx context.Context, sessionID string) (*dto.CartSummary, error) {
	sessionID = domain.SessionOrDefault(sessionID)

	items, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.CartSummary{
		SessionID:   sessionID,
		Items:       items,
		TotalItems:  domain.CartItemCount(items),
		TotalAmount: domain.CartTotal(items),
	}, nil
}
