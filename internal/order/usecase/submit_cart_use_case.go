package usecase

import (
	"context"
	"time"

	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"

	"go.uber.org/zap"
)

type CartReader interface {
	GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type OrderStager interface {
	StageOrder(ctx context.Context, localID string, payload domain.OrderPayload) (*domain.LocalOrder, error)
	PendingCount(ctx context.Context) (int, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload, idempotencyKey string) (*domain.RemoteOrder, error)
}

// SubmitCartUseCase turns a session's cart into an order, online when the
// remote API answers and staged for sync when it does not.
type SubmitCartUseCase struct {
	cart          CartReader
	store         OrderStager
	remote        OrderCreator
	logger        *zap.Logger
	remoteTimeout time.Duration
	now           func() time.Time
}

func NewSubmitCartUseCase(cart CartReader, store OrderStager, remote OrderCreator, logger *zap.Logger, remoteTimeout time.Duration) *SubmitCartUseCase {
	if remoteTimeout <= 0 {
		remoteTimeout = defaultRemoteTimeout
	}
	return &SubmitCartUseCase{
		cart:          cart,
		store:         store,
		remote:        remote,
		logger:        logger,
		remoteTimeout: remoteTimeout,
		now:           time.Now,
	}
}

func (uc *SubmitCartUseCase) SubmitCart(ctx context.Context, req dto.SubmitCartRequest) (*dto.SubmitCartResult, error) {
	if req.TableID == "" {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "tableId",
			Message: "tableId is required",
		})
	}

	items, err := uc.cart.GetCart(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("cart is empty", apperrors.ValidationDetail{
			Field:   "cart",
			Message: "add at least one item before submitting",
		})
	}

	payload := domain.NewOrderPayload(req.TableID, items, req.SpecialInstructions, req.SessionID)
	// Generated before the first attempt so an offline fallback replays
	// under the same idempotency key.
	localID := domain.NewLocalID(uc.now())
	logger := uc.logger.With(zap.String("localId", localID), zap.String("tableId", req.TableID))

	callCtx, cancel := context.WithTimeout(ctx, uc.remoteTimeout)
	order, err := uc.remote.CreateOrder(callCtx, payload, localID)
	cancel()

	if err == nil {
		logger.Info("order submitted", zap.String("remoteOrderId", order.ID), zap.Int("itemCount", len(payload.Items)))
		uc.clearCart(ctx, req.SessionID, logger)
		return &dto.SubmitCartResult{RemoteOrder: order, PendingSync: uc.pendingCount(ctx, logger)}, nil
	}

	if !apperrors.IsRetryable(err) {
		logger.Warn("order rejected by remote API", zap.Error(err))
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	logger.Warn("remote API unreachable, staging order for sync", zap.Error(err))

	local, err := uc.store.StageOrder(ctx, localID, payload)
	if err != nil {
		return nil, err
	}

	uc.clearCart(ctx, req.SessionID, logger)
	return &dto.SubmitCartResult{Offline: true, LocalOrder: local, PendingSync: uc.pendingCount(ctx, logger)}, nil
}

// clearCart runs after the order is safe. A failure leaves a stale cart but
// must not report the order as lost.
func (uc *SubmitCartUseCase) clearCart(ctx context.Context, sessionID string, logger *zap.Logger) {
	if err := uc.cart.ClearCart(ctx, sessionID); err != nil {
		logger.Error("failed to clear cart after submit", zap.Error(err))
	}
}

func (uc *SubmitCartUseCase) pendingCount(ctx context.Context, logger *zap.Logger) int {
	count, err := uc.store.PendingCount(ctx)
	if err != nil {
		logger.Warn("failed to count pending orders", zap.Error(err))
		return 0
	}
	return count
}
