package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"
	"tableside/internal/server/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LocalOrderService interface {
	SaveOrderLocally(ctx context.Context, payload domain.OrderPayload) (*domain.LocalOrder, error)
	GetLocalOrders(ctx context.Context) ([]domain.LocalOrder, error)
	DeleteLocalOrder(ctx context.Context, localID string) error
	PendingCount(ctx context.Context) (int, error)
}

type SubmitCartUseCase interface {
	SubmitCart(ctx context.Context, req dto.SubmitCartRequest) (*dto.SubmitCartResult, error)
}

type LocalOrderController struct {
	service LocalOrderService
	submit  SubmitCartUseCase
	logger  *zap.Logger
}

func NewLocalOrderController(service LocalOrderService, submit SubmitCartUseCase, logger *zap.Logger) *LocalOrderController {
	return &LocalOrderController{
		service: service,
		submit:  submit,
		logger:  logger,
	}
}

func (c *LocalOrderController) Routes(r chi.Router) {
	r.Post("/orders/submit", c.SubmitCart)
	r.Post("/orders/local", c.SaveLocal)
	r.Get("/orders/local", c.ListLocal)
	r.Delete("/orders/local/{localId}", c.DeleteLocal)
	r.Get("/orders/pending-count", c.PendingCount)
}

func (c *LocalOrderController) SubmitCart(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.SubmitCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := c.submit.SubmitCart(r.Context(), req)
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	status := http.StatusCreated
	if result.Offline {
		status = http.StatusAccepted
	}

	response.WriteJSON(w, status, dto.SubmitCartResponse{
		TraceID:     traceID,
		Offline:     result.Offline,
		Order:       result.RemoteOrder,
		LocalOrder:  result.LocalOrder,
		PendingSync: result.PendingSync,
	}, logger)
}

func (c *LocalOrderController) SaveLocal(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var payload domain.OrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.service.SaveOrderLocally(r.Context(), payload)
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusCreated, dto.LocalOrderResponse{TraceID: traceID, Order: *order}, logger)
}

func (c *LocalOrderController) ListLocal(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	orders, err := c.service.GetLocalOrders(r.Context())
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.LocalOrdersResponse{
		TraceID: traceID,
		Orders:  orders,
		Count:   len(orders),
	}, logger)
}

func (c *LocalOrderController) DeleteLocal(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	localID := chi.URLParam(r, "localId")
	if err := c.service.DeleteLocalOrder(r.Context(), localID); err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		TraceID:   traceID,
		Message:   "local order deleted",
		Timestamp: time.Now().UTC(),
	}, logger)
}

func (c *LocalOrderController) PendingCount(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	count, err := c.service.PendingCount(r.Context())
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.PendingCountResponse{TraceID: traceID, Pending: count}, logger)
}
