package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"
	"tableside/internal/server/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxModifiers = 50

type CartService interface {
	AddItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	RemoveItem(ctx context.Context, id int64) error
	ClearCart(ctx context.Context, sessionID string) error
	Summary(ctx context.Context, sessionID string) (*dto.CartSummary, error)
}

type CartController struct {
	service CartService
	logger  *zap.Logger
}

func NewCartController(service CartService, logger *zap.Logger) *CartController {
	return &CartController{
		service: service,
		logger:  logger,
	}
}

func (c *CartController) Routes(r chi.Router) {
	r.Get("/cart", c.GetCart)
	r.Delete("/cart", c.ClearCart)
	r.Post("/cart/items", c.AddItem)
	r.Patch("/cart/items/{id}", c.UpdateItem)
	r.Delete("/cart/items/{id}", c.RemoveItem)
}

func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	c.writeSummary(w, r, traceID, r.URL.Query().Get("sessionId"), http.StatusOK, logger)
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := validateAddCartItemRequest(req); err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	item := domain.CartItem{
		MenuItemID: req.MenuItemID,
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		SessionID:  req.SessionID,
	}
	if req.Modifiers != nil {
		item.Modifiers = make([]domain.Modifier, len(req.Modifiers))
		for i, m := range req.Modifiers {
			item.Modifiers[i] = domain.Modifier{ID: m.ID, Name: m.Name, PriceDelta: m.PriceDelta}
		}
	}

	stored, err := c.service.AddItem(r.Context(), item)
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	logger.Info("cart item added", zap.Int64("id", stored.ID), zap.String("menuItemId", stored.MenuItemID), zap.Int("quantity", stored.Quantity))
	c.writeSummary(w, r, traceID, stored.SessionID, http.StatusCreated, logger)
}

func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.parseItemID(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.Quantity == nil {
		response.WriteValidationError(w, traceID, "validation failed", logger, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity is required",
		})
		return
	}

	if err := c.service.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	c.writeSummary(w, r, traceID, req.SessionID, http.StatusOK, logger)
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.parseItemID(w, r, traceID, logger)
	if !ok {
		return
	}

	if err := c.service.RemoveItem(r.Context(), id); err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	c.writeSummary(w, r, traceID, r.URL.Query().Get("sessionId"), http.StatusOK, logger)
}

func (c *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	sessionID := r.URL.Query().Get("sessionId")
	if err := c.service.ClearCart(r.Context(), sessionID); err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	logger.Info("cart cleared", zap.String("sessionId", domain.SessionOrDefault(sessionID)))
	c.writeSummary(w, r, traceID, sessionID, http.StatusOK, logger)
}

func (c *CartController) parseItemID(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("invalid cart item id in path", zap.String("id", chi.URLParam(r, "id")))
		response.WriteValidationError(w, traceID, "invalid id", logger, apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (c *CartController) writeSummary(w http.ResponseWriter, r *http.Request, traceID, sessionID string, status int, logger *zap.Logger) {
	summary, err := c.service.Summary(r.Context(), sessionID)
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, status, dto.CartSummaryResponse{
		TraceID:     traceID,
		CartSummary: *summary,
	}, logger)
}

func validateAddCartItemRequest(req dto.AddCartItemRequest) error {
	var details []apperrors.ValidationDetail

	if req.MenuItemID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "menuItemId",
			Message: "menuItemId is required",
		})
	}

	if req.Quantity < 1 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		})
	}

	if req.UnitPrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "unitPrice",
			Message: "unitPrice must be non-negative",
		})
	}

	if len(req.Modifiers) > maxModifiers {
		details = append(details, apperrors.ValidationDetail{
			Field:   "modifiers",
			Message: "modifiers exceeds maximum of " + strconv.Itoa(maxModifiers),
		})
	}

	for idx, m := range req.Modifiers {
		if m.ID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "modifiers[" + strconv.Itoa(idx) + "].id",
				Message: "each modifier id is required",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}
