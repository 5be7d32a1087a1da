package dto

import (
	"tableside/internal/domain"

	"github.com/shopspring/decimal"
)

type ModifierRequest struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

type AddCartItemRequest struct {
	MenuItemID string            `json:"menuItemId"`
	Name       string            `json:"name"`
	UnitPrice  decimal.Decimal   `json:"unitPrice"`
	Quantity   int               `json:"quantity"`
	Modifiers  []ModifierRequest `json:"modifiers"`
	Notes      string            `json:"notes"`
	SessionID  string            `json:"sessionId"`
}

type UpdateCartItemRequest struct {
	Quantity  *int   `json:"quantity"`
	SessionID string `json:"sessionId"`
}

type CartSummary struct {
	SessionID   string            `json:"sessionId"`
	Items       []domain.CartItem `json:"items"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

type CartSummaryResponse struct {
	TraceID string `json:"traceId"`
	CartSummary
}
