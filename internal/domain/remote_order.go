package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RemoteOrderPending   = "pending"
	RemoteOrderCancelled = "cancelled"
)

type RemoteOrderItem struct {
	ID                  string          `json:"id"`
	MenuItemID          string          `json:"menu_item_id"`
	ItemName            string          `json:"item_name,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
}

// RemoteOrder is an order as persisted by the restaurant API.
type RemoteOrder struct {
	ID                  string            `json:"id"`
	TableID             string            `json:"table_id"`
	TableNumber         int               `json:"table_number,omitempty"`
	WaiterID            *string           `json:"waiter_id,omitempty"`
	WaiterName          *string           `json:"waiter_name,omitempty"`
	Status              string            `json:"status"`
	Subtotal            decimal.Decimal   `json:"subtotal"`
	TaxAmount           decimal.Decimal   `json:"tax_amount"`
	TotalAmount         decimal.Decimal   `json:"total_amount"`
	SpecialInstructions *string           `json:"special_instructions,omitempty"`
	Items               []RemoteOrderItem `json:"items,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}
