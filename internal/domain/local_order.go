package domain

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LocalOrderStaged  = "staged"
	LocalOrderSyncing = "syncing"
	LocalOrderParked  = "parked"
)

type ModifierPayload struct {
	ModifierID string          `json:"modifier_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
}

type OrderItemPayload struct {
	MenuItemID string            `json:"menu_item_id"`
	Quantity   int               `json:"quantity"`
	Modifiers  []ModifierPayload `json:"modifiers,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

// OrderPayload is the body of the remote create-order call, stored verbatim
// while an order waits to be synced.
type OrderPayload struct {
	TableID             string             `json:"table_id"`
	Items               []OrderItemPayload `json:"items"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	CustomerSessionID   string             `json:"customer_session_id,omitempty"`
}

// LocalOrder is the shadow copy of an order that was accepted while the
// remote API was unreachable.
type LocalOrder struct {
	ID        int64        `json:"id"`
	LocalID   string       `json:"localId"`
	TableID   string       `json:"tableId"`
	Status    string       `json:"status"`
	Payload   OrderPayload `json:"payload"`
	CreatedAt time.Time    `json:"createdAt"`
}

const localIDRandomLen = 9

// NewLocalID builds "<unix millis>-<9 random base36 chars>". It cannot
// collide with remote order ids, which are UUIDs.
func NewLocalID(now time.Time) string {
	id := uuid.New()
	random := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(random) < localIDRandomLen {
		random = strings.Repeat("0", localIDRandomLen-len(random)) + random
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), random[len(random)-localIDRandomLen:])
}

func NewOrderPayload(tableID string, items []CartItem, specialInstructions, sessionID string) OrderPayload {
	payload := OrderPayload{
		TableID:             tableID,
		Items:               make([]OrderItemPayload, 0, len(items)),
		SpecialInstructions: specialInstructions,
		CustomerSessionID:   sessionID,
	}
	for _, item := range items {
		payload.Items = append(payload.Items, item.ToOrderItem())
	}
	return payload
}
