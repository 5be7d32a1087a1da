package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultSessionID = "default"

type Modifier struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

// CartItem is a staged, not yet submitted order line. At most one exists per
// (MenuItemID, SessionID).
type CartItem struct {
	ID         int64           `json:"id"`
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Modifiers  []Modifier      `json:"modifiers"`
	Notes      string          `json:"notes"`
	SessionID  string          `json:"sessionId"`
	AddedAt    time.Time       `json:"addedAt"`
}

func (c CartItem) ModifierTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range c.Modifiers {
		total = total.Add(m.PriceDelta)
	}
	return total
}

// LineTotal is (unit price + modifiers) × quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Add(c.ModifierTotal()).Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Merge folds a repeated add into c. Quantities add up; modifiers are replaced
// when the incoming item carries a list (even an empty one) and notes when
// they are non-empty.
func (c *CartItem) Merge(incoming CartItem) {
	c.Quantity += incoming.Quantity
	if incoming.Modifiers != nil {
		c.Modifiers = incoming.Modifiers
	}
	if incoming.Notes != "" {
		c.Notes = incoming.Notes
	}
}

func (c CartItem) ToOrderItem() OrderItemPayload {
	item := OrderItemPayload{
		MenuItemID: c.MenuItemID,
		Quantity:   c.Quantity,
		Notes:      c.Notes,
	}
	for _, m := range c.Modifiers {
		item.Modifiers = append(item.Modifiers, ModifierPayload{
			ModifierID: m.ID,
			Name:       m.Name,
			Price:      m.PriceDelta,
		})
	}
	return item
}

func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func CartItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func SessionOrDefault(sessionID string) string {
	if sessionID == "" {
		return DefaultSessionID
	}
	return sessionID
}
