package dto

import (
	"time"

	"tableside/internal/domain"
)

type SubmitCartRequest struct {
	SessionID           string `json:"sessionId"`
	TableID             string `json:"tableId"`
	SpecialInstructions string `json:"specialInstructions"`
}

// SubmitCartResult carries exactly one of RemoteOrder or LocalOrder. Offline
// is set when the order was staged locally for a later sync.
type SubmitCartResult struct {
	Offline     bool
	RemoteOrder *domain.RemoteOrder
	LocalOrder  *domain.LocalOrder
	PendingSync int
}

type SubmitCartResponse struct {
	TraceID     string              `json:"traceId"`
	Offline     bool                `json:"offline"`
	Order       *domain.RemoteOrder `json:"order,omitempty"`
	LocalOrder  *domain.LocalOrder  `json:"localOrder,omitempty"`
	PendingSync int                 `json:"pendingSync"`
}

type LocalOrderResponse struct {
	TraceID string            `json:"traceId"`
	Order   domain.LocalOrder `json:"order"`
}

type LocalOrdersResponse struct {
	TraceID string              `json:"traceId"`
	Orders  []domain.LocalOrder `json:"orders"`
	Count   int                 `json:"count"`
}

type PendingCountResponse struct {
	TraceID string `json:"traceId"`
	Pending int    `json:"pending"`
}

type SyncEntryResponse struct {
	TraceID string                `json:"traceId"`
	Entry   domain.SyncQueueEntry `json:"entry"`
}

type SyncEntriesResponse struct {
	TraceID string                  `json:"traceId"`
	Entries []domain.SyncQueueEntry `json:"entries"`
}

type MessageResponse struct {
	TraceID   string    `json:"traceId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ClearedData counts the rows removed by a local store wipe.
type ClearedData struct {
	CartItems   int64 `json:"cartItems"`
	LocalOrders int64 `json:"localOrders"`
	SyncEntries int64 `json:"syncEntries"`
}

type ClearLocalDataResponse struct {
	TraceID string `json:"traceId"`
	ClearedData
}
