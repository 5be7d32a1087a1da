package domain

import "time"

const EventOrderSynced = "order_synced"

type OrderSyncedEvent struct {
	Type          string    `json:"type"`
	LocalID       string    `json:"local_id"`
	RemoteOrderID string    `json:"remote_order_id"`
	TableID       string    `json:"table_id"`
	Attempts      int       `json:"attempts"`
	Timestamp     time.Time `json:"timestamp"`
}
