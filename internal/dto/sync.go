package dto

import (
	"time"

	"tableside/internal/domain"
)

// SyncResult summarizes one sweep of the sync queue.
type SyncResult struct {
	Attempted    int                  `json:"attempted"`
	Synced       int                  `json:"synced"`
	Failed       int                  `json:"failed"`
	Deferred     int                  `json:"deferred"`
	Parked       int                  `json:"parked"`
	Reconciled   int                  `json:"reconciled"`
	Skipped      bool                 `json:"skipped"`
	Orders       []domain.RemoteOrder `json:"orders"`
	RefreshError string               `json:"refreshError,omitempty"`
	StartedAt    time.Time            `json:"startedAt"`
	FinishedAt   time.Time            `json:"finishedAt"`
}

type SyncResponse struct {
	TraceID string `json:"traceId"`
	SyncResult
}
