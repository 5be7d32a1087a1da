package domain

import "time"

const SyncEntryTypeOrder = "order"

// SyncQueueEntry is one pending replay against the remote API. Entries are
// drained in ID order.
type SyncQueueEntry struct {
	ID            int64        `json:"id"`
	Type          string       `json:"type"`
	LocalID       string       `json:"localId"`
	Data          OrderPayload `json:"data"`
	Timestamp     time.Time    `json:"timestamp"`
	Attempts      int          `json:"attempts"`
	NextAttemptAt *time.Time   `json:"nextAttemptAt,omitempty"`
	LastError     *string      `json:"lastError,omitempty"`
	Parked        bool         `json:"parked"`
}

// Due reports whether the backoff window has passed.
func (e SyncQueueEntry) Due(now time.Time) bool {
	return e.NextAttemptAt == nil || !e.NextAttemptAt.After(now)
}

// Backoff returns base × 2^(attempts-1), capped at max when max is positive.
func Backoff(attempts int, base, max time.Duration) time.Duration {
	if attempts < 1 || base <= 0 {
		return 0
	}

	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
		if delay <= 0 {
			return max
		}
	}

	if max > 0 && delay > max {
		return max
	}
	return delay
}
