package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncQueueEntry_Due(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.True(t, SyncQueueEntry{}.Due(now))
	assert.True(t, SyncQueueEntry{NextAttemptAt: &past}.Due(now))
	assert.True(t, SyncQueueEntry{NextAttemptAt: &now}.Due(now))
	assert.False(t, SyncQueueEntry{NextAttemptAt: &future}.Due(now))
}

func TestBackoff(t *testing.T) {
	base := 2 * time.Second
	max := time.Minute

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, time.Minute},
		{200, time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempts, base, max), "attempts=%d", tt.attempts)
	}
}

func TestBackoff_NoBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(3, 0, time.Minute))
}
