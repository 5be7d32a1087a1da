package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tableside/internal/domain"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func TestPublishOrderSynced(t *testing.T) {
	writer := &fakeWriter{}
	p := NewKafkaPublisher(writer, zap.NewNop())
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.PublishOrderSynced(context.Background(), domain.OrderSyncedEvent{
		LocalID:       "1714564800000-abc123def",
		RemoteOrderID: "5f0c",
		TableID:       "t1",
		Attempts:      2,
		Timestamp:     ts,
	})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "1714564800000-abc123def", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, domain.EventOrderSynced, string(msg.Headers[0].Value))

	var event domain.OrderSyncedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, domain.EventOrderSynced, event.Type)
	assert.Equal(t, "5f0c", event.RemoteOrderID)
	assert.Equal(t, 2, event.Attempts)
	assert.Equal(t, ts, event.Timestamp)
}

func TestPublishOrderSynced_WriterError(t *testing.T) {
	fault := errors.New("leader not available")
	p := NewKafkaPublisher(&fakeWriter{err: fault}, zap.NewNop())

	err := p.PublishOrderSynced(context.Background(), domain.OrderSyncedEvent{LocalID: "1-a"})
	assert.ErrorIs(t, err, fault)
}
