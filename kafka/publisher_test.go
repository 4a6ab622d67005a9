package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-management/notifications"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisherSend(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	msg := notifications.Message{ID: "m-1", To: "a@example.com", Subject: "Order Confirmation - #5", OrderID: 5, Priority: 9}
	require.NoError(t, p.Send(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "5", string(w.msgs[0].Key))

	var decoded notifications.Message
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, msg, decoded)
	assert.Equal(t, "9", string(w.msgs[0].Headers[1].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisherSendError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("leader not available")}}
	assert.Error(t, p.Send(context.Background(), notifications.Message{ID: "m-1"}))
}

func TestNewPublisherRequiresBrokers(t *testing.T) {
	_, err := NewPublisher(nil, "topic")
	assert.ErrorIs(t, err, ErrNoBrokers)

	p, err := NewPublisher([]string{"localhost:9092"}, "topic")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
