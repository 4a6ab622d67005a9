package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-management/config"
	"order-management/notifications"
)

type fakePublisher struct {
	exchange string
	msgs     []amqp.Publishing
	err      error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	p.exchange = exchange
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newTestRabbitMQ(pub publisher, maxPriority int) *RabbitMQ {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &RabbitMQ{
		Cfg: &config.Config{NotificationExchange: "notifications_exchange", MaxPriority: maxPriority},
		log: log,
		pub: pub,
	}
}

func TestSendPublishesPersistentJSON(t *testing.T) {
	pub := &fakePublisher{}
	r := newTestRabbitMQ(pub, 10)

	msg := notifications.Message{ID: "m-1", To: "a@example.com", OrderID: 3, Priority: notifications.HighPriority}
	require.NoError(t, r.Send(context.Background(), msg))

	require.Len(t, pub.msgs, 1)
	got := pub.msgs[0]
	assert.Equal(t, "notifications_exchange", pub.exchange)
	assert.Equal(t, amqp.Persistent, got.DeliveryMode)
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, "m-1", got.MessageId)
	assert.Equal(t, uint8(notifications.HighPriority), got.Priority)

	var decoded notifications.Message
	require.NoError(t, json.Unmarshal(got.Body, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestSendClampsPriority(t *testing.T) {
	pub := &fakePublisher{}
	r := newTestRabbitMQ(pub, 5)

	require.NoError(t, r.Send(context.Background(), notifications.Message{ID: "m", Priority: 9}))
	assert.Equal(t, uint8(5), pub.msgs[0].Priority)
}

func TestSendWrapsPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	r := newTestRabbitMQ(&fakePublisher{err: boom}, 10)

	err := r.Send(context.Background(), notifications.Message{ID: "m"})
	assert.ErrorIs(t, err, boom)
}
