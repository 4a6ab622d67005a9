package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"order-management/config"
	"order-management/notifications"
)

const (
	consumerTag    = "order-management"
	dlqConsumerTag = "order-management-dlq"
)

// NotificationConsumer drains the notification queue into a mailer.
// Messages that cannot be decoded or delivered are rejected without requeue
// and end up in the dead-letter queue.
type NotificationConsumer struct {
	ch      *amqp.Channel
	cfg     *config.Config
	mailer  notifications.Sender
	log     *logrus.Logger
	timeout time.Duration
}

func NewNotificationConsumer(ch *amqp.Channel, cfg *config.Config, mailer notifications.Sender, log *logrus.Logger) *NotificationConsumer {
	return &NotificationConsumer{ch: ch, cfg: cfg, mailer: mailer, log: log, timeout: cfg.NotifyTimeout}
}

// Run consumes until ctx is cancelled or the channel closes.
func (nc *NotificationConsumer) Run(ctx context.Context) error {
	if err := nc.ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := nc.ch.Consume(
		nc.cfg.NotificationQueue,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	dlqMsgs, err := nc.ch.Consume(nc.cfg.DeadLetterQueue, dlqConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register dead-letter consumer: %w", err)
	}

	nc.log.Infof("Consuming notifications from %s", nc.cfg.NotificationQueue)
	for {
		select {
		case <-ctx.Done():
			_ = nc.ch.Cancel(consumerTag, false)
			_ = nc.ch.Cancel(dlqConsumerTag, false)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("notification delivery channel closed")
			}
			nc.processNotification(ctx, msg)
		case msg, ok := <-dlqMsgs:
			if !ok {
				return fmt.Errorf("dead-letter delivery channel closed")
			}
			nc.processDeadLetter(msg)
		}
	}
}

func (nc *NotificationConsumer) processNotification(ctx context.Context, d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			nc.log.Errorf("Recovered from panic in notification processing: %v", r)
			_ = d.Nack(false, false)
		}
	}()

	var msg notifications.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		nc.log.Errorf("Invalid notification payload %q: %v", d.MessageId, err)
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, nc.timeout)
	defer cancel()
	if err := nc.mailer.Send(sendCtx, msg); err != nil {
		nc.log.WithField("order_id", msg.OrderID).Errorf("Failed to deliver notification %s: %v", msg.ID, err)
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		nc.log.Warnf("Failed to ack notification %s: %v", msg.ID, err)
	}
}

func (nc *NotificationConsumer) processDeadLetter(d amqp.Delivery) {
	nc.log.WithFields(logrus.Fields{
		"message_id": d.MessageId,
		"body":       string(d.Body),
	}).Warn("Received dead-lettered notification")
	if err := d.Ack(false); err != nil {
		nc.log.Warnf("Failed to ack dead letter: %v", err)
	}
}
