package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"order-management/config"
	"order-management/notifications"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	log *logrus.Logger
	pub publisher
	mu  sync.Mutex
}

func NewRabbitMQ(cfg *config.Config, log *logrus.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
		log:     log,
		pub:     ch,
	}, nil
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.Cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the notification exchange and its priority queue.
// Rejected messages are routed to the dead-letter queue.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, r.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.NotificationExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare notification exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.NotificationQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("declare notification queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.NotificationQueue, "", r.Cfg.NotificationExchange, false, nil); err != nil {
		return fmt.Errorf("bind notification queue: %w", err)
	}
	return nil
}

// Send publishes msg to the notification exchange as persistent JSON.
func (r *RabbitMQ) Send(ctx context.Context, msg notifications.Message) error {
	publishing, err := newPublishing(msg, r.Cfg.MaxPriority)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pub.PublishWithContext(ctx, r.Cfg.NotificationExchange, "", false, false, publishing); err != nil {
		return fmt.Errorf("publish notification %s: %w", msg.ID, err)
	}
	return nil
}

func newPublishing(msg notifications.Message, maxPriority int) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode notification %s: %w", msg.ID, err)
	}

	priority := msg.Priority
	if maxPriority >= 0 && int(priority) > maxPriority {
		priority = uint8(maxPriority)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    msg.ID,
		Body:         body,
		Priority:     priority,
	}, nil
}

// Close closes the channel and then the connection.
func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			r.log.Warnf("Failed to close RabbitMQ channel: %v", err)
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			r.log.Warnf("Failed to close RabbitMQ connection: %v", err)
		}
	}
}
