package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_management_notifications_total",
		Help: "Notifications by outcome",
	},
	[]string{"result"},
)

// Dispatcher hands messages to a Sender on background workers. Notify never
// blocks the caller and delivery errors never reach it.
type Dispatcher struct {
	sender  Sender
	log     *logrus.Logger
	queue   chan Message
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, log *logrus.Logger, buffer, workers int, timeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		queue:   make(chan Message, buffer),
		workers: workers,
		timeout: timeout,
	}
}

// Notify enqueues msg, dropping it when the buffer is full.
func (d *Dispatcher) Notify(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		notificationsTotal.WithLabelValues("dropped").Inc()
		d.log.WithField("order_id", msg.OrderID).Warn("Dispatcher stopped, dropping notification")
		return
	}

	select {
	case d.queue <- msg:
		notificationsTotal.WithLabelValues("queued").Inc()
	default:
		notificationsTotal.WithLabelValues("dropped").Inc()
		d.log.WithFields(logrus.Fields{
			"message_id": msg.ID,
			"order_id":   msg.OrderID,
		}).Warn("Notification queue full, dropping message")
	}
}

// Run delivers queued messages until ctx is cancelled, then drains what is
// already buffered and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}

	<-ctx.Done()
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	wg.Wait()
	return nil
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case msg, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(msg)
		case <-ctx.Done():
			for msg := range d.queue {
				d.deliver(msg)
			}
			return
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	entry := d.log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"order_id":   msg.OrderID,
		"to":         msg.To,
	})

	defer func() {
		if r := recover(); r != nil {
			notificationsTotal.WithLabelValues("error").Inc()
			entry.Errorf("Recovered from panic while sending notification: %v", r)
		}
	}()

	// Delivery outlives the request that produced the message.
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		notificationsTotal.WithLabelValues("error").Inc()
		entry.Errorf("Failed to send notification: %v", err)
		return
	}
	notificationsTotal.WithLabelValues("sent").Inc()
	entry.Info("Notification sent")
}
