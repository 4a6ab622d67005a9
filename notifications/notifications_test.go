package notifications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-management/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestRenderOrderConfirmation(t *testing.T) {
	user := &models.User{ID: 1, Name: "Ada <admin>", Email: "ada@example.com"}
	order := &models.Order{
		ID:         42,
		TotalPrice: decimal.RequireFromString("20"),
		Items: []*models.OrderItem{{
			ProductID: 3,
			Quantity:  2,
			Price:     decimal.RequireFromString("20"),
			Product:   &models.Product{ID: 3, Name: "Widget"},
		}},
	}

	msg, err := RenderOrderConfirmation(user, order)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Order Confirmation - #42", msg.Subject)
	assert.Equal(t, int64(42), msg.OrderID)
	assert.Equal(t, uint8(DefaultPriority), msg.Priority)
	assert.Contains(t, msg.Body, "Hi Ada &lt;admin&gt;,")
	assert.Contains(t, msg.Body, "<li>Widget - 2 x 20.00</li>")
	assert.Contains(t, msg.Body, "Total Price: <b>20.00</b>")
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, uint8(DefaultPriority), PriorityFor(decimal.NewFromInt(1000)))
	assert.Equal(t, uint8(HighPriority), PriorityFor(decimal.RequireFromString("1000.01")))
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, quietLogger(), 10, 2, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 5; i++ {
		d.Notify(Message{ID: "m", OrderID: int64(i)})
	}
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 5, sender.count())

	// Notify after shutdown is dropped, not a panic.
	assert.NotPanics(t, func() { d.Notify(Message{ID: "late"}) })
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	sender := SenderFunc(func(ctx context.Context, _ Message) error {
		<-block
		return nil
	})
	d := NewDispatcher(sender, quietLogger(), 1, 1, time.Second)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Notify(Message{ID: "m"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	close(block)
}

func TestDispatcherSwallowsSenderFailures(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, quietLogger(), 4, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(Message{ID: "a"})
	d.Notify(Message{ID: "b"})
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 2, sender.count())
}

func TestDispatcherRecoversPanics(t *testing.T) {
	var calls int
	var mu sync.Mutex
	sender := SenderFunc(func(context.Context, Message) error {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("boom")
	})
	d := NewDispatcher(sender, quietLogger(), 4, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(Message{ID: "a"})
	d.Notify(Message{ID: "b"})
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 2, calls)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(quietLogger(), "orders@example.com").Send(context.Background(), Message{ID: "x"}))
}
