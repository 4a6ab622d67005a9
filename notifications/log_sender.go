package notifications

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender records messages instead of delivering them. It is the mailer
// for local runs and the sink for the queue consumer.
type LogSender struct {
	log  *logrus.Logger
	from string
}

func NewLogSender(log *logrus.Logger, from string) *LogSender {
	return &LogSender{log: log, from: from}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"order_id":   msg.OrderID,
		"from":       s.from,
		"to":         msg.To,
		"subject":    msg.Subject,
		"priority":   msg.Priority,
	}).Info("Email delivered")
	return nil
}
