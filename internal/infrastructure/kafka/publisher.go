package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-consult-auth/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits auth events. Delivery is best-effort: a broker outage is
// logged and never fails the auth operation that produced the event.
type Publisher struct {
	w messageWriter
}

// NewPublisher returns an async writer; write failures surface in the log.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				slog.Warn("failed to write auth events", "count", len(msgs), "err", err)
			}
		},
	}}
}

// Publish keys messages by device so per-device ordering is preserved.
func (p *Publisher) Publish(ctx context.Context, e domain.AuthEvent) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		slog.Warn("failed to encode auth event", "type", e.Type, "err", err)
		return
	}
	if err := p.w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(e.DeviceID),
		Value: body,
		Time:  e.At,
	}); err != nil {
		slog.Warn("failed to publish auth event", "type", e.Type, "device_id", e.DeviceID, "err", err)
	}
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
