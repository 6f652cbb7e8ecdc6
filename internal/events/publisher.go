package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic            = "storefront-orders"
	EventTypeOrderSubmitted = "order_submitted"
)

// OrderSubmitted is published after the shop API accepted an order. It
// carries no buyer payment data. ClearPending is set when checkout could not
// clear the cart itself.
type OrderSubmitted struct {
	OrderKey     string      `json:"order_key"`
	SessionID    string      `json:"session_id"`
	Email        string      `json:"email"`
	Items        domain.Cart `json:"items"`
	Total        string      `json:"total"`
	SubmittedAt  time.Time   `json:"submitted_at"`
	ClearPending bool        `json:"clear_pending"`
}

type Publisher interface {
	PublishOrderSubmitted(ctx context.Context, event OrderSubmitted) error
	Close() error
}

// NopPublisher drops every event; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderSubmitted(context.Context, OrderSubmitted) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderSubmitted(ctx context.Context, event OrderSubmitted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderKey),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderSubmitted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
