package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fjod/storefront/internal/store"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	cartCleanerGroup = "storefront-cart-cleaner"
	readRetryDelay   = time.Second

	// DefaultCleanerMaxAge bounds how old an event may be and still clear a cart.
	DefaultCleanerMaxAge = 10 * time.Minute
)

var ErrMissingSession = errors.New("order event has no session id")

// CartCleaner consumes OrderSubmitted events and clears the ordered cart when
// checkout could not. Only events marked ClearPending and younger than MaxAge
// are acted on, and a slot that no longer holds exactly the ordered items is
// left alone.
type CartCleaner struct {
	reader   *kafka.Reader
	provider store.Provider
	logger   *zap.Logger
	MaxAge   time.Duration
	now      func() time.Time
}

func NewCartCleaner(provider store.Provider, logger *zap.Logger, topic string, brokers ...string) *CartCleaner {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  cartCleanerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return &CartCleaner{
		reader:   reader,
		provider: provider,
		logger:   logger,
		MaxAge:   DefaultCleanerMaxAge,
		now:      time.Now,
	}
}

func (c *CartCleaner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Warn("error reading order event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if err := c.Handle(ctx, m.Value); err != nil {
			c.logger.Warn("order event not applied", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

func (c *CartCleaner) Close() error {
	return c.reader.Close()
}

// Handle applies one OrderSubmitted payload.
func (c *CartCleaner) Handle(ctx context.Context, payload []byte) error {
	var event OrderSubmitted
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("parse order event: %w", err)
	}
	if event.SessionID == "" {
		return ErrMissingSession
	}
	if !event.ClearPending {
		return nil
	}
	if c.MaxAge > 0 && c.now().Sub(event.SubmittedAt) > c.MaxAge {
		c.logger.Debug("order event too old to clear a cart",
			zap.String("session_id", event.SessionID),
			zap.String("order_key", event.OrderKey),
			zap.Time("submitted_at", event.SubmittedAt))
		return nil
	}

	st := c.provider(event.SessionID)
	res, err := st.Load(ctx)
	if err != nil {
		return err
	}
	if res.State != store.LoadLoaded || len(res.Items) == 0 {
		return nil
	}
	if !slices.Equal(res.Items, event.Items) {
		c.logger.Debug("cart changed since order, keeping it",
			zap.String("session_id", event.SessionID),
			zap.String("order_key", event.OrderKey))
		return nil
	}

	if err := st.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("cleared ordered cart",
		zap.String("session_id", event.SessionID),
		zap.String("order_key", event.OrderKey))
	return nil
}
