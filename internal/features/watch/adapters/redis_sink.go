package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopwatch/internal/core/logger"
	"shopwatch/internal/features/watch/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is the JSON payload published for each notification.
type Event struct {
	// Type is "price_above_ceiling" or "ordered".
	Type string `json:"type"`
	// ProductID is the shop article number.
	ProductID int `json:"product_id"`
	// Name is the product display name, if known.
	Name string `json:"name,omitempty"`
	// CurrentPrice is the observed price as a decimal string.
	CurrentPrice string `json:"current_price"`
	// MaxPrice is the configured ceiling as a decimal string.
	MaxPrice string `json:"max_price"`
	// OrderNumber is set for "ordered" events.
	OrderNumber string `json:"order_number,omitempty"`
	// At is the event timestamp.
	At time.Time `json:"at"`
}

// RedisSink implements the NotificationSink port by publishing events to
// a redis pub/sub channel for downstream consumers.
type RedisSink struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisSink creates a RedisSink from a connection URL.
// The redisURL should be in the format: redis://[:password@]host[:port][/database]
func NewRedisSink(redisURL, channel string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &RedisSink{
		client:  redis.NewClient(opts),
		channel: channel,
		logger:  logger.Get(),
	}, nil
}

// NotifyPriceAboveCeiling implements NotificationSink.
func (s *RedisSink) NotifyPriceAboveCeiling(ctx context.Context, product *domain.Product) error {
	return s.publish(ctx, Event{
		Type:         "price_above_ceiling",
		ProductID:    product.ID,
		Name:         product.Name,
		CurrentPrice: product.CurrentPrice.String(),
		MaxPrice:     product.MaxPrice.String(),
		At:           time.Now().UTC(),
	})
}

// NotifyOrdered implements NotificationSink.
func (s *RedisSink) NotifyOrdered(ctx context.Context, product *domain.Product, orderNumber string) error {
	return s.publish(ctx, Event{
		Type:         "ordered",
		ProductID:    product.ID,
		Name:         product.Name,
		CurrentPrice: product.CurrentPrice.String(),
		MaxPrice:     product.MaxPrice.String(),
		OrderNumber:  orderNumber,
		At:           time.Now().UTC(),
	})
}

func (s *RedisSink) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", s.channel, err)
	}
	s.logger.Debug("Published notification event",
		zap.String("channel", s.channel),
		zap.String("type", event.Type),
		zap.Int("product_id", event.ProductID),
	)
	return nil
}

// Ping checks if redis is reachable.
func (s *RedisSink) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
