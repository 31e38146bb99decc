package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge fans hub events out to every gateway instance through a Redis
// pub/sub channel. Delivery is best-effort and unordered relative to local
// delivery.
type RedisBridge struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	logger  *zap.Logger
}

var _ Relay = (*RedisBridge)(nil)

// NewRedisBridge creates a bridge and attaches it to hub.
func NewRedisBridge(client redis.UniversalClient, channel string, hub *Hub, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	bridge := &RedisBridge{client: client, channel: channel, hub: hub, logger: logger}
	hub.Attach(bridge)
	return bridge
}

// Forward publishes an event on the channel.
func (b *RedisBridge) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run consumes the channel until ctx is cancelled, delivering events that
// came from other instances. ready, when non-nil, is closed once the
// subscription is confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	b.logger.Info("event bridge subscribed", zap.String("channel", b.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("drop malformed event", zap.Error(err))
				continue
			}
			if event.Origin == b.hub.Origin() {
				continue
			}
			b.hub.Deliver(ctx, event)
		}
	}
}
