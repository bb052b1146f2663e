package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel the dashboard gateway subscribes to.
const DefaultChannel = "callcenter:dashboard"

// RedisBroadcaster publishes dashboard events on a Redis pub/sub channel.
// The websocket gateway fans them out to connected browsers.
type RedisBroadcaster struct {
	rdb     *redis.Client
	channel string
	clock   func() time.Time
}

func NewRedisBroadcaster(rdb *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{rdb: rdb, channel: channel, clock: time.Now}
}

// envelope is the wire shape on the channel.
type envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, event string, payload any) error {
	if b.rdb == nil {
		return fmt.Errorf("notify: redis client is nil")
	}
	msg, err := json.Marshal(envelope{Event: event, Payload: payload, SentAt: b.clock().UTC()})
	if err != nil {
		return fmt.Errorf("notify: marshal %s: %w", event, err)
	}
	if err := b.rdb.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("notify: publish %s: %w", event, err)
	}
	return nil
}
