package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "drinkstand:changes"

const (
	minRelayBackoff = 500 * time.Millisecond
	maxRelayBackoff = 30 * time.Second
)

// RedisBridge fans changes out across server instances. Publish hands the
// change to the local hub and then to a redis channel; Run relays changes
// from other instances on that channel into the local hub. Local views
// never wait on redis.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	log     *slog.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, log *slog.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		log:     log,
	}
}

// Publish delivers change to local subscribers, then to the other
// instances. A redis failure is returned, but local delivery has happened.
func (b *RedisBridge) Publish(ctx context.Context, change Change) error {
	_ = b.hub.Publish(ctx, change)

	change.Origin = b.origin
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Run subscribes to the channel and relays changes until ctx is done or the
// subscription drops. It closes ready, if given, once the subscription is
// confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	b.log.Info("relaying store changes from redis", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", b.channel)
			}
			change, err := DecodeChange([]byte(msg.Payload))
			if err != nil {
				b.log.Warn("dropping malformed change", "channel", b.channel, "error", err)
				continue
			}
			if change.Origin == b.origin {
				continue
			}
			change.Origin = ""
			_ = b.hub.Publish(ctx, change)
		}
	}
}

// Serve keeps Run going until ctx is done, waiting longer after each
// consecutive failure.
func (b *RedisBridge) Serve(ctx context.Context) {
	backoff := minRelayBackoff
	for {
		started := time.Now()
		err := b.Run(ctx, nil)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxRelayBackoff {
			backoff = minRelayBackoff
		}
		b.log.Error("redis change relay stopped, restarting", "channel", b.channel, "retry_in", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRelayBackoff)
	}
}

func DecodeChange(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("decode change: missing table")
	}
	return c, nil
}
