package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroker relays events between API instances over Redis pub/sub.
// Publish goes to Redis; Run feeds whatever arrives into the local hub, so
// the publishing instance receives its own events the same way.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *slog.Logger
}

func NewRedisBroker(rdb *redis.Client, channel string, hub *Hub, log *slog.Logger) *RedisBroker {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBroker{rdb: rdb, channel: channel, hub: hub, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, body).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}

// Run blocks until ctx is done or the subscription breaks.
func (b *RedisBroker) Run(ctx context.Context) error {
	ps := b.rdb.Subscribe(ctx, b.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("realtime: subscribe %s: %w", b.channel, err)
	}
	b.log.Info("realtime relay subscribed", "channel", b.channel)

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("realtime: subscription closed")
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("realtime: dropping malformed event", "err", err)
				continue
			}
			b.hub.Deliver(ev)
		}
	}
}
