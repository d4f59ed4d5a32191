package bus

import (
	"context"
	"fmt"

	"github.com/luxfi/tss-solana/internal/errs"
	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over a Redis pub/sub connection, mirroring
// the original service's use of one subscriber connection per topic and
// one multiplexed connection shared for publishing.
type RedisBus struct {
	client *redis.Client
}

// Dial connects to url (a redis:// URL) and verifies reachability with a
// PING, returning BusUnavailable on failure.
func Dial(ctx context.Context, url string) (*RedisBus, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.New(errs.ConfigError, "bus.Dial", fmt.Errorf("parse redis url: %w", err))
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errs.New(errs.BusUnavailable, "bus.Dial", err)
	}
	return &RedisBus{client: client}, nil
}

// Subscribe opens a dedicated PubSub connection for topic and streams
// message payloads to the returned channel. The channel closes when ctx
// is canceled or the subscription is torn down.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := b.client.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, errs.New(errs.BusUnavailable, "bus.Subscribe", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Publish sends payload on topic using the shared multiplexed client
// connection.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return errs.New(errs.BusUnavailable, "bus.Publish", err)
	}
	return nil
}

// Close releases the underlying client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
