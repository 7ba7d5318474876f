package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lyipi/4bpchoquecoe/pkg/redis"
)

// ChannelPrefix Redis channel of a table is ChannelPrefix + table.
const ChannelPrefix = "bpc:changes:"

// RedisFeed change feed over Redis pub/sub, shared by every instance.
type RedisFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisFeed creates a RedisFeed.
func NewRedisFeed(client *redis.Client, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: logger}
}

// Publish sends ev as json on the table's channel.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return f.client.Publish(ctx, ChannelPrefix+ev.Table, b)
}

// Subscribe waits for the subscription to be confirmed before returning.
func (f *RedisFeed) Subscribe(ctx context.Context, tables ...string) (<-chan Event, error) {
	channels := make([]string, len(tables))
	for i, t := range tables {
		channels[i] = ChannelPrefix + t
	}

	ps := f.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					f.logger.Warn("dropping malformed change event",
						zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
