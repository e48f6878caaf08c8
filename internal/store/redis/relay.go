package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

// EventChannel is the pub/sub channel decision and fill events are relayed on.
const EventChannel = "dreamtrade:events"

// Relay publishes JSON events to a Redis channel so dashboards outside
// this process can follow the ledger.
type Relay struct {
	client  cmdable
	channel string
}

func NewRelay(client *goredis.Client, channel string) *Relay {
	return newRelay(client, channel)
}

func newRelay(client cmdable, channel string) *Relay {
	if channel == "" {
		channel = EventChannel
	}
	return &Relay{client: client, channel: channel}
}

// Publish encodes v and publishes it.
func (r *Relay) Publish(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("relay encode: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}
