// Package notify publishes high-confidence alerts to interested consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/fazecat/signalpulse/Internal/types"
)

// Notifier delivers an alert to an external channel. Delivery failures are
// reported but never block signal generation.
type Notifier interface {
	Publish(ctx context.Context, alert types.Alert) error
	Close() error
}

// RedisNotifier publishes alerts as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(addr, password, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	log.Printf("Connected to redis at %s, publishing alerts on %q", addr, channel)
	return &RedisNotifier{client: client, channel: channel}, nil
}

func (n *RedisNotifier) Publish(ctx context.Context, alert types.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// LogNotifier writes alerts to the process log. Used when no redis address
// is configured and in tests.
type LogNotifier struct{}

func (LogNotifier) Publish(_ context.Context, alert types.Alert) error {
	log.Printf("ALERT [%s] confidence=%d asset=%s: %s",
		alert.SignalType, alert.Confidence, alert.AssetID, alert.Message)
	return nil
}

func (LogNotifier) Close() error { return nil }
