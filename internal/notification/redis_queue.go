package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisQueueGateway hands messages to the push worker through a Redis list.
type RedisQueueGateway struct {
	client *redis.Client
	key    string
}

// NewRedisQueueGateway creates a gateway that RPUSHes onto key.
func NewRedisQueueGateway(client *redis.Client, key string) *RedisQueueGateway {
	return &RedisQueueGateway{client: client, key: key}
}

func (g *RedisQueueGateway) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	if err := g.client.RPush(ctx, g.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue push message: %w", err)
	}
	return nil
}

// Key returns the list the gateway writes to.
func (g *RedisQueueGateway) Key() string {
	return g.key
}
