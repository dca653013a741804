package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// LeaseKey is the key guarding exclusive warmup execution for one account.
func LeaseKey(sessionID string) string {
	return fmt.Sprintf("warmup:lease:%s", sessionID)
}

// EventsChannel carries warmup lifecycle events for the SSE stream.
const EventsChannel = "warmup:events"
