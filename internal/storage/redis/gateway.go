// Package redis stores the state blob under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gravadigital/urna-api/internal/logger"
)

// Gateway is a blob.Gateway backed by Redis. SET replaces the value atomically.
type Gateway struct {
	client *goredis.Client
	key    string
	log    *log.Logger
}

// NewGateway connects to redisURL and stores the blob under prefix+scope
func NewGateway(redisURL, prefix, scope string) (*Gateway, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewGatewayWithClient(client, prefix, scope), nil
}

// NewGatewayWithClient creates a gateway from an existing Redis client
func NewGatewayWithClient(client *goredis.Client, prefix, scope string) *Gateway {
	return &Gateway{
		client: client,
		key:    prefix + scope,
		log:    logger.Gateway("redis"),
	}
}

// Key returns the Redis key holding the blob
func (g *Gateway) Key() string {
	return g.key
}

// Load fetches the blob; a missing key is a first run
func (g *Gateway) Load(ctx context.Context) ([]byte, error) {
	data, err := g.client.Get(ctx, g.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		g.log.Debug("State key not found, starting fresh", "key", g.key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return data, nil
}

// Save overwrites the blob without expiry
func (g *Gateway) Save(ctx context.Context, data []byte) error {
	if err := g.client.Set(ctx, g.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	g.log.Debug("State saved", "key", g.key, "bytes", len(data))
	return nil
}

// Ping checks if Redis is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (g *Gateway) Close() error {
	return g.client.Close()
}
