// Package redis keeps access tokens in Redis for deployments that want token
// state out of the primary database.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Config selects the Redis instance. Addr is either host:port or a
// redis:// URL; a database number in the URL wins over DB.
type Config struct {
	Addr string
	DB   int
}

func (c Config) options() (*redis.Options, error) {
	if strings.Contains(c.Addr, "://") {
		opts, err := redis.ParseURL(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Addr, DB: c.DB}, nil
}

// Connect opens a client and refuses to hand it out until a PING succeeds.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = dialTimeout
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Ping is the readiness check for the token store.
func Ping(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
