package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

// Database numbers per concern on the shared Redis server.
const (
	CatalogDB   = 0
	RateLimitDB = 2
)

// NewClient creates a Redis client for the configured cache server and checks
// the connection. An unreachable server is logged, not fatal: callers treat
// cache errors as misses.
func NewClient(cfg config.Config, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.CacheHost, cfg.CachePort),
		Password: cfg.CachePassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
	return client
}

// CatalogCache keeps serialized catalog entries in Redis.
type CatalogCache struct {
	client *redis.Client
	prefix string
}

// NewCatalogCache wraps a Redis client. All keys are namespaced under "checkout:".
func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client, prefix: "checkout:"}
}

// Load retrieves a value by key. A missing key is reported as ok=false, not as an error.
func (c *CatalogCache) Load(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Store stores a value with the given expiration time
func (c *CatalogCache) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}
