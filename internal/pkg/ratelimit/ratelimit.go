package ratelimit

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/cache"
	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

// New returns a per-IP limiter for the API routes. With RATE_LIMIT_MAX=0 the
// returned handler only calls the next one.
func New(cfg config.Config) fiber.Handler {
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		Storage:    newStorage(cfg),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{"message": "too many requests, slow down"},
			})
		},
	})
}

// newStorage shares limiter counters across instances through Redis when a
// cache server is configured and reachable. nil selects fiber's in-memory storage.
func newStorage(cfg config.Config) fiber.Storage {
	if !cfg.CacheEnabled() {
		return nil
	}

	port, err := strconv.Atoi(cfg.CachePort)
	if err != nil {
		fiberlog.Warnf("[RateLimit] invalid CACHE_PORT %q, using in-memory storage", cfg.CachePort)
		return nil
	}
	if !reachable(cfg) {
		fiberlog.Warnf("[RateLimit] cache %s unreachable, using in-memory storage", cfg.CacheHost)
		return nil
	}

	// Separate database for limiter counters (catalog cache uses DB 0)
	return fiberredis.New(fiberredis.Config{
		Host:     cfg.CacheHost,
		Port:     port,
		Password: cfg.CachePassword,
		Database: cache.RateLimitDB,
		Reset:    false,
	})
}

// reachable pings the server once; the storage constructor panics on a failed ping.
func reachable(cfg config.Config) bool {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.CacheHost, cfg.CachePort),
		Password:    cfg.CachePassword,
		DB:          cache.RateLimitDB,
		DialTimeout: time.Second,
		MaxRetries:  -1,
	})
	defer func(c *redis.Client) { _ = c.Close() }(client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
