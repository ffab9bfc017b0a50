// Package cache provides the Redis-backed revocation cache.
//
// The cache is a fast path in front of the durable revocation store: a hit
// means the token is revoked, but a miss proves nothing and callers must
// consult the durable store. Entries therefore never need to outlive the
// token they describe, and every write carries a TTL derived from the
// token's remaining lifetime.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/constants"
)

// revokedValue is the payload stored under a revocation key. Only key
// presence matters.
const revokedValue = "1"

// Client wraps a Redis connection used for revocation bookkeeping
type Client struct {
	rdb *redis.Client
}

// Connect creates a new Redis client and verifies the connection
func Connect(cfg *config.AppConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.CacheConnectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("Successfully connected to redis")

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() {
	if c != nil && c.rdb != nil {
		log.Info().Msg("Closing redis connection")
		c.rdb.Close()
	}
}

// HealthCheck verifies the Redis connection is alive
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CacheOpTimeout)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// RevocationCache is the fast-path lookup for revoked token identifiers.
//
// IsRevoked returning (false, nil) only means the cache has no entry; the
// durable store remains the source of truth.
type RevocationCache interface {
	// MarkRevoked records a jti as revoked for the given TTL. A TTL of zero
	// or less means the token has already expired and no entry is written.
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the cache holds a revocation entry for jti.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// redisRevocationCache implements RevocationCache on top of a Client
type redisRevocationCache struct {
	client *Client
}

// NewRevocationCache creates a RevocationCache backed by the given client
func NewRevocationCache(client *Client) RevocationCache {
	return &redisRevocationCache{client: client}
}

// MarkRevoked writes a revocation entry keyed by jti. The entry expires with
// the token itself, so the cache never grows beyond the set of live tokens.
func (c *redisRevocationCache) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its expiry and can never verify again.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.CacheOpTimeout)
	defer cancel()

	if err := c.client.rdb.Set(ctx, revocationKey(jti), revokedValue, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache revocation for jti %s: %w", jti, err)
	}
	return nil
}

// IsRevoked checks the cache for a revocation entry
func (c *redisRevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CacheOpTimeout)
	defer cancel()

	err := c.client.rdb.Get(ctx, revocationKey(jti)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check revocation cache for jti %s: %w", jti, err)
	}
	return true, nil
}

// revocationKey builds the cache key for a token identifier
func revocationKey(jti string) string {
	return constants.RevokedKeyPrefix + jti
}

// noopRevocationCache is used when Redis is unavailable. Every lookup misses,
// which pushes all revocation checks to the durable store.
type noopRevocationCache struct{}

// NewNoopRevocationCache creates a RevocationCache that stores nothing
func NewNoopRevocationCache() RevocationCache {
	return noopRevocationCache{}
}

func (noopRevocationCache) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	return nil
}

func (noopRevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return false, nil
}
