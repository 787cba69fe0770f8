package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// commands is the subset of the go-redis client the cache needs.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// ExtractionCache stores successful extraction results as JSON under a
// key prefix with a jittered TTL.
type ExtractionCache struct {
	client commands
	prefix string
	ttl    time.Duration
}

type Option func(*ExtractionCache)

func WithPrefix(prefix string) Option {
	return func(c *ExtractionCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *ExtractionCache) { c.ttl = ttl }
}

// Open connects to addr and verifies the server answers.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewExtractionCache(client commands, opts ...Option) *ExtractionCache {
	c := &ExtractionCache{
		client: client,
		prefix: "extract:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements ports.ExtractionCache. A miss is (zero, false, nil).
func (c *ExtractionCache) Get(ctx context.Context, key string) (domain.ExtractionResult, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ExtractionResult{}, false, nil
	}
	if err != nil {
		return domain.ExtractionResult{}, false, domain.WrapError(domain.ErrTemporary, "cache get", err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.ExtractionResult{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return result, true, nil
}

// Set implements ports.ExtractionCache. Failed results are never stored.
func (c *ExtractionCache) Set(ctx context.Context, key string, result domain.ExtractionResult) error {
	if !result.Success {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.jitterTTL()).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "cache set", err)
	}
	return nil
}

func (c *ExtractionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// jitterTTL spreads expiry by +/-10% so a burst of uploads does not expire together.
func (c *ExtractionCache) jitterTTL() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitter := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(jitter)
}
