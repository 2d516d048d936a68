package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const defaultKeyPrefix = "wellness:revoked:"

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RevocationCache mirrors revoked JWT IDs into Redis with a TTL matching the
// revocation expiry, so entries disappear on their own.
type RevocationCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	now    func() time.Time
}

func NewRevocationCache(log *logger.Logger, cfg Config) (*RevocationCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRevocationCacheWithClient(log, rdb, cfg.KeyPrefix), nil
}

func NewRevocationCacheWithClient(log *logger.Logger, rdb *goredis.Client, prefix string) *RevocationCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RevocationCache{
		log:    log.With("service", "RedisRevocationCache"),
		rdb:    rdb,
		prefix: prefix,
		now:    time.Now,
	}
}

func (c *RevocationCache) key(tokenID string) string { return c.prefix + tokenID }

func (c *RevocationCache) MarkRevoked(ctx context.Context, tokenID string, until time.Time) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis revocation cache not initialized")
	}
	ttl := until.Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, c.key(tokenID), "1", ttl).Err()
}

func (c *RevocationCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, fmt.Errorf("redis revocation cache not initialized")
	}
	n, err := c.rdb.Exists(ctx, c.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping reports whether Redis is reachable.
func (c *RevocationCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RevocationCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
