package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRoleCache shares role entries between API instances.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
	load   RoleLoader
	prefix string
}

func NewRedisRoleCache(client *redis.Client, load RoleLoader, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl, load: load, prefix: "lms:roles:"}
}

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisRoleCache) key(userID uint) string {
	return fmt.Sprintf("%s%d", c.prefix, userID)
}

func (c *RedisRoleCache) Get(ctx context.Context, userID uint) ([]string, error) {
	val, err := c.client.Get(ctx, c.key(userID)).Result()
	switch {
	case err == nil:
		return strings.Split(val, ","), nil
	case !errors.Is(err, redis.Nil):
		return nil, err
	}

	roles, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, c.key(userID), strings.Join(roles, ","), c.ttl).Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}
