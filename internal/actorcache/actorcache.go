// Package actorcache caches the capability sets of authenticated users so
// that not every admin request has to load them from the database.
package actorcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "medicaodigitalx:actor:"

// Entry is the cached view of a user.
type Entry struct {
	ID           uint     `msgpack:"id"`
	Username     string   `msgpack:"username"`
	Capabilities []string `msgpack:"caps"`
}

// Cache stores Entries by username.
type Cache interface {
	// Get returns the cached entry; false if there is none
	Get(ctx context.Context, username string) (*Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, username string) error
}

// Noop is a Cache that never holds anything.
type Noop struct{}

// Get implements the Cache interface
func (Noop) Get(context.Context, string) (*Entry, bool, error) {
	return nil, false, nil
}

// Set implements the Cache interface
func (Noop) Set(context.Context, Entry) error {
	return nil
}

// Delete implements the Cache interface
func (Noop) Delete(context.Context, string) error {
	return nil
}

// RedisCache is a Cache backed by redis; entries are msgpack encoded.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and checks the connection
func NewRedisCache(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, ttl), nil
}

// New returns a RedisCache using the passed client. A ttl of zero keeps
// entries until they are deleted.
func New(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func key(username string) string {
	return keyPrefix + username
}

// Get implements the Cache interface
func (c *RedisCache) Get(ctx context.Context, username string) (*Entry, bool, error) {
	raw, err := c.client.Get(ctx, key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var e Entry
	if err = msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

// Set implements the Cache interface
func (c *RedisCache) Set(ctx context.Context, entry Entry) error {
	raw, err := msgpack.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(entry.Username), raw, c.ttl).Err()
}

// Delete implements the Cache interface
func (c *RedisCache) Delete(ctx context.Context, username string) error {
	return c.client.Del(ctx, key(username)).Err()
}

// Close closes the redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
