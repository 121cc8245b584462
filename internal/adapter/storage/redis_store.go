package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cart snapshots outlive a single visit but not an abandoned one.
const cartEntryTTL = 30 * 24 * time.Hour

// RedisStore is a Redis-backed CartStore. Keys are namespaced per
// session so one Redis instance can hold many carts.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, cartEntryTTL).Err()
}

func (r *RedisStore) Remove(ctx context.Context, keys ...string) error {
	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = r.key(key)
	}
	return r.client.Del(ctx, namespaced...).Err()
}

func (r *RedisStore) key(key string) string {
	return "session:" + r.namespace + ":" + key
}
