package store

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	authclient "github.com/hemolink/go-auth-client"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists session keys in Redis under a common prefix, one
// keyring per principal. Values carry no TTL; the token's own expiry
// claim governs staleness and the client purges on detection.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ authclient.Storage = (*RedisStore)(nil)

// NewRedisStore builds a store namespaced by prefix (e.g. a user or
// device identifier). An empty prefix uses the default namespace.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "hemolink:auth"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", authclient.ErrKeyNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "redis keyring read failed")
	}

	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "redis keyring write failed")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = s.key(key)
	}

	if err := s.rdb.Del(ctx, namespaced...).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "redis keyring delete failed")
	}

	return nil
}
