package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

type keyValueStore struct {
	client *redislib.Client
	prefix string
}

// NewKeyValueStore creates a Redis-backed KeyValueStore, for setups where
// the session should survive outside the local filesystem (shared boxes,
// containers without volumes).
func NewKeyValueStore(client *redislib.Client, prefix string) repository.KeyValueStore {
	if prefix == "" {
		prefix = "artify3d:"
	}
	return &keyValueStore{
		client: client,
		prefix: prefix,
	}
}

func (s *keyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, domain.WrapError(domain.ErrCodeStorage, "get", err)
	}
	return result, nil
}

func (s *keyValueStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "set", err)
	}
	return nil
}

func (s *keyValueStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "remove", err)
	}
	return nil
}
