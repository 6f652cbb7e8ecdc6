package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the serialized cart under one key. The key has no TTL:
// the cart lives until checkout clears it.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, sessionID, slot string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    slotKey(sessionID, slot),
	}
}

// RedisProvider hands out one RedisStore per session, all sharing client.
func RedisProvider(client *redis.Client, slot string) Provider {
	return func(sessionID string) CartStore {
		return NewRedisStore(client, sessionID, slot)
	}
}

func (r *RedisStore) Load(ctx context.Context) (LoadResult, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return LoadResult{State: LoadEmpty}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeCart(data), nil
}

func (r *RedisStore) Save(ctx context.Context, cart domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(sessionID, slot string) string {
	if slot == "" {
		slot = DefaultSlot
	}
	return fmt.Sprintf("%s:%s", slot, sessionID)
}
