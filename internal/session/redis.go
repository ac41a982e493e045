package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ocenv:session:"

// RedisStore keeps sessions in redis so every API instance sees the same
// bindings. Expiry rides on the key TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a store over an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Bind(ctx context.Context, token string, visitorID int64, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+token, visitorID, ttl).Err()
}

func (r *RedisStore) Lookup(ctx context.Context, token string) (int64, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *RedisStore) Invalidate(ctx context.Context, token string) error {
	return r.client.Del(ctx, keyPrefix+token).Err()
}
