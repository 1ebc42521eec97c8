package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	availableKeyPrefix = "available:"
	idempotencyKeyTTL  = 24 * time.Hour
)

// reserveScript conditionally decrements the availability counter. A missing
// counter means holds are not tracked for the product yet, so the hold is
// granted; the transactional decrement at payment still protects the store.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local available = redis.call('GET', key)
if not available then
	return 1
end

available = tonumber(available)
if available >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// RedisAdapter implements the reservation store: soft stock holds and
// idempotency fencing.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Reserve(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	key := availableKeyPrefix + productID.String()

	result, err := reserveScript.Run(ctx, r.client, []string{key}, quantity).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (r *RedisAdapter) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	key := availableKeyPrefix + productID.String()

	// No counter, nothing to give back.
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	return r.client.IncrBy(ctx, key, int64(quantity)).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) SyncAvailable(ctx context.Context, productID uuid.UUID, available int) error {
	key := availableKeyPrefix + productID.String()
	return r.client.Set(ctx, key, available, 0).Err()
}
