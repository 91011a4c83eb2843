package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

const (
	checkoutKeyPrefix = "checkout:"
	lockKeyPrefix     = "checkout-lock:"
	defaultLockTTL    = 30 * time.Second
)

var releaseLockScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]

if redis.call('GET', key) == token then
	return redis.call('DEL', key)
end

return 0
`)

type RedisAdapter struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisAdapter stores checkouts as JSON strings that expire after ttl of
// inactivity. A zero ttl keeps them until deleted.
func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl, lockTTL: defaultLockTTL}
}

// WithLockTTL bounds how long a crashed holder can keep a checkout locked.
func (r *RedisAdapter) WithLockTTL(ttl time.Duration) *RedisAdapter {
	r.lockTTL = ttl
	return r
}

func (r *RedisAdapter) SaveCheckout(ctx context.Context, checkout domain.Checkout) error {
	payload, err := json.Marshal(checkout)
	if err != nil {
		return fmt.Errorf("marshal checkout: %w", err)
	}
	return r.client.Set(ctx, checkoutKeyPrefix+checkout.ID, payload, r.ttl).Err()
}

func (r *RedisAdapter) GetCheckout(ctx context.Context, id string) (*domain.Checkout, error) {
	payload, err := r.client.Get(ctx, checkoutKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var checkout domain.Checkout
	if err := json.Unmarshal(payload, &checkout); err != nil {
		return nil, fmt.Errorf("unmarshal checkout %s: %w", id, err)
	}
	return &checkout, nil
}

func (r *RedisAdapter) AcquireLock(ctx context.Context, id string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+id, token, r.lockTTL).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock deletes the lock only while it still carries token, so a holder
// whose lock expired cannot release someone else's.
func (r *RedisAdapter) ReleaseLock(ctx context.Context, id, token string) error {
	return releaseLockScript.Run(ctx, r.client, []string{lockKeyPrefix + id}, token).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
