package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/config"
)

// DefaultClaimKeyPrefix namespaces push claims in a shared Redis
const DefaultClaimKeyPrefix = "storepos:push-claim:"

// releaseScript deletes the claim only when it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimStore implements shared.IdempotencyStore with SET NX + TTL, so
// several tills sharing one Redis never push the same order concurrently.
type RedisClaimStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClaimStore connects to Redis and verifies the connection
func NewRedisClaimStore(ctx context.Context, cfg config.RedisConfig) (*RedisClaimStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return NewRedisClaimStoreWithClient(client, DefaultClaimKeyPrefix), nil
}

// NewRedisClaimStoreWithClient wraps an existing client
func NewRedisClaimStoreWithClient(client *redis.Client, keyPrefix string) *RedisClaimStore {
	if keyPrefix == "" {
		keyPrefix = DefaultClaimKeyPrefix
	}
	return &RedisClaimStore{client: client, keyPrefix: keyPrefix}
}

// Client returns the underlying client so other Redis-backed stores can share it
func (s *RedisClaimStore) Client() *redis.Client {
	return s.client
}

// MarkProcessed claims key atomically with SETNX, storing a fresh owner token
func (s *RedisClaimStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// IsProcessed reports whether key is currently claimed
func (s *RedisClaimStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check claim %s: %w", key, err)
	}
	return n > 0, nil
}

// Release compare-and-deletes the claim on key
func (s *RedisClaimStore) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("release claim %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisClaimStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisClaimStore)(nil)
