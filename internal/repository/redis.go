package repository

import (
	"context"
	"fmt"
	"time"

	"restobar/internal/config"
	"restobar/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const slotLockPrefix = "slot_lock:"

// releaseScript deletes the lock only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSlotLocker shares slot locks between processes writing to one store.
type RedisSlotLocker struct {
	client *redis.Client
	logger *zerolog.Logger
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSlotLocker(client *redis.Client, logger *zerolog.Logger) *RedisSlotLocker {
	return &RedisSlotLocker{client: client, logger: logger}
}

func (r *RedisSlotLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	lockKey := slotLockPrefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSlotLocked
	}

	return func() {
		// the caller's context may already be done when the lock is released
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(releaseCtx, r.client, []string{lockKey}, token).Int()
		switch {
		case err != nil:
			r.logger.Error().Err(err).Str("slot", key).Dur("ttl", ttl).
				Msg("slot lock release failed, slot stays locked until the ttl runs out")
		case deleted == 0:
			r.logger.Warn().Str("slot", key).Dur("ttl", ttl).Msg("slot lock expired before release")
		}
	}, nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
