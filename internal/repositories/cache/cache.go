// Package cache wraps redis for the wallet read cache, the auto top-up
// queue and outbox event publication.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"shiftpay/internal/config"
	"shiftpay/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	walletCachePrefix = "wallet:"
	topupQueueKey     = "topup:queue"
	eventChannel      = "ledger:events"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisConfig creates a RedisConfig from environment or defaults.
func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         config.GetEnv("REDIS_HOST", "localhost"),
		Port:         config.GetEnv("REDIS_PORT", "6379"),
		Password:     config.GetEnv("REDIS_PASSWORD", ""),
		DB:           config.GetIntEnv("REDIS_DB", 0),
		PoolSize:     config.GetIntEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: config.GetIntEnv("REDIS_MIN_IDLE_CONNS", 5),
		DialTimeout:  config.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  config.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: config.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

// NewRedisClient connects a redis client with pooling.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	log.Printf("Connecting to Redis at %s:%s (DB %d)", cfg.Host, cfg.Port, cfg.DB)
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// CacheService wraps redis for the wallet read cache, the auto top-up queue
// and outbox event publication. Cached wallets are advisory: every committed
// mutation invalidates, and callers re-read the store after a write.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService creates a CacheService with the given entry TTL.
func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{client: client, ttl: ttl}
}

func walletKey(accountID uint, accountType string) string {
	return fmt.Sprintf("%s%s:%d", walletCachePrefix, accountType, accountID)
}

// GetWallet returns a cached wallet or an error on miss.
func (s *CacheService) GetWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error) {
	raw, err := s.client.Get(ctx, walletKey(accountID, accountType)).Bytes()
	if err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := json.Unmarshal(raw, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// SetWallet caches a wallet snapshot.
func (s *CacheService) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, walletKey(wallet.AccountID, wallet.AccountType), raw, s.ttl).Err()
}

// InvalidateWallet drops the cached snapshot after a committed mutation.
func (s *CacheService) InvalidateWallet(ctx context.Context, accountID uint, accountType string) {
	if err := s.client.Del(ctx, walletKey(accountID, accountType)).Err(); err != nil {
		log.Printf("Failed to invalidate wallet cache %s:%d: %v", accountType, accountID, err)
	}
}

// EnqueueTopup pushes a serialized top-up request onto the queue.
func (s *CacheService) EnqueueTopup(ctx context.Context, payload []byte) error {
	return s.client.LPush(ctx, topupQueueKey, payload).Err()
}

// DequeueTopup blocks up to timeout for the next top-up request. A nil
// payload with nil error means the wait timed out.
func (s *CacheService) DequeueTopup(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := s.client.BRPop(ctx, timeout, topupQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// PublishEvent fans a drained outbox event out to subscribers.
func (s *CacheService) PublishEvent(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, eventChannel, payload).Err()
}

// FlushAll clears the cache database. Used on startup in development.
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

// Close releases the underlying client.
func (s *CacheService) Close() error {
	return s.client.Close()
}
