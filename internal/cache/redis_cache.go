package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"valcoin-api/internal/models"
)

// ErrCacheMiss is returned when the requested key is absent.
var ErrCacheMiss = errors.New("cache miss")

type CacheService interface {
	// Generic cache operations
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Ledger specific cache operations
	CacheBalance(ctx context.Context, userID int64, balance string, expiration time.Duration) error
	GetCachedBalance(ctx context.Context, userID int64) (string, error)
	CacheTransactions(ctx context.Context, userID int64, transactions []*models.Transaction, expiration time.Duration) error
	GetCachedTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error)
	InvalidateUser(ctx context.Context, userID int64) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

type redisCache struct {
	client *redis.Client
	config *CacheConfig
}

type CacheConfig struct {
	Host         string
	Port         int
	Password     string
	Database     int
	PoolSize     int
	MinIdleConns int
	Timeout      time.Duration
	KeyPrefix    string
}

func NewRedisCache(config *CacheConfig) (CacheService, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.Database,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.Timeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisCache{
		client: rdb,
		config: config,
	}, nil
}

// NewRedisCacheFromClient wraps an already connected client, sharing the pool
// with the rest of the application.
func NewRedisCacheFromClient(client *redis.Client, keyPrefix string) CacheService {
	return &redisCache{
		client: client,
		config: &CacheConfig{KeyPrefix: keyPrefix},
	}
}

func (r *redisCache) buildKey(key string) string {
	if r.config.KeyPrefix != "" {
		return fmt.Sprintf("%s:%s", r.config.KeyPrefix, key)
	}
	return key
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.client.Set(ctx, r.buildKey(key), data, expiration).Err()
}

func (r *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.buildKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get value: %w", err)
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.buildKey(key)).Err()
}

func (r *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, r.buildKey(key)).Result()
	return result > 0, err
}

func balanceKey(userID int64) string {
	return fmt.Sprintf("user:%d:balance", userID)
}

func transactionsKey(userID int64) string {
	return fmt.Sprintf("user:%d:transactions", userID)
}

func (r *redisCache) CacheBalance(ctx context.Context, userID int64, balance string, expiration time.Duration) error {
	return r.Set(ctx, balanceKey(userID), balance, expiration)
}

func (r *redisCache) GetCachedBalance(ctx context.Context, userID int64) (string, error) {
	var balance string
	if err := r.Get(ctx, balanceKey(userID), &balance); err != nil {
		return "", err
	}
	return balance, nil
}

func (r *redisCache) CacheTransactions(ctx context.Context, userID int64, transactions []*models.Transaction, expiration time.Duration) error {
	return r.Set(ctx, transactionsKey(userID), transactions, expiration)
}

func (r *redisCache) GetCachedTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	if err := r.Get(ctx, transactionsKey(userID), &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// InvalidateUser drops every cached ledger view of one user. Cached reads
// otherwise expire by TTL only, so this is for callers that cannot tolerate
// a stale balance until then.
func (r *redisCache) InvalidateUser(ctx context.Context, userID int64) error {
	if err := r.Delete(ctx, balanceKey(userID)); err != nil {
		return err
	}
	return r.Delete(ctx, transactionsKey(userID))
}

func (r *redisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
