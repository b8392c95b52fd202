// Package redis — кеш чтения каталога поверх Redis.
// Включается, только если задан REDIS_ADDR.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/config"
)

// Cache реализует catalog.Cache.
type Cache struct {
	client *redis.Client
}

// NewClient подключается к Redis и проверяет соединение.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.RedisAddr),
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	log.WithField("addr", cfg.RedisAddr).Info("Подключено к Redis")
	return client, nil
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get возвращает (nil, false, nil) при промахе.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Incr — атомарный INCR, отсутствующий ключ считается нулём.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}
