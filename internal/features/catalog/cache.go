// Package catalog — cache.go описывает кеш чтения каталога.
// Товары неизменяемы, поэтому запись по id никогда не устаревает.
// Ключи списков содержат номер поколения каталога: Create и SeedIfEmpty
// увеличивают его, и списки, загруженные до изменения, больше никто не читает
// (даже если их Set опоздал и выполнился после изменения).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cache — хранилище байтов по ключу с TTL. Реализация: redis.Cache.
// Ошибки кеша не должны ломать чтение: сервис идёт в Store напрямую.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr атомарно увеличивает счётчик и возвращает новое значение.
	Incr(ctx context.Context, key string) (int64, error)
}

const (
	cacheKeyGeneration = "catalog:generation"
	cacheKeyAll        = "catalog:products:all"
	cacheKeyProduct    = "catalog:product:"
	cacheKeyCategory   = "catalog:category:"
)

// listKey добавляет к ключу списка текущее поколение каталога.
// ok=false — поколение прочитать не удалось, кешировать список нельзя.
func listKey(ctx context.Context, c Cache, base string) (string, bool) {
	raw, found, err := c.Get(ctx, cacheKeyGeneration)
	if err != nil {
		log.WithError(err).Warn("Кеш каталога недоступен")
		return "", false
	}
	var gen int64
	if found {
		if gen, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
			log.WithField("value", string(raw)).Warn("Битое поколение каталога в кеше")
			return "", false
		}
	}
	return fmt.Sprintf("%s:%d", base, gen), true
}

// noopCache — кеш выключен.
type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noopCache) Incr(context.Context, string) (int64, error) { return 0, nil }

// cached читает значение из кеша или загружает его через load и кладёт в кеш.
func cached[T any](ctx context.Context, c Cache, ttl time.Duration, key string, load func() (T, error)) (T, error) {
	if raw, ok, err := c.Get(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("Кеш каталога недоступен")
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.WithField("key", key).Warn("Битая запись в кеше каталога, перечитываем")
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("Не удалось записать в кеш каталога")
	}
	return v, nil
}
