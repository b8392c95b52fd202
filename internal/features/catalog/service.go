// Package catalog — service.go содержит бизнес-логику каталога.
package catalog

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/config"
)

// Service управляет каталогом товаров.
type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration // Лимит ожидания хранилища на операцию
}

// NewService создаёт сервис каталога. cache может быть nil — тогда кеш выключен.
func NewService(store Store, cache Cache, cfg *config.Config) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cfg.CatalogCacheTTL,
		timeout:  cfg.StorageTimeout,
	}
}

// SeedIfEmpty заполняет пустой каталог демо-товарами.
// Повторные и конкурентные вызовы безопасны: дубликатов не будет.
func (s *Service) SeedIfEmpty(ctx context.Context) (int, error) {
	reqs, err := SeedCatalog()
	if err != nil {
		return 0, err
	}

	products := make([]*Product, 0, len(reqs))
	for _, r := range reqs {
		products = append(products, newProduct(r))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	inserted, err := s.store.SeedIfEmpty(ctx, products)
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		s.bumpGeneration(ctx)
		log.WithField("count", inserted).Info("Каталог заполнен демо-товарами")
	}
	return inserted, nil
}

// Create проверяет запрос и сохраняет новый товар.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := newProduct(req)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.bumpGeneration(ctx)

	log.WithFields(log.Fields{
		"product_id": p.ID,
		"category":   p.Category,
	}).Info("Товар создан")
	return p, nil
}

// GetByID возвращает товар или common.ErrProductNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return cached(ctx, s.cache, s.cacheTTL, cacheKeyProduct+id, func() (*Product, error) {
		return s.store.GetByID(ctx, id)
	})
}

// List возвращает весь каталог в стабильном порядке.
func (s *Service) List(ctx context.Context) ([]*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.cachedList(ctx, cacheKeyAll, func() ([]*Product, error) {
		return s.store.List(ctx)
	})
}

// ListByCategory возвращает товары категории (точное совпадение).
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.cachedList(ctx, cacheKeyCategory+category, func() ([]*Product, error) {
		return s.store.ListByCategory(ctx, category)
	})
}

// cachedList кеширует список под ключом текущего поколения.
// Поколение считывается до загрузки из хранилища, поэтому загрузка,
// начатая до изменения каталога, попадёт только под устаревший ключ.
func (s *Service) cachedList(ctx context.Context, base string, load func() ([]*Product, error)) ([]*Product, error) {
	key, ok := listKey(ctx, s.cache, base)
	if !ok {
		return load()
	}
	return cached(ctx, s.cache, s.cacheTTL, key, load)
}

// bumpGeneration делает все закешированные списки невидимыми.
// Вызывается после записи в хранилище.
func (s *Service) bumpGeneration(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, cacheKeyGeneration); err != nil {
		log.WithError(err).Error("Не удалось сменить поколение кеша каталога, списки могут устареть до TTL")
	}
}
