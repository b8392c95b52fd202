// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище, создаёт репозитории, сервисы,
// обработчики и собирает всё в HTTP-сервер и планировщик.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/config"
	"serotonyl.ru/ethical-karma/internal/db/memory"
	"serotonyl.ru/ethical-karma/internal/db/postgres"
	"serotonyl.ru/ethical-karma/internal/db/redis"
	"serotonyl.ru/ethical-karma/internal/features/catalog"
	"serotonyl.ru/ethical-karma/internal/features/karma"
	"serotonyl.ru/ethical-karma/internal/features/status"
	"serotonyl.ru/ethical-karma/internal/features/users"
	"serotonyl.ru/ethical-karma/internal/jobs"
	"serotonyl.ru/ethical-karma/internal/server"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler

	Catalog *catalog.Service
	Users   *users.Service
	Karma   *karma.Service
	Status  *status.Service

	db    *pgxpool.Pool
	redis *goredis.Client
}

// stores — реализации хранилищ выбранного драйвера.
type stores struct {
	catalog catalog.Store
	users   users.Store
	karma   karma.Store
	status  status.Store
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
// При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// === 1. Хранилище ===
	st, err := a.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Кеш каталога (необязателен) ===
	var cache catalog.Cache
	if cfg.RedisEnabled() {
		a.redis, err = redis.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cache = redis.NewCache(a.redis)
	}

	// === 3. Сервисы ===
	a.Catalog = catalog.NewService(st.catalog, cache, cfg)
	a.Users = users.NewService(st.users, cfg)
	a.Karma = karma.NewService(st.karma, a.Users, cfg)
	a.Status = status.NewService(st.status, cfg)

	// === 4. Демо-каталог ===
	if cfg.SeedCatalog {
		if _, err := a.Catalog.SeedIfEmpty(ctx); err != nil {
			return nil, fmt.Errorf("ошибка заполнения каталога: %w", err)
		}
	}

	// === 5. HTTP-сервер ===
	a.Server = server.New(cfg, server.Handlers{
		Catalog: catalog.NewHandler(a.Catalog),
		Users:   users.NewHandler(a.Users),
		Karma:   karma.NewHandler(a.Karma),
		Status:  status.NewHandler(a.Status),
	})

	// === 6. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(a.Karma, cfg)

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("Используется хранилище в памяти — данные не переживут перезапуск")
		m := memory.New()
		return &stores{
			catalog: m.Catalog(),
			users:   m.Users(),
			karma:   m.Karma(),
			status:  m.Status(),
		}, nil

	case config.StorageDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		a.db = pool

		if err := postgres.Migrate(ctx, pool, migrations); err != nil {
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return &stores{
			catalog: catalog.NewRepository(pool),
			users:   users.NewRepository(pool),
			karma:   karma.NewRepository(pool),
			status:  status.NewRepository(pool),
		}, nil
	}
	return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.StorageDriver)
}

// Close освобождает соединения с БД и Redis. Вызывать после остановки сервера.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
