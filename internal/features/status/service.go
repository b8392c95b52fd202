// Package status — service.go: запись и чтение отметок, проверка здоровья хранилища.
package status

import (
	"context"
	"strings"
	"time"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/config"
)

type Service struct {
	store   Store
	timeout time.Duration
}

func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, timeout: cfg.StorageTimeout}
}

// Create сохраняет отметку клиента.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Check, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, common.Invalid("client_name", "client_name is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c := &Check{ID: common.NewID(), ClientName: name, Timestamp: common.Now()}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List возвращает первые listLimit отметок.
func (s *Service) List(ctx context.Context) ([]*Check, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.List(ctx, listLimit)
}

// Healthy проверяет, что хранилище отвечает.
func (s *Service) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.Ping(ctx)
}
