// Package users — service.go содержит бизнес-логику регистрации пользователей.
package users

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/config"
)

// Service управляет пользователями.
type Service struct {
	store   Store
	timeout time.Duration
}

// NewService создаёт сервис пользователей.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, timeout: cfg.StorageTimeout}
}

// Create регистрирует пользователя с нулевыми балансами.
// Если email уже занят — common.ErrEmailTaken.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" {
		return nil, common.Invalid("email", "email is required")
	}
	if name == "" {
		return nil, common.Invalid("name", "name is required")
	}

	u := &User{
		ID:        common.NewID(),
		Email:     email,
		Name:      name,
		Purchases: []string{},
		CreatedAt: common.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	log.WithField("user_id", u.ID).Info("Пользователь зарегистрирован")
	return u, nil
}

// GetByID возвращает пользователя или common.ErrUserNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.GetByID(ctx, id)
}
