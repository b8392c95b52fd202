// Package karma — service.go содержит бизнес-логику кармы.
package karma

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/config"
	"serotonyl.ru/ethical-karma/internal/features/users"
	"serotonyl.ru/ethical-karma/internal/metrics"
)

// UserLookup — откуда сервис берёт пользователя перед начислением.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Service управляет начислением кармы и историей.
type Service struct {
	store   Store
	users   UserLookup
	timeout time.Duration
}

// NewService создаёт сервис кармы.
func NewService(store Store, lookup UserLookup, cfg *config.Config) *Service {
	return &Service{store: store, users: lookup, timeout: cfg.StorageTimeout}
}

// Grant начисляет баллы и возвращает новый баланс.
//
// Запись в журнал и увеличение karma_points/total_impact_score выполняются
// одной атомарной операцией хранилища. Повторять Grant вслепую нельзя:
// ключа идемпотентности нет, повтор начислит баллы ещё раз.
func (s *Service) Grant(ctx context.Context, req GrantRequest) (Balance, error) {
	if req.ActionType == "" {
		req.ActionType = ActionManual
	}
	if _, err := ParseActionType(string(req.ActionType)); err != nil {
		return Balance{}, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return Balance{}, common.Invalid("description", "description is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return Balance{}, err
	}

	e := &Entry{
		ID:           common.NewID(),
		UserID:       req.UserID,
		ActionType:   req.ActionType,
		ProductID:    req.ProductID,
		PointsEarned: req.Points,
		Description:  req.Description,
		Timestamp:    common.Now(),
	}

	balance, err := s.store.Grant(ctx, e)
	metrics.RecordGrant(string(e.ActionType), e.PointsEarned, err)
	if err != nil {
		log.WithError(err).WithField("user_id", req.UserID).Error("Ошибка начисления кармы")
		return Balance{}, err
	}

	log.WithFields(log.Fields{
		"user_id":     req.UserID,
		"action_type": e.ActionType,
		"points":      e.PointsEarned,
		"balance":     balance.KarmaPoints,
	}).Info("Карма начислена")
	return balance, nil
}

// History возвращает журнал пользователя в порядке начислений.
// Для несуществующего пользователя — common.ErrUserNotFound, а не пустой список.
func (s *Service) History(ctx context.Context, userID string) (iter.Seq2[*Entry, error], error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.users.GetByID(lookupCtx, userID); err != nil {
		return nil, err
	}

	return func(yield func(*Entry, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		for e, err := range s.store.Entries(ctx, userID) {
			if !yield(e, err) {
				return
			}
		}
	}, nil
}

// Reconcile сверяет кэшированные балансы пользователя с журналом и чинит расхождение.
func (s *Service) Reconcile(ctx context.Context, userID string) (*ReconcileResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.store.Reconcile(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			metrics.RecordReconcile("failed")
		}
		return nil, err
	}

	if res.Repaired {
		metrics.RecordReconcile("repaired")
		log.WithFields(log.Fields{
			"user_id":      userID,
			"cached":       res.Before.KarmaPoints,
			"cached_score": res.Before.TotalImpactScore,
			"journal_sum":  res.JournalSum,
		}).Warn("Баланс кармы расходился с журналом — исправлен")
	} else {
		metrics.RecordReconcile("consistent")
	}
	return res, nil
}

// ReconcileAll сверяет всех пользователей. Ошибка по одному пользователю
// не останавливает сверку остальных.
func (s *Service) ReconcileAll(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	listCtx, cancel := context.WithTimeout(ctx, s.timeout)
	ids, err := s.store.UserIDs(listCtx)
	cancel()
	if err != nil {
		return summary, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := s.Reconcile(ctx, id)
		summary.Checked++
		if err != nil {
			summary.Failed++
			log.WithError(err).WithField("user_id", id).Error("Ошибка сверки кармы")
			continue
		}
		if res.Repaired {
			summary.Repaired++
		}
	}

	log.WithFields(log.Fields{
		"checked":  summary.Checked,
		"repaired": summary.Repaired,
		"failed":   summary.Failed,
	}).Info("Сверка кармы завершена")
	return summary, nil
}
