// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание сверки балансов кармы с журналом.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/config"
	"serotonyl.ru/ethical-karma/internal/features/karma"
)

// Reconciler — то, что умеет сверить всех пользователей.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (karma.ReconcileSummary, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	schedule   string
	enabled    bool
	location   *time.Location
}

// NewScheduler создаёт планировщик в часовом поясе APP_TIMEZONE.
func NewScheduler(reconciler Reconciler, cfg *config.Config) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		reconciler: reconciler,
		schedule:   cfg.KarmaReconcileSchedule,
		enabled:    cfg.FeatureReconcileEnabled,
		location:   loc,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.enabled {
		log.Info("Сверка кармы по расписанию выключена")
		return nil
	}

	// Сверка кэшированных балансов с журналом
	_, err := s.cron.AddFunc(s.schedule, func() {
		log.Debug("[CRON] Сверка кармы")
		if _, err := s.reconciler.ReconcileAll(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сверки кармы")
		}
	})
	if err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"schedule": s.schedule,
		"timezone": s.location.String(),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущей задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
