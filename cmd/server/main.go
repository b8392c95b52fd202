// Package main — точка входа API.
// Загружает конфигурацию, инициализирует приложение и запускает HTTP-сервер и планировщик.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/ethical-karma/internal/app"
	"serotonyl.ru/ethical-karma/internal/config"
)

func main() {
	// Настраиваем логирование
	setupLogging()

	log.Info("=== Сервис запускается ===")

	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	// Устанавливаем уровень логирования из конфига
	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// Контекст отменяется по Ctrl+C или docker stop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем приложение (хранилище, кеш, сервисы, обработчики)
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(application.Server.Start)

	g.Go(func() error {
		if err := application.Scheduler.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		application.Scheduler.Stop()
		return nil
	})

	// Останавливаем сервер по сигналу или если другая горутина упала
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Получен сигнал остановки, останавливаемся...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	log.Info("=== Сервис готов к работе ===")

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Сервис завершился с ошибкой")
		application.Close()
		os.Exit(1)
	}

	log.Info("=== Сервис остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
