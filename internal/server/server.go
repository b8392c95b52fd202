// Package server собирает HTTP-сервер API: gin-движок, middleware,
// маршруты фич под API_PREFIX, /healthz и /metrics вне префикса.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/config"
	"serotonyl.ru/ethical-karma/internal/features/catalog"
	"serotonyl.ru/ethical-karma/internal/features/karma"
	"serotonyl.ru/ethical-karma/internal/features/status"
	"serotonyl.ru/ethical-karma/internal/features/users"
	"serotonyl.ru/ethical-karma/internal/metrics"
)

// Handlers — обработчики фич, которые регистрирует сервер.
type Handlers struct {
	Catalog *catalog.Handler
	Users   *users.Handler
	Karma   *karma.Handler
	Status  *status.Handler
}

// Server — HTTP-сервер API.
type Server struct {
	engine  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

// New создаёт сервер и регистрирует все маршруты.
func New(cfg *config.Config, h Handlers) *Server {
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	engine := gin.New()
	engine.Use(
		Recovery(),
		RequestLogger(),
		Metrics(),
		limiter.Middleware(),
		ErrorHandlingMiddleware(),
	)

	engine.GET("/healthz", h.Status.Health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group(cfg.APIPrefix)
	h.Status.Register(api)
	h.Catalog.Register(api)
	h.Users.Register(api)
	h.Karma.Register(api)

	return &Server{
		engine:  engine,
		limiter: limiter,
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      engine,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
		},
	}
}

// Handler возвращает http.Handler (для тестов через httptest).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start слушает адрес до Shutdown. Штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	log.WithField("addr", s.http.Addr).Info("HTTP-сервер запущен")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения активных запросов и останавливает лимитер.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Close()
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("HTTP-сервер остановлен")
	return nil
}
