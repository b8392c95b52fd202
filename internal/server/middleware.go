package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/metrics"
)

// RequestLogger пишет одну запись на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP-запрос")
			return
		}
		entry.Debug("HTTP-запрос")
	}
}

// Recovery перехватывает панику в обработчике и отвечает 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"component": "panic_recovery",
					"panic":     fmt.Sprintf("%v", r),
					"stack":     string(debug.Stack()),
				}).Error("ПАНИКА в обработчике — восстановлено")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errorPayload{
					Type:    "internal_error",
					Message: "internal server error",
				}})
			}
		}()
		c.Next()
	}
}

// Metrics считает запросы по шаблону маршрута, а не по фактическому пути.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
