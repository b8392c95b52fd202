// Package server — errors.go превращает ошибки обработчиков в HTTP-ответы.
// Обработчики только кладут ошибку в c.Error(err); статус и тело выбираются здесь по common.Kind.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ethical-karma/internal/common"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware отвечает на последнюю ошибку из c.Errors,
// если обработчик сам ничего не записал.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError {
			log.WithError(lastErr.Err).WithFields(log.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"status": status,
			}).Error("Ошибка обработки запроса")
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func mapError(err error) (int, errorPayload) {
	var e *common.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, errorPayload{
			Type:    string(common.KindInternal),
			Message: "internal server error",
		}
	}

	payload := errorPayload{Type: string(e.Kind), Message: e.Message}
	switch e.Kind {
	case common.KindNotFound:
		return http.StatusNotFound, payload
	case common.KindConflict:
		// Контракт API: дубликат отдаётся как 400, а не 409.
		return http.StatusBadRequest, payload
	case common.KindValidation:
		payload.Field = e.Field
		return http.StatusBadRequest, payload
	case common.KindUnavailable:
		payload.Message = "service unavailable"
		return http.StatusServiceUnavailable, payload
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    string(common.KindInternal),
			Message: "internal server error",
		}
	}
}
