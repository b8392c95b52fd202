package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/ethical-karma/internal/common"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"not found", common.ErrUserNotFound, http.StatusNotFound, "not_found", "User not found"},
		{"wrapped not found", fmt.Errorf("lookup: %w", common.ErrProductNotFound), http.StatusNotFound, "not_found", "Product not found"},
		{"conflict", common.ErrEmailTaken, http.StatusBadRequest, "conflict", "User already exists"},
		{"validation", common.Invalid("points", "points is required"), http.StatusBadRequest, "validation_error", "points is required"},
		{"unavailable", common.Unavailable(context.DeadlineExceeded), http.StatusServiceUnavailable, "service_unavailable", "service unavailable"},
		{"internal", errors.New("pq: secret table name"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, payload.Type)
			assert.Equal(t, tt.message, payload.Message)
		})
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), ErrorHandlingMiddleware())
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(common.Unavailable(errors.New("dial tcp: refused"))) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":{"type":"service_unavailable","message":"service unavailable"}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"type":"internal_error","message":"internal server error"}}`, w.Body.String())
}
