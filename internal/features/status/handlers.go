// Package status — handlers.go: корневое сообщение API, отметки и /healthz.
package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/ethical-karma/internal/common"
)

// RootMessage — ответ GET / внутри API.
const RootMessage = "Ethical Shopping Karma API"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register подключает маршруты к группе API.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.POST("/status", h.Create)
	r.GET("/status", h.List)
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": RootMessage})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(common.Invalid("body", "invalid request body: %v", err))
		return
	}
	check, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) List(c *gin.Context) {
	checks, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, checks)
}

// Health — GET /healthz (вне префикса API).
func (h *Handler) Health(c *gin.Context) {
	if err := h.service.Healthy(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
