// Package users — handlers.go обрабатывает HTTP-запросы регистрации и профиля.
package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/ethical-karma/internal/common"
)

// Handler обрабатывает запросы пользователей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик пользователей.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register подключает маршруты пользователей к группе.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/users", h.Create)
	r.GET("/users/:id", h.Get)
}

// Create — POST /users.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(common.Invalid("body", "invalid request body: %v", err))
		return
	}

	u, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Get — GET /users/:id.
func (h *Handler) Get(c *gin.Context) {
	u, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}
