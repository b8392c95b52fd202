// Package catalog — handlers.go обрабатывает HTTP-запросы к каталогу.
package catalog

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/ethical-karma/internal/common"
)

// Handler обрабатывает запросы каталога.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик каталога.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register подключает маршруты каталога к группе.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/products", h.List)
	r.POST("/products", h.Create)
	r.GET("/products/category/:category", h.ListByCategory)
	r.GET("/products/:id", h.Get)
}

// List — GET /products.
func (h *Handler) List(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Get — GET /products/:id.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create — POST /products.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(common.Invalid("body", "invalid request body: %v", err))
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListByCategory — GET /products/category/:category.
func (h *Handler) ListByCategory(c *gin.Context) {
	products, err := h.service.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}
