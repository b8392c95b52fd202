// Package karma — handlers.go обрабатывает начисление кармы, историю и сверку.
package karma

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/ethical-karma/internal/common"
)

// Handler обрабатывает запросы кармы.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик кармы.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register подключает маршруты кармы к группе.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/users/:id/karma", h.Grant)
	r.GET("/users/:id/karma-history", h.History)
	r.POST("/users/:id/karma/reconcile", h.Reconcile)
}

// grantRequest — параметры приходят в query (?points=50&description=...)
// или в JSON-теле.
type grantRequest struct {
	Points      *int64  `form:"points" json:"points"`
	Description *string `form:"description" json:"description"`
	ActionType  string  `form:"action_type" json:"action_type"`
	ProductID   *string `form:"product_id" json:"product_id"`
}

// Grant — POST /users/:id/karma.
func (h *Handler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(common.Invalid("points", "invalid karma request: %v", err))
		return
	}
	if req.Points == nil {
		_ = c.Error(common.Invalid("points", "points is required"))
		return
	}
	if req.Description == nil {
		_ = c.Error(common.Invalid("description", "description is required"))
		return
	}
	action, err := ParseActionType(strings.TrimSpace(req.ActionType))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if req.ProductID != nil && strings.TrimSpace(*req.ProductID) == "" {
		req.ProductID = nil
	}

	balance, err := h.service.Grant(c.Request.Context(), GrantRequest{
		UserID:      c.Param("id"),
		Points:      *req.Points,
		Description: *req.Description,
		ActionType:  action,
		ProductID:   req.ProductID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Karma points added successfully",
		"change":             common.FormatKarmaDelta(*req.Points),
		"karma_points":       balance.KarmaPoints,
		"total_impact_score": balance.TotalImpactScore,
	})
}

// History — GET /users/:id/karma-history.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]*Entry, 0)
	for e, err := range entries {
		if err != nil {
			_ = c.Error(err)
			return
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, out)
}

// Reconcile — POST /users/:id/karma/reconcile. Пересчитывает баланс по журналу.
func (h *Handler) Reconcile(c *gin.Context) {
	res, err := h.service.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
