package interests

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/workflows"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterDonorRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:id/interest", h.Create)
	rg.GET("/interests", h.ListOwn)
	rg.DELETE("/interests/:id", h.Withdraw)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	interests := rg.Group("/interests")
	{
		interests.GET("", h.List)
		interests.GET("/pending", h.listByStatus(workflows.StatusPending))
		interests.GET("/approved", h.listByStatus(workflows.StatusApproved))
		interests.GET("/rejected", h.listByStatus(workflows.StatusRejected))
		interests.GET("/completed", h.listByStatus(workflows.StatusCompleted))
		interests.GET("/:id", h.Get)
		interests.POST("/:id/approve", h.Approve)
		interests.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) Create(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req CreateInterestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	principal, _ := auth.CurrentPrincipal(c)
	interest, err := h.service.Create(c.Request.Context(), principal.UserID, requestID, req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to create interest", err)
		return
	}
	c.JSON(http.StatusCreated, interest)
}

func (h *Handler) ListOwn(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)
	list, err := h.service.ListForDonor(c.Request.Context(), principal.UserID, c.Query("status"))
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list interests", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Withdraw(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	if err := h.service.Withdraw(c.Request.Context(), principal.UserID, id); err != nil {
		apperr.Respond(c, h.logger, "Failed to withdraw interest", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "interest withdrawn"})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), Filter{Status: c.Query("status"), Search: c.Query("q")})
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list interests", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) listByStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.List(c.Request.Context(), Filter{Status: status, Search: c.Query("q")})
		if err != nil {
			apperr.Respond(c, h.logger, "Failed to list interests", err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	interest, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get interest", err)
		return
	}
	c.JSON(http.StatusOK, interest)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	interest, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to approve interest", err)
		return
	}
	c.JSON(http.StatusOK, interest)
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	interest, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to reject interest", err)
		return
	}
	c.JSON(http.StatusOK, interest)
}
