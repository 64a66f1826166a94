package requests

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/pkg/apperr"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterReceiverRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/requests")
	{
		requests.GET("", h.ListOwn)
		requests.POST("", h.Create)
		requests.GET("/:id", h.GetOwn)
		requests.GET("/:id/details", h.Details)
		requests.DELETE("/:id", h.Delete)
	}
}

// RegisterDonorRoutes mounts the browse endpoint for donors
func (h *Handler) RegisterDonorRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests/approved", h.ListOpen)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/requests")
	{
		requests.GET("", h.List)
		requests.GET("/:id", h.Get)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	r, err := h.service.Create(c.Request.Context(), principal.UserID, req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to create request", err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListOwn(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)
	list, err := h.service.ListForReceiver(c.Request.Context(), principal.UserID, c.Query("status"), c.Query("q"))
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list requests", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOwn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	r, err := h.service.GetForReceiver(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get request", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) Details(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	details, err := h.service.DetailsForReceiver(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get request details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	if err := h.service.Delete(c.Request.Context(), principal.UserID, id); err != nil {
		apperr.Respond(c, h.logger, "Failed to delete request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request deleted"})
}

func (h *Handler) ListOpen(c *gin.Context) {
	list, err := h.service.ListOpen(c.Request.Context(), c.Query("category"), c.Query("q"))
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list approved requests", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), Filter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("q"),
	})
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list requests", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	r, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get request", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	r, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to approve request", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req RejectRequest
	_ = c.ShouldBindJSON(&req)

	r, err := h.service.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to reject request", err)
		return
	}
	c.JSON(http.StatusOK, r)
}
