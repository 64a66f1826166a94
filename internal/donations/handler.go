package donations

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

// RegisterDonorRoutes expects rg to be restricted to donors
func (h *Handler) RegisterDonorRoutes(rg *gin.RouterGroup) {
	donations := rg.Group("/donations")
	{
		donations.GET("", h.ListOwn)
		donations.POST("", h.Create)
		donations.GET("/:id", h.GetOwn)
		donations.GET("/:id/details", h.Details)
		donations.DELETE("/:id", h.Delete)
	}
}

// RegisterAdminRoutes expects rg to be restricted to admins
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	donations := rg.Group("/donations")
	{
		donations.GET("", h.List)
		donations.GET("/:id", h.Get)
		donations.POST("/:id/approve", h.Approve)
		donations.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	d, err := h.service.Create(c.Request.Context(), principal.UserID, req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to create donation", err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListOwn(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)
	list, err := h.service.ListForDonor(c.Request.Context(), principal.UserID, c.Query("status"), c.Query("q"))
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list donations", err)
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
	d, err := h.service.GetForDonor(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get donation", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Details(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	details, err := h.service.DetailsForDonor(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get donation details", err)
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
		apperr.Respond(c, h.logger, "Failed to delete donation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "donation deleted"})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), Filter{
		Status: c.Query("status"),
		Search: c.Query("q"),
	})
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list donations", err)
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

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get donation", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	d, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to approve donation", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	// the body is optional
	var req RejectRequest
	_ = c.ShouldBindJSON(&req)

	d, err := h.service.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to reject donation", err)
		return
	}
	c.JSON(http.StatusOK, d)
}
