package certificates

import (
	"fmt"
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

func (h *Handler) RegisterDonorRoutes(rg *gin.RouterGroup) {
	certs := rg.Group("/certificates")
	{
		certs.GET("", h.List)
		certs.GET("/:id", h.Get)
		certs.GET("/:id/download", h.Download)
	}
}

// RegisterPublicRoutes mounts endpoints that need no authentication
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/certificates/verify/:number", h.Verify)
}

func (h *Handler) List(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)
	list, err := h.service.ListForDonor(c.Request.Context(), principal.UserID)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list certificates", err)
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

	principal, _ := auth.CurrentPrincipal(c)
	cert, err := h.service.GetForDonor(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get certificate", err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	cert, body, err := h.service.Download(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to download certificate", err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.pdf"`, cert.CertificateNumber),
	})
}

func (h *Handler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to verify certificate", err)
		return
	}
	if !result.Valid {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
