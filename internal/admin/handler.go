package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
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

// RegisterRoutes mounts the overview endpoints on an admin-only group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/status-counts", h.StatusCounts)
	rg.GET("/users", h.ListUsers)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to build dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) StatusCounts(c *gin.Context) {
	counts, err := h.service.StatusCounts(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to count statuses", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) ListUsers(c *gin.Context) {
	filter := auth.UserFilter{Search: strings.TrimSpace(c.Query("q"))}
	if role := c.Query("role"); role != "" {
		r := auth.Role(role)
		if r != auth.RoleDonor && r != auth.RoleReceiver && r != auth.RoleAdmin {
			apperr.Respond(c, h.logger, "Invalid role filter", fmt.Errorf("unknown role %q: %w", role, apperr.ErrInvalidInput))
			return
		}
		filter.Role = &r
	}

	users, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
