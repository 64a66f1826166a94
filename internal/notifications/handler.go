package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/internal/notifications/websocket"
	"givehub/portal-backend/pkg/apperr"
)

type Handler struct {
	service *Service
	hub     *websocket.Hub
	logger  *zap.Logger
}

func NewHandler(service *Service, hub *websocket.Hub, logger *zap.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

// RegisterRoutes expects rg to be behind auth.RequireAuth
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
	rg.POST("/notifications/:id/read", h.MarkRead)
	if h.hub != nil {
		rg.GET("/ws", h.Connect)
	}
}

func (h *Handler) List(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)

	filter := ListFilter{UnreadOnly: c.Query("unread") == "true"}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	list, err := h.service.List(c.Request.Context(), principal.UserID, filter)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list notifications", err)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), principal.UserID)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to count notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	if err := h.service.MarkRead(c.Request.Context(), principal.UserID, id); err != nil {
		apperr.Respond(c, h.logger, "Failed to mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// Connect upgrades to a websocket that receives the caller's notifications live
func (h *Handler) Connect(c *gin.Context) {
	principal, _ := auth.CurrentPrincipal(c)
	if err := h.hub.Serve(c.Writer, c.Request, principal.UserID); err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
	}
}
