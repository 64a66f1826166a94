package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"givehub/portal-backend/pkg/apperr"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the account endpoints. authMiddleware guards everything
// except register and login.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)

	authed := rg.Group("", authMiddleware)
	{
		authed.POST("/logout", h.Logout)
		authed.GET("/me", h.Me)
		authed.PUT("/update-profile", h.UpdateProfile)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to register user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to log in", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	principal, _ := CurrentPrincipal(c)
	if err := h.service.Logout(c.Request.Context(), principal); err != nil {
		apperr.Respond(c, h.logger, "Failed to log out", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	principal, _ := CurrentPrincipal(c)
	user, err := h.service.Me(c.Request.Context(), principal.UserID)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to load current user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, _ := CurrentPrincipal(c)
	user, err := h.service.UpdateProfile(c.Request.Context(), principal.UserID, req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
