package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"givehub/portal-backend/internal/admin"
	"givehub/portal-backend/internal/app"
	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/internal/certificates"
	"givehub/portal-backend/internal/donations"
	"givehub/portal-backend/internal/interests"
	"givehub/portal-backend/internal/logger"
	"givehub/portal-backend/internal/matching"
	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/internal/requests"
)

func newRouter(a *app.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(a.Logger))
	router.Use(metrics.Middleware())
	router.Use(corsMiddleware(a.Config.Server.AllowedOrigins))

	authHandler := auth.NewHandler(a.Auth, a.Logger)
	donationHandler := donations.NewHandler(a.Donations, a.Logger)
	requestHandler := requests.NewHandler(a.Requests, a.Logger)
	interestHandler := interests.NewHandler(a.Interests, a.Logger)
	matchHandler := matching.NewHandler(a.Matching, a.Logger)
	certificateHandler := certificates.NewHandler(a.Certificates, a.Logger)
	adminHandler := admin.NewHandler(a.Admin, a.Logger)
	notificationHandler := notifications.NewHandler(a.Notifications, a.Hub, a.Logger)

	requireAuth := auth.RequireAuth(a.Auth)

	api := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(api, requireAuth)
		certificateHandler.RegisterPublicRoutes(api)

		notificationHandler.RegisterRoutes(api.Group("", requireAuth))

		donor := api.Group("/donor", requireAuth, auth.RequireRole(auth.RoleDonor))
		donationHandler.RegisterDonorRoutes(donor)
		requestHandler.RegisterDonorRoutes(donor)
		interestHandler.RegisterDonorRoutes(donor)
		matchHandler.RegisterParticipantRoutes(donor, auth.RoleDonor)
		certificateHandler.RegisterDonorRoutes(donor)

		receiver := api.Group("/receiver", requireAuth, auth.RequireRole(auth.RoleReceiver))
		requestHandler.RegisterReceiverRoutes(receiver)
		matchHandler.RegisterParticipantRoutes(receiver, auth.RoleReceiver)

		adminGroup := api.Group("/admin", requireAuth, auth.RequireRole(auth.RoleAdmin))
		adminHandler.RegisterRoutes(adminGroup)
		donationHandler.RegisterAdminRoutes(adminGroup)
		requestHandler.RegisterAdminRoutes(adminGroup)
		interestHandler.RegisterAdminRoutes(adminGroup)
		matchHandler.RegisterAdminRoutes(adminGroup)
	}

	router.GET("/metrics", metrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := a.DB.PingContext(c.Request.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
		})
	})

	return router
}

// corsMiddleware echoes the Origin back when it is allowed. "*" allows any origin.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
