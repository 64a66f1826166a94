package matching

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

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

// RegisterParticipantRoutes mounts match views for a donor or receiver group.
// The same handlers serve both since participation is checked per match.
func (h *Handler) RegisterParticipantRoutes(rg *gin.RouterGroup, role auth.Role) {
	matches := rg.Group("/matches")
	{
		matches.GET("", h.listOwn(role))
		matches.GET("/:id", h.GetOwn)
		matches.POST("/:id/request-execution", h.RequestExecution)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/match/interest/:id", h.MatchInterest)
	rg.POST("/match/manual", h.MatchManual)

	matches := rg.Group("/matches")
	{
		matches.GET("", h.List)
		matches.GET("/export", h.Export)
		matches.GET("/approved", h.listByStatus(workflows.StatusApproved))
		matches.GET("/executed", h.listByStatus(workflows.StatusExecuted))
		matches.GET("/completed", h.listByStatus(workflows.StatusCompleted))
		matches.GET("/:id", h.Get)
		matches.POST("/:id/execute", h.Execute)
		matches.POST("/:id/complete", h.Complete)
	}
}

func (h *Handler) MatchInterest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	m, err := h.service.CreateFromInterest(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to match interest", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) MatchManual(c *gin.Context) {
	var req ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "donationId and requestId are both required"})
		return
	}

	m, err := h.service.CreateManual(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to create manual match", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) listOwn(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := auth.CurrentPrincipal(c)

		var (
			list []Match
			err  error
		)
		if role == auth.RoleReceiver {
			list, err = h.service.ListForReceiver(c.Request.Context(), principal.UserID, c.Query("status"))
		} else {
			list, err = h.service.ListForDonor(c.Request.Context(), principal.UserID, c.Query("status"))
		}
		if err != nil {
			apperr.Respond(c, h.logger, "Failed to list matches", err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (h *Handler) GetOwn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	m, err := h.service.GetForParticipant(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get match", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) RequestExecution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	principal, _ := auth.CurrentPrincipal(c)
	m, err := h.service.RequestExecution(c.Request.Context(), principal.UserID, id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to request execution", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), Filter{Status: c.Query("status"), Search: c.Query("q")})
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to list matches", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) listByStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.List(c.Request.Context(), Filter{Status: status, Search: c.Query("q")})
		if err != nil {
			apperr.Respond(c, h.logger, "Failed to list matches", err)
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

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to get match", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) Execute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	m, err := h.service.Execute(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to execute match", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	m, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, "Failed to complete match", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", FormatXLSX)
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	switch format {
	case FormatXLSX:
	case FormatCSV:
		contentType = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		return
	}

	var buf bytes.Buffer
	filter := Filter{Status: c.Query("status"), Search: c.Query("q")}
	if err := Export(c.Request.Context(), h.service, &buf, filter, format); err != nil {
		apperr.Respond(c, h.logger, "Failed to export matches", err)
		return
	}

	filename := fmt.Sprintf("matches-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
