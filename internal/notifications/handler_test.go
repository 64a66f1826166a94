package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
)

func newRouter(svc *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(svc, nil, zap.NewNop())
	rg := router.Group("", func(c *gin.Context) {
		auth.WithPrincipal(c, &auth.Principal{UserID: userID, Role: auth.RoleDonor})
	})
	h.RegisterRoutes(rg)
	return router
}

func TestHandlerListEmptyInbox(t *testing.T) {
	svc := NewService(&memoryStore{}, zap.NewNop())

	w := httptest.NewRecorder()
	newRouter(svc, uuid.New()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"notifications":[],"unread":0}`, w.Body.String())
}

func TestHandlerMarkRead(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, zap.NewNop())
	userID := uuid.New()
	svc.Notify(context.Background(), Event{Type: EventInterestApproved, UserID: userID, Title: "Interest approved"})
	id := store.items[0].ID
	router := newRouter(svc, userID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/"+id.String()+"/read", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil))
	var body struct {
		Notifications []Notification `json:"notifications"`
		Unread        int64          `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Notifications)
	assert.Zero(t, body.Unread)
}

func TestHandlerMarkReadOtherUsersNotification(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, zap.NewNop())
	svc.Notify(context.Background(), Event{Type: EventInterestApproved, UserID: uuid.New()})

	w := httptest.NewRecorder()
	newRouter(svc, uuid.New()).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/notifications/"+store.items[0].ID.String()+"/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
