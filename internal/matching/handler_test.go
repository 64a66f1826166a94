package matching

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
)

func newAdminRouter(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(newTestService(repo, nil), zap.NewNop()).RegisterAdminRoutes(router.Group("/admin"))
	return router
}

func TestManualMatchMissingBody(t *testing.T) {
	router := newAdminRouter(newTestRepo())

	for _, body := range []string{"", `{}`, `{"donationId":"` + uuid.NewString() + `"}`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/match/manual", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestExportXLSX(t *testing.T) {
	repo := newTestRepo()
	repo.On("List", mock.Anything, Filter{Status: "completed"}).Return([]Match{{ID: uuid.New(), ItemName: "Tents", Quantity: 2}}, nil)

	w := httptest.NewRecorder()
	newAdminRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/matches/export?status=completed", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	w := httptest.NewRecorder()
	newAdminRouter(newTestRepo()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/matches/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParticipantListUsesRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	receiverID := uuid.New()
	repo := newTestRepo()
	repo.On("List", mock.Anything, Filter{ReceiverID: &receiverID}).Return([]Match{}, nil)

	router := gin.New()
	group := router.Group("/receiver", func(c *gin.Context) {
		auth.WithPrincipal(c, &auth.Principal{UserID: receiverID, Role: auth.RoleReceiver})
	})
	NewHandler(newTestService(repo, nil), zap.NewNop()).RegisterParticipantRoutes(group, auth.RoleReceiver)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receiver/matches", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
