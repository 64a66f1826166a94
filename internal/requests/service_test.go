package requests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/workflows"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *Request) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Request), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]Request, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Request), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) DeleteInStatus(ctx context.Context, id uuid.UUID, statuses []string) (bool, error) {
	args := m.Called(ctx, id, statuses)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepository) CountInterests(ctx context.Context, requestID uuid.UUID) (int, error) {
	args := m.Called(ctx, requestID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetMatchSummary(ctx context.Context, requestID uuid.UUID) (*MatchSummary, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MatchSummary), args.Error(1)
}

func newTestService(repo Repository) Service {
	return NewService(repo, notifications.NopNotifier{}, zap.NewNop())
}

func TestCreateRequestDefaultsUrgency(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Create", ctx, mock.AnythingOfType("*requests.Request")).Return(nil)

	r, err := newTestService(repo).Create(ctx, uuid.New(), CreateRequestRequest{
		ItemName: "Blankets", Quantity: 10, Category: "bedding",
	})
	require.NoError(t, err)
	assert.Equal(t, UrgencyMedium, r.Urgency)
	assert.Equal(t, workflows.StatusPending, r.Status)
}

func TestCreateRequestValidation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)

	_, err := newTestService(repo).Create(ctx, uuid.New(), CreateRequestRequest{
		ItemName: "Blankets", Quantity: 10, Category: "bedding", Urgency: "urgent",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListOpenOnlyApproved(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("List", ctx, Filter{Status: workflows.StatusApproved, Category: "food", Search: "rice"}).
		Return([]Request{{ID: uuid.New(), Status: workflows.StatusApproved}}, nil)

	list, err := newTestService(repo).ListOpen(ctx, " food ", "rice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRejectApprovedRequest(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	receiver := uuid.New()
	repo := new(MockRepository)
	repo.On("GetByID", ctx, id).Return(&Request{ID: id, ReceiverID: receiver, Status: workflows.StatusApproved}, nil)
	repo.On("UpdateStatus", ctx, id, workflows.StatusApproved, workflows.StatusRejected, "out of scope", mock.Anything).Return(true, nil)

	r, err := newTestService(repo).Reject(ctx, id, "out of scope")
	require.NoError(t, err)
	assert.Equal(t, workflows.StatusRejected, r.Status)
	assert.Equal(t, "out of scope", r.RejectionReason)
}

func TestDetailsForReceiver(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	receiver := uuid.New()
	repo := new(MockRepository)
	repo.On("GetByID", ctx, id).Return(&Request{ID: id, ReceiverID: receiver, Status: workflows.StatusApproved}, nil)
	repo.On("CountInterests", ctx, id).Return(2, nil)
	repo.On("GetMatchSummary", ctx, id).Return(nil, nil)

	details, err := newTestService(repo).DetailsForReceiver(ctx, receiver, id)
	require.NoError(t, err)
	assert.Equal(t, 2, details.InterestCount)
	assert.Nil(t, details.Match)

	_, err = newTestService(repo).DetailsForReceiver(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApprovedRequestsRouteForDonors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(MockRepository)
	repo.On("List", mock.Anything, Filter{Status: workflows.StatusApproved}).Return([]Request{}, nil)

	router := gin.New()
	donor := router.Group("/donor", func(c *gin.Context) {
		auth.WithPrincipal(c, &auth.Principal{UserID: uuid.New(), Role: auth.RoleDonor})
	})
	NewHandler(newTestService(repo), zap.NewNop()).RegisterDonorRoutes(donor)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/donor/requests/approved", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
