package donations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/workflows"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, d *Donation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Donation), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]Donation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Donation), args.Error(1)
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

func (m *MockRepository) GetMatchSummary(ctx context.Context, donationID uuid.UUID) (*MatchSummary, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MatchSummary), args.Error(1)
}

// recordingNotifier keeps every event it receives
type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notifications.Event) {
	r.events = append(r.events, e)
}

func TestCreateDonation(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*donations.Donation")).Return(nil)
		svc := NewService(repo, notifications.NopNotifier{}, zap.NewNop())

		d, err := svc.Create(ctx, donorID, CreateDonationRequest{
			ItemName: " Winter coats ", Quantity: 4, Category: "clothing", Condition: ConditionGood,
		})
		require.NoError(t, err)
		assert.Equal(t, "Winter coats", d.ItemName)
		assert.Equal(t, workflows.StatusPending, d.Status)
		assert.Equal(t, donorID, d.DonorID)
		repo.AssertExpectations(t)
	})

	cases := map[string]CreateDonationRequest{
		"missing item":     {Quantity: 1, Category: "c", Condition: ConditionNew},
		"zero quantity":    {ItemName: "x", Category: "c", Condition: ConditionNew},
		"missing category": {ItemName: "x", Quantity: 1, Condition: ConditionNew},
		"bad condition":    {ItemName: "x", Quantity: 1, Category: "c", Condition: "broken"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, notifications.NopNotifier{}, zap.NewNop())
			_, err := svc.Create(ctx, donorID, req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestApproveAndReject(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	donorID := uuid.New()

	t.Run("approve pending", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		repo.On("GetByID", ctx, id).Return(&Donation{ID: id, DonorID: donorID, Status: workflows.StatusPending}, nil)
		repo.On("UpdateStatus", ctx, id, workflows.StatusPending, workflows.StatusApproved, "", mock.AnythingOfType("time.Time")).Return(true, nil)

		d, err := NewService(repo, notifier, zap.NewNop()).Approve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, workflows.StatusApproved, d.Status)
		require.Len(t, notifier.events, 1)
		assert.Equal(t, notifications.EventDonationApproved, notifier.events[0].Type)
		assert.Equal(t, donorID, notifier.events[0].UserID)
	})

	t.Run("approve twice is invalid", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, id).Return(&Donation{ID: id, Status: workflows.StatusApproved}, nil)

		_, err := NewService(repo, notifications.NopNotifier{}, zap.NewNop()).Approve(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reject matched is invalid", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, id).Return(&Donation{ID: id, Status: workflows.StatusMatched}, nil)

		_, err := NewService(repo, notifications.NopNotifier{}, zap.NewNop()).Reject(ctx, id, "no")
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	})

	t.Run("concurrent change is a conflict", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, id).Return(&Donation{ID: id, Status: workflows.StatusPending}, nil)
		repo.On("UpdateStatus", ctx, id, workflows.StatusPending, workflows.StatusRejected, "duplicate", mock.Anything).Return(false, nil)

		_, err := NewService(repo, notifications.NopNotifier{}, zap.NewNop()).Reject(ctx, id, " duplicate ")
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := NewService(repo, notifications.NopNotifier{}, zap.NewNop()).Approve(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestDonorScoping(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	owner := uuid.New()
	repo := new(MockRepository)
	repo.On("GetByID", ctx, id).Return(&Donation{ID: id, DonorID: owner, Status: workflows.StatusApproved}, nil)
	svc := NewService(repo, notifications.NopNotifier{}, zap.NewNop())

	_, err := svc.GetForDonor(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.Delete(ctx, owner, id)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	repo.AssertNotCalled(t, "DeleteInStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeletePending(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	owner := uuid.New()
	repo := new(MockRepository)
	repo.On("GetByID", ctx, id).Return(&Donation{ID: id, DonorID: owner, Status: workflows.StatusPending}, nil)
	repo.On("DeleteInStatus", ctx, id, []string{workflows.StatusPending, workflows.StatusRejected}).Return(true, nil)

	require.NoError(t, NewService(repo, notifications.NopNotifier{}, zap.NewNop()).Delete(ctx, owner, id))
	repo.AssertExpectations(t)
}

func TestDetailsIncludesMatch(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	owner := uuid.New()
	summary := &MatchSummary{ID: uuid.New(), Status: workflows.StatusApproved}
	repo := new(MockRepository)
	repo.On("GetByID", ctx, id).Return(&Donation{ID: id, DonorID: owner, Status: workflows.StatusMatched}, nil)
	repo.On("GetMatchSummary", ctx, id).Return(summary, nil)

	details, err := NewService(repo, notifications.NopNotifier{}, zap.NewNop()).DetailsForDonor(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, summary, details.Match)
	assert.Equal(t, id, details.ID)
}
