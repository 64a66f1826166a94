package matching

import (
	"context"
	"errors"
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

// MockRepository runs InTx callbacks against Tx
type MockRepository struct {
	mock.Mock
	Tx *MockTx
}

func (m *MockRepository) InTx(ctx context.Context, fn func(tx TxRepository) error) error {
	return fn(m.Tx)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Match), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]Match, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Match), args.Error(1)
}

func (m *MockRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) LockListing(ctx context.Context, table Table, id uuid.UUID) (*Listing, error) {
	args := m.Called(ctx, table, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockTx) LockInterest(ctx context.Context, id uuid.UUID) (*LockedInterest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LockedInterest), args.Error(1)
}

func (m *MockTx) LockMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Match), args.Error(1)
}

func (m *MockTx) InsertMatch(ctx context.Context, match *Match) error {
	return m.Called(ctx, match).Error(0)
}

func (m *MockTx) UpdateMatch(ctx context.Context, match *Match, fromStatus string) error {
	return m.Called(ctx, match, fromStatus).Error(0)
}

func (m *MockTx) SetListingStatus(ctx context.Context, table Table, id uuid.UUID, from, to string, at time.Time) error {
	return m.Called(ctx, table, id, from, to, at).Error(0)
}

func (m *MockTx) SetInterestStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error {
	return m.Called(ctx, id, from, to, at).Error(0)
}

func (m *MockTx) CloseOpenInterests(ctx context.Context, requestID uuid.UUID, keep *uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, requestID, keep, at)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notifications.Event) {
	r.events = append(r.events, e)
}

func (r *recordingNotifier) ofType(t notifications.EventType) []notifications.Event {
	var out []notifications.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssueForMatch(ctx context.Context, match *Match) error {
	return m.Called(ctx, match).Error(0)
}

func newTestRepo() *MockRepository {
	repo := &MockRepository{Tx: new(MockTx)}
	// reload after writes falls back to the locked row
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	return repo
}

func newTestService(repo *MockRepository, issuer CertificateIssuer) Service {
	if issuer == nil {
		issuer = new(MockIssuer)
	}
	return NewService(repo, issuer, notifications.NopNotifier{}, zap.NewNop())
}

func TestCreateManualRequiresBothIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	svc := newTestService(repo, nil)

	for _, req := range []ManualMatchRequest{
		{},
		{DonationID: uuid.NewString()},
		{RequestID: uuid.NewString()},
		{DonationID: "nope", RequestID: uuid.NewString()},
	} {
		_, err := svc.CreateManual(ctx, req)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	}
	repo.Tx.AssertNotCalled(t, "InsertMatch", mock.Anything, mock.Anything)
}

func TestCreateManual(t *testing.T) {
	ctx := context.Background()
	donationID, requestID := uuid.New(), uuid.New()
	donorID, receiverID := uuid.New(), uuid.New()

	t.Run("both approved", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockListing", ctx, TableDonations, donationID).
			Return(&Listing{ID: donationID, OwnerID: donorID, ItemName: "Desk", Quantity: 2, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("LockListing", ctx, TableRequests, requestID).
			Return(&Listing{ID: requestID, OwnerID: receiverID, ItemName: "Desks", Quantity: 3, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("InsertMatch", ctx, mock.AnythingOfType("*matching.Match")).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableDonations, donationID, workflows.StatusApproved, workflows.StatusMatched, mock.Anything).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusApproved, workflows.StatusMatched, mock.Anything).Return(nil)
		repo.Tx.On("CloseOpenInterests", ctx, requestID, (*uuid.UUID)(nil), mock.Anything).Return([]uuid.UUID{}, nil)

		m, err := newTestService(repo, nil).CreateManual(ctx, ManualMatchRequest{
			DonationID: donationID.String(), RequestID: requestID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, MatchTypeManual, m.MatchType)
		assert.Equal(t, &donationID, m.DonationID)
		assert.Nil(t, m.InterestID)
		assert.Equal(t, donorID, m.DonorID)
		assert.Equal(t, receiverID, m.ReceiverID)
		assert.Equal(t, workflows.StatusApproved, m.Status)
		assert.False(t, m.ExecutionRequested)
		repo.Tx.AssertExpectations(t)
	})

	t.Run("request not approved", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockListing", ctx, TableDonations, donationID).
			Return(&Listing{ID: donationID, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("LockListing", ctx, TableRequests, requestID).
			Return(&Listing{ID: requestID, Status: workflows.StatusPending}, nil)

		_, err := newTestService(repo, nil).CreateManual(ctx, ManualMatchRequest{
			DonationID: donationID.String(), RequestID: requestID.String(),
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
		repo.Tx.AssertNotCalled(t, "InsertMatch", mock.Anything, mock.Anything)
	})
}

func TestCreateFromInterest(t *testing.T) {
	ctx := context.Background()
	interestID, requestID := uuid.New(), uuid.New()
	donorID, receiverID := uuid.New(), uuid.New()

	t.Run("approved interest", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockInterest", ctx, interestID).
			Return(&LockedInterest{ID: interestID, RequestID: requestID, DonorID: donorID, Quantity: 4, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("LockListing", ctx, TableRequests, requestID).
			Return(&Listing{ID: requestID, OwnerID: receiverID, ItemName: "Chairs", Quantity: 6, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("InsertMatch", ctx, mock.AnythingOfType("*matching.Match")).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusApproved, workflows.StatusMatched, mock.Anything).Return(nil)
		repo.Tx.On("CloseOpenInterests", ctx, requestID, &interestID, mock.Anything).Return([]uuid.UUID{}, nil)

		m, err := newTestService(repo, nil).CreateFromInterest(ctx, interestID)
		require.NoError(t, err)
		assert.Equal(t, MatchTypeInterest, m.MatchType)
		assert.Equal(t, &interestID, m.InterestID)
		assert.Nil(t, m.DonationID)
		assert.Equal(t, 4, m.Quantity)
		assert.Equal(t, "Chairs", m.ItemName)
		repo.Tx.AssertExpectations(t)
	})

	t.Run("other offers on the request are closed", func(t *testing.T) {
		otherA, otherB := uuid.New(), uuid.New()
		repo := newTestRepo()
		notifier := &recordingNotifier{}
		repo.Tx.On("LockInterest", ctx, interestID).
			Return(&LockedInterest{ID: interestID, RequestID: requestID, DonorID: donorID, Quantity: 1, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("LockListing", ctx, TableRequests, requestID).
			Return(&Listing{ID: requestID, OwnerID: receiverID, ItemName: "Chairs", Quantity: 1, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("InsertMatch", ctx, mock.AnythingOfType("*matching.Match")).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusApproved, workflows.StatusMatched, mock.Anything).Return(nil)
		repo.Tx.On("CloseOpenInterests", ctx, requestID, &interestID, mock.Anything).Return([]uuid.UUID{otherA, otherB}, nil)

		_, err := NewService(repo, new(MockIssuer), notifier, zap.NewNop()).CreateFromInterest(ctx, interestID)
		require.NoError(t, err)

		closed := notifier.ofType(notifications.EventInterestRejected)
		require.Len(t, closed, 2)
		assert.ElementsMatch(t, []uuid.UUID{otherA, otherB}, []uuid.UUID{closed[0].UserID, closed[1].UserID})
		assert.Equal(t, requestID, closed[0].EntityID)
	})

	t.Run("closing offers fails the match", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockInterest", ctx, interestID).
			Return(&LockedInterest{ID: interestID, RequestID: requestID, DonorID: donorID, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("LockListing", ctx, TableRequests, requestID).
			Return(&Listing{ID: requestID, OwnerID: receiverID, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("InsertMatch", ctx, mock.AnythingOfType("*matching.Match")).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusApproved, workflows.StatusMatched, mock.Anything).Return(nil)
		repo.Tx.On("CloseOpenInterests", ctx, requestID, &interestID, mock.Anything).Return([]uuid.UUID{}, errors.New("deadlock"))

		_, err := newTestService(repo, nil).CreateFromInterest(ctx, interestID)
		assert.Error(t, err)
	})

	t.Run("pending interest", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockInterest", ctx, interestID).
			Return(&LockedInterest{ID: interestID, Status: workflows.StatusPending}, nil)

		_, err := newTestService(repo, nil).CreateFromInterest(ctx, interestID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestRequestExecution(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	donorID, receiverID := uuid.New(), uuid.New()

	newMatch := func(status string, requested bool) *Match {
		return &Match{ID: id, DonorID: donorID, ReceiverID: receiverID, Status: status, ExecutionRequested: requested}
	}

	t.Run("by receiver", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).Return(newMatch(workflows.StatusApproved, false), nil)
		repo.Tx.On("UpdateMatch", ctx, mock.AnythingOfType("*matching.Match"), workflows.StatusApproved).Return(nil)

		m, err := newTestService(repo, nil).RequestExecution(ctx, receiverID, id)
		require.NoError(t, err)
		assert.True(t, m.ExecutionRequested)
		assert.Equal(t, &receiverID, m.ExecutionRequestedBy)
		assert.NotNil(t, m.ExecutionRequestedAt)
	})

	t.Run("already requested", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).Return(newMatch(workflows.StatusApproved, true), nil)

		_, err := newTestService(repo, nil).RequestExecution(ctx, donorID, id)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("executed match", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).Return(newMatch(workflows.StatusExecuted, false), nil)

		_, err := newTestService(repo, nil).RequestExecution(ctx, donorID, id)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("outsider", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).Return(newMatch(workflows.StatusApproved, false), nil)

		_, err := newTestService(repo, nil).RequestExecution(ctx, uuid.New(), id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestExecuteAndComplete(t *testing.T) {
	ctx := context.Background()
	id, donationID, requestID := uuid.New(), uuid.New(), uuid.New()

	t.Run("execute moves listings", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).
			Return(&Match{ID: id, DonationID: &donationID, RequestID: requestID, Status: workflows.StatusApproved}, nil)
		repo.Tx.On("SetListingStatus", ctx, TableDonations, donationID, workflows.StatusMatched, workflows.StatusExecuted, mock.Anything).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusMatched, workflows.StatusExecuted, mock.Anything).Return(nil)
		repo.Tx.On("UpdateMatch", ctx, mock.AnythingOfType("*matching.Match"), workflows.StatusApproved).Return(nil)

		m, err := newTestService(repo, nil).Execute(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, workflows.StatusExecuted, m.Status)
		assert.NotNil(t, m.ExecutedAt)
		repo.Tx.AssertExpectations(t)
	})

	t.Run("complete before execute", func(t *testing.T) {
		repo := newTestRepo()
		repo.Tx.On("LockMatch", ctx, id).Return(&Match{ID: id, Status: workflows.StatusApproved}, nil)

		_, err := newTestService(repo, nil).Complete(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	})

	t.Run("complete with a moved interest rolls back", func(t *testing.T) {
		interestID := uuid.New()
		repo := newTestRepo()
		issuer := new(MockIssuer)
		repo.Tx.On("LockMatch", ctx, id).
			Return(&Match{ID: id, InterestID: &interestID, RequestID: requestID, Status: workflows.StatusExecuted}, nil)
		repo.Tx.On("SetInterestStatus", ctx, interestID, workflows.StatusApproved, workflows.StatusCompleted, mock.Anything).
			Return(apperr.ErrConflict)

		_, err := newTestService(repo, issuer).Complete(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		repo.Tx.AssertNotCalled(t, "UpdateMatch", mock.Anything, mock.Anything, mock.Anything)
		issuer.AssertNotCalled(t, "IssueForMatch", mock.Anything, mock.Anything)
	})

	t.Run("complete interest match issues certificate", func(t *testing.T) {
		interestID := uuid.New()
		repo := newTestRepo()
		issuer := new(MockIssuer)
		repo.Tx.On("LockMatch", ctx, id).
			Return(&Match{ID: id, InterestID: &interestID, RequestID: requestID, Status: workflows.StatusExecuted}, nil)
		repo.Tx.On("SetInterestStatus", ctx, interestID, workflows.StatusApproved, workflows.StatusCompleted, mock.Anything).Return(nil)
		repo.Tx.On("SetListingStatus", ctx, TableRequests, requestID, workflows.StatusExecuted, workflows.StatusCompleted, mock.Anything).Return(nil)
		repo.Tx.On("UpdateMatch", ctx, mock.AnythingOfType("*matching.Match"), workflows.StatusExecuted).Return(nil)
		issuer.On("IssueForMatch", ctx, mock.AnythingOfType("*matching.Match")).Return(errors.New("storage down"))

		// certificate failures do not undo the completion
		m, err := newTestService(repo, issuer).Complete(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, workflows.StatusCompleted, m.Status)
		assert.NotNil(t, m.CompletedAt)
		issuer.AssertExpectations(t)
	})
}
