package interests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/internal/requests"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/workflows"
)

// RequestReader loads the request an interest refers to
type RequestReader interface {
	Get(ctx context.Context, id uuid.UUID) (*requests.Request, error)
}

type Service interface {
	Create(ctx context.Context, donorID, requestID uuid.UUID, req CreateInterestRequest) (*Interest, error)
	ListForDonor(ctx context.Context, donorID uuid.UUID, status string) ([]Interest, error)
	Withdraw(ctx context.Context, donorID, id uuid.UUID) error

	List(ctx context.Context, filter Filter) ([]Interest, error)
	Get(ctx context.Context, id uuid.UUID) (*Interest, error)
	Approve(ctx context.Context, id uuid.UUID) (*Interest, error)
	Reject(ctx context.Context, id uuid.UUID) (*Interest, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type interestService struct {
	repo      Repository
	requests  RequestReader
	notifier  notifications.Notifier
	lifecycle *workflows.StateMachine[string]
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, requests RequestReader, notifier notifications.Notifier, logger *zap.Logger) Service {
	return &interestService{
		repo:      repo,
		requests:  requests,
		notifier:  notifier,
		lifecycle: workflows.InterestLifecycle(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *interestService) Create(ctx context.Context, donorID, requestID uuid.UUID, req CreateInterestRequest) (*Interest, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", apperr.ErrInvalidInput)
	}

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != workflows.StatusApproved {
		return nil, fmt.Errorf("request is %s and no longer accepts interest: %w", request.Status, apperr.ErrConflict)
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = request.Quantity
	}

	now := s.now()
	interest := &Interest{
		ID:        uuid.New(),
		RequestID: requestID,
		DonorID:   donorID,
		Quantity:  quantity,
		Message:   strings.TrimSpace(req.Message),
		Status:    workflows.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,

		ItemName:        request.ItemName,
		Category:        request.Category,
		RequestStatus:   request.Status,
		ReceiverID:      request.ReceiverID,
		ReceiverName:    request.ReceiverName,
		RequestQuantity: request.Quantity,
	}

	if err := s.repo.Create(ctx, interest); err != nil {
		return nil, err
	}

	s.logger.Info("Interest created",
		zap.String("interest_id", interest.ID.String()),
		zap.String("request_id", requestID.String()))

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventInterestCreated,
		UserID:     request.ReceiverID,
		Title:      "A donor is interested",
		Message:    fmt.Sprintf("A donor offered %d x %s for your request.", quantity, request.ItemName),
		EntityType: "request",
		EntityID:   request.ID,
		OccurredAt: now,
	})

	return interest, nil
}

func (s *interestService) ListForDonor(ctx context.Context, donorID uuid.UUID, status string) ([]Interest, error) {
	return s.repo.List(ctx, Filter{DonorID: &donorID, Status: status})
}

func (s *interestService) Withdraw(ctx context.Context, donorID, id uuid.UUID) error {
	interest, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if interest.DonorID != donorID {
		return fmt.Errorf("interest %s: %w", id, apperr.ErrNotFound)
	}
	if interest.Status != workflows.StatusPending {
		return fmt.Errorf("only pending interests can be withdrawn: %w", apperr.ErrConflict)
	}

	ok, err := s.repo.DeleteInStatus(ctx, id, workflows.StatusPending)
	if err != nil {
		return fmt.Errorf("delete interest: %w", err)
	}
	if !ok {
		return fmt.Errorf("interest changed status, reload and retry: %w", apperr.ErrConflict)
	}
	return nil
}

func (s *interestService) List(ctx context.Context, filter Filter) ([]Interest, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *interestService) Get(ctx context.Context, id uuid.UUID) (*Interest, error) {
	interest, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if interest == nil {
		return nil, fmt.Errorf("interest %s: %w", id, apperr.ErrNotFound)
	}
	return interest, nil
}

func (s *interestService) Approve(ctx context.Context, id uuid.UUID) (*Interest, error) {
	interest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if interest.RequestStatus != workflows.StatusApproved {
		return nil, fmt.Errorf("request is %s: %w", interest.RequestStatus, apperr.ErrConflict)
	}

	if err := s.transition(ctx, interest, workflows.StatusApproved); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventInterestApproved,
		UserID:     interest.DonorID,
		Title:      "Interest approved",
		Message:    fmt.Sprintf("Your offer for %s was approved and is awaiting a match.", interest.ItemName),
		EntityType: "interest",
		EntityID:   interest.ID,
		OccurredAt: interest.UpdatedAt,
	})
	return interest, nil
}

// Reject turns down a pending or approved interest. An approved interest whose
// request has moved past approved is carried by a match and stays as it is.
func (s *interestService) Reject(ctx context.Context, id uuid.UUID) (*Interest, error) {
	interest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if interest.Status == workflows.StatusApproved && interest.RequestStatus != workflows.StatusApproved {
		return nil, fmt.Errorf("interest is part of a %s request: %w", interest.RequestStatus, apperr.ErrConflict)
	}

	if err := s.transition(ctx, interest, workflows.StatusRejected); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventInterestRejected,
		UserID:     interest.DonorID,
		Title:      "Interest not accepted",
		Message:    fmt.Sprintf("Your offer for %s was not accepted.", interest.ItemName),
		EntityType: "interest",
		EntityID:   interest.ID,
		OccurredAt: interest.UpdatedAt,
	})
	return interest, nil
}

func (s *interestService) transition(ctx context.Context, interest *Interest, to string) error {
	if err := s.lifecycle.Transition(interest.Status, to); err != nil {
		return err
	}

	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, interest.ID, interest.Status, to, now)
	if err != nil {
		return fmt.Errorf("update interest status: %w", err)
	}
	if !ok {
		return fmt.Errorf("interest changed status, reload and retry: %w", apperr.ErrConflict)
	}

	s.logger.Info("Interest status changed",
		zap.String("interest_id", interest.ID.String()),
		zap.String("from", interest.Status),
		zap.String("to", to))
	metrics.StatusTransitionsTotal.WithLabelValues("interest", to).Inc()

	interest.Status = to
	interest.UpdatedAt = now
	return nil
}

func (s *interestService) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}
