package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/workflows"
)

type Service interface {
	Create(ctx context.Context, receiverID uuid.UUID, req CreateRequestRequest) (*Request, error)
	ListForReceiver(ctx context.Context, receiverID uuid.UUID, status, search string) ([]Request, error)
	GetForReceiver(ctx context.Context, receiverID, id uuid.UUID) (*Request, error)
	DetailsForReceiver(ctx context.Context, receiverID, id uuid.UUID) (*RequestDetails, error)
	Delete(ctx context.Context, receiverID, id uuid.UUID) error

	// ListOpen returns approved requests donors can express interest in
	ListOpen(ctx context.Context, category, search string) ([]Request, error)

	List(ctx context.Context, filter Filter) ([]Request, error)
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	Approve(ctx context.Context, id uuid.UUID) (*Request, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*Request, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type requestService struct {
	repo      Repository
	notifier  notifications.Notifier
	lifecycle *workflows.StateMachine[string]
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, notifier notifications.Notifier, logger *zap.Logger) Service {
	return &requestService{
		repo:      repo,
		notifier:  notifier,
		lifecycle: workflows.ListingLifecycle(),
		logger:    logger,
		now:       time.Now,
	}
}

func (req *CreateRequestRequest) validate() error {
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
	if req.Urgency == "" {
		req.Urgency = UrgencyMedium
	}

	switch {
	case req.ItemName == "":
		return fmt.Errorf("itemName is required: %w", apperr.ErrInvalidInput)
	case req.Quantity <= 0:
		return fmt.Errorf("quantity must be positive: %w", apperr.ErrInvalidInput)
	case req.Category == "":
		return fmt.Errorf("category is required: %w", apperr.ErrInvalidInput)
	case !req.Urgency.Valid():
		return fmt.Errorf("urgency must be low, medium or high: %w", apperr.ErrInvalidInput)
	}
	return nil
}

func (s *requestService) Create(ctx context.Context, receiverID uuid.UUID, req CreateRequestRequest) (*Request, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	r := &Request{
		ID:          uuid.New(),
		ReceiverID:  receiverID,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Description: req.Description,
		Urgency:     req.Urgency,
		Status:      workflows.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	metrics.ListingsCreatedTotal.WithLabelValues("request").Inc()

	return r, nil
}

func (s *requestService) ListForReceiver(ctx context.Context, receiverID uuid.UUID, status, search string) ([]Request, error) {
	return s.repo.List(ctx, Filter{ReceiverID: &receiverID, Status: status, Search: strings.TrimSpace(search)})
}

func (s *requestService) GetForReceiver(ctx context.Context, receiverID, id uuid.UUID) (*Request, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ReceiverID != receiverID {
		return nil, fmt.Errorf("request %s: %w", id, apperr.ErrNotFound)
	}
	return r, nil
}

func (s *requestService) DetailsForReceiver(ctx context.Context, receiverID, id uuid.UUID) (*RequestDetails, error) {
	r, err := s.GetForReceiver(ctx, receiverID, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountInterests(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count interests: %w", err)
	}
	match, err := s.repo.GetMatchSummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load match summary: %w", err)
	}

	return &RequestDetails{Request: *r, InterestCount: count, Match: match}, nil
}

func (s *requestService) Delete(ctx context.Context, receiverID, id uuid.UUID) error {
	r, err := s.GetForReceiver(ctx, receiverID, id)
	if err != nil {
		return err
	}
	if r.Status != workflows.StatusPending && r.Status != workflows.StatusRejected {
		return fmt.Errorf("cannot delete a %s request: %w", r.Status, apperr.ErrConflict)
	}

	ok, err := s.repo.DeleteInStatus(ctx, id, []string{workflows.StatusPending, workflows.StatusRejected})
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if !ok {
		return fmt.Errorf("request changed status, reload and retry: %w", apperr.ErrConflict)
	}
	return nil
}

func (s *requestService) ListOpen(ctx context.Context, category, search string) ([]Request, error) {
	return s.repo.List(ctx, Filter{
		Status:   workflows.StatusApproved,
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
	})
}

func (s *requestService) List(ctx context.Context, filter Filter) ([]Request, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("request %s: %w", id, apperr.ErrNotFound)
	}
	return r, nil
}

func (s *requestService) Approve(ctx context.Context, id uuid.UUID) (*Request, error) {
	r, err := s.transition(ctx, id, workflows.StatusApproved, "")
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventRequestApproved,
		UserID:     r.ReceiverID,
		Title:      "Request approved",
		Message:    fmt.Sprintf("Your request for %d x %s is now open to donors.", r.Quantity, r.ItemName),
		EntityType: "request",
		EntityID:   r.ID,
		OccurredAt: r.UpdatedAt,
	})
	return r, nil
}

func (s *requestService) Reject(ctx context.Context, id uuid.UUID, reason string) (*Request, error) {
	r, err := s.transition(ctx, id, workflows.StatusRejected, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Your request for %s was not accepted.", r.ItemName)
	if r.RejectionReason != "" {
		msg += " Reason: " + r.RejectionReason
	}
	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventRequestRejected,
		UserID:     r.ReceiverID,
		Title:      "Request rejected",
		Message:    msg,
		EntityType: "request",
		EntityID:   r.ID,
		OccurredAt: r.UpdatedAt,
	})
	return r, nil
}

func (s *requestService) transition(ctx context.Context, id uuid.UUID, to, reason string) (*Request, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.Transition(r.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, id, r.Status, to, reason, now)
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("request changed status, reload and retry: %w", apperr.ErrConflict)
	}

	s.logger.Info("Request status changed",
		zap.String("request_id", id.String()),
		zap.String("from", r.Status),
		zap.String("to", to))
	metrics.StatusTransitionsTotal.WithLabelValues("request", to).Inc()

	r.Status = to
	r.RejectionReason = reason
	r.UpdatedAt = now
	return r, nil
}

func (s *requestService) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}
