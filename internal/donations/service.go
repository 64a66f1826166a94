package donations

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
	Create(ctx context.Context, donorID uuid.UUID, req CreateDonationRequest) (*Donation, error)
	ListForDonor(ctx context.Context, donorID uuid.UUID, status, search string) ([]Donation, error)
	GetForDonor(ctx context.Context, donorID, id uuid.UUID) (*Donation, error)
	DetailsForDonor(ctx context.Context, donorID, id uuid.UUID) (*DonationDetails, error)
	Delete(ctx context.Context, donorID, id uuid.UUID) error

	List(ctx context.Context, filter Filter) ([]Donation, error)
	Get(ctx context.Context, id uuid.UUID) (*Donation, error)
	Approve(ctx context.Context, id uuid.UUID) (*Donation, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*Donation, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type donationService struct {
	repo      Repository
	notifier  notifications.Notifier
	lifecycle *workflows.StateMachine[string]
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, notifier notifications.Notifier, logger *zap.Logger) Service {
	return &donationService{
		repo:      repo,
		notifier:  notifier,
		lifecycle: workflows.ListingLifecycle(),
		logger:    logger,
		now:       time.Now,
	}
}

func (req *CreateDonationRequest) validate() error {
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)

	switch {
	case req.ItemName == "":
		return fmt.Errorf("itemName is required: %w", apperr.ErrInvalidInput)
	case req.Quantity <= 0:
		return fmt.Errorf("quantity must be positive: %w", apperr.ErrInvalidInput)
	case req.Category == "":
		return fmt.Errorf("category is required: %w", apperr.ErrInvalidInput)
	case !req.Condition.Valid():
		return fmt.Errorf("condition must be one of new, like_new, good, fair: %w", apperr.ErrInvalidInput)
	}
	return nil
}

func (s *donationService) Create(ctx context.Context, donorID uuid.UUID, req CreateDonationRequest) (*Donation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	d := &Donation{
		ID:          uuid.New(),
		DonorID:     donorID,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Condition:   req.Condition,
		Description: req.Description,
		Status:      workflows.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	metrics.ListingsCreatedTotal.WithLabelValues("donation").Inc()

	return d, nil
}

func (s *donationService) ListForDonor(ctx context.Context, donorID uuid.UUID, status, search string) ([]Donation, error) {
	return s.repo.List(ctx, Filter{DonorID: &donorID, Status: status, Search: strings.TrimSpace(search)})
}

func (s *donationService) GetForDonor(ctx context.Context, donorID, id uuid.UUID) (*Donation, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// other donors' listings are indistinguishable from missing ones
	if d.DonorID != donorID {
		return nil, fmt.Errorf("donation %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func (s *donationService) DetailsForDonor(ctx context.Context, donorID, id uuid.UUID) (*DonationDetails, error) {
	d, err := s.GetForDonor(ctx, donorID, id)
	if err != nil {
		return nil, err
	}
	match, err := s.repo.GetMatchSummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load match summary: %w", err)
	}
	return &DonationDetails{Donation: *d, Match: match}, nil
}

func (s *donationService) Delete(ctx context.Context, donorID, id uuid.UUID) error {
	d, err := s.GetForDonor(ctx, donorID, id)
	if err != nil {
		return err
	}

	deletable := []string{workflows.StatusPending, workflows.StatusRejected}
	if d.Status != workflows.StatusPending && d.Status != workflows.StatusRejected {
		return fmt.Errorf("cannot delete a %s donation: %w", d.Status, apperr.ErrConflict)
	}

	ok, err := s.repo.DeleteInStatus(ctx, id, deletable)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if !ok {
		return fmt.Errorf("donation changed status, reload and retry: %w", apperr.ErrConflict)
	}
	return nil
}

func (s *donationService) List(ctx context.Context, filter Filter) ([]Donation, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *donationService) Get(ctx context.Context, id uuid.UUID) (*Donation, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("donation %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func (s *donationService) Approve(ctx context.Context, id uuid.UUID) (*Donation, error) {
	d, err := s.transition(ctx, id, workflows.StatusApproved, "")
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventDonationApproved,
		UserID:     d.DonorID,
		Title:      "Donation approved",
		Message:    fmt.Sprintf("Your donation of %d x %s is now visible for matching.", d.Quantity, d.ItemName),
		EntityType: "donation",
		EntityID:   d.ID,
		OccurredAt: d.UpdatedAt,
	})
	return d, nil
}

func (s *donationService) Reject(ctx context.Context, id uuid.UUID, reason string) (*Donation, error) {
	d, err := s.transition(ctx, id, workflows.StatusRejected, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Your donation of %s was not accepted.", d.ItemName)
	if d.RejectionReason != "" {
		msg += " Reason: " + d.RejectionReason
	}
	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventDonationRejected,
		UserID:     d.DonorID,
		Title:      "Donation rejected",
		Message:    msg,
		EntityType: "donation",
		EntityID:   d.ID,
		OccurredAt: d.UpdatedAt,
	})
	return d, nil
}

// transition applies an admin decision. The admin may only act on a pending
// listing, or reject an approved one that has not been matched yet.
func (s *donationService) transition(ctx context.Context, id uuid.UUID, to, reason string) (*Donation, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.Transition(d.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, id, d.Status, to, reason, now)
	if err != nil {
		return nil, fmt.Errorf("update donation status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation changed status, reload and retry: %w", apperr.ErrConflict)
	}

	s.logger.Info("Donation status changed",
		zap.String("donation_id", id.String()),
		zap.String("from", d.Status),
		zap.String("to", to))
	metrics.StatusTransitionsTotal.WithLabelValues("donation", to).Inc()

	d.Status = to
	d.RejectionReason = reason
	d.UpdatedAt = now
	return d, nil
}

func (s *donationService) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}
