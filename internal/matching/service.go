package matching

import (
	"context"
	"errors"
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

// CertificateIssuer produces the donor's certificate once a match completes
type CertificateIssuer interface {
	IssueForMatch(ctx context.Context, m *Match) error
}

type Service interface {
	CreateFromInterest(ctx context.Context, interestID uuid.UUID) (*Match, error)
	CreateManual(ctx context.Context, req ManualMatchRequest) (*Match, error)

	ListForDonor(ctx context.Context, donorID uuid.UUID, status string) ([]Match, error)
	ListForReceiver(ctx context.Context, receiverID uuid.UUID, status string) ([]Match, error)
	GetForParticipant(ctx context.Context, userID, id uuid.UUID) (*Match, error)
	RequestExecution(ctx context.Context, userID, id uuid.UUID) (*Match, error)

	List(ctx context.Context, filter Filter) ([]Match, error)
	Get(ctx context.Context, id uuid.UUID) (*Match, error)
	Execute(ctx context.Context, id uuid.UUID) (*Match, error)
	Complete(ctx context.Context, id uuid.UUID) (*Match, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type matchService struct {
	repo         Repository
	certificates CertificateIssuer
	notifier     notifications.Notifier
	listings     *workflows.StateMachine[string]
	interests    *workflows.StateMachine[string]
	matches      *workflows.StateMachine[string]
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(repo Repository, certificates CertificateIssuer, notifier notifications.Notifier, logger *zap.Logger) Service {
	return &matchService{
		repo:         repo,
		certificates: certificates,
		notifier:     notifier,
		listings:     workflows.ListingLifecycle(),
		interests:    workflows.InterestLifecycle(),
		matches:      workflows.MatchLifecycle(),
		logger:       logger,
		now:          time.Now,
	}
}

func notApproved(entity, status string) error {
	return fmt.Errorf("%s is %s, expected approved: %w", entity, status, apperr.ErrConflict)
}

func (s *matchService) CreateFromInterest(ctx context.Context, interestID uuid.UUID) (*Match, error) {
	var match *Match
	var closed []uuid.UUID
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		interest, err := tx.LockInterest(ctx, interestID)
		if err != nil {
			return err
		}
		if interest.Status != workflows.StatusApproved {
			return notApproved("interest", interest.Status)
		}

		request, err := tx.LockListing(ctx, TableRequests, interest.RequestID)
		if err != nil {
			return err
		}
		if request.Status != workflows.StatusApproved {
			return notApproved("request", request.Status)
		}

		now := s.now()
		match = &Match{
			ID:         uuid.New(),
			MatchType:  MatchTypeInterest,
			InterestID: &interest.ID,
			RequestID:  request.ID,
			DonorID:    interest.DonorID,
			ReceiverID: request.OwnerID,
			ItemName:   request.ItemName,
			Quantity:   interest.Quantity,
			Status:     workflows.StatusApproved,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertMatch(ctx, match); err != nil {
			return err
		}
		if err := tx.SetListingStatus(ctx, TableRequests, request.ID, workflows.StatusApproved, workflows.StatusMatched, now); err != nil {
			return err
		}
		closed, err = tx.CloseOpenInterests(ctx, request.ID, &interest.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	match = s.reload(ctx, match)
	s.matchCreated(ctx, match)
	s.interestsClosed(ctx, match, closed)
	return match, nil
}

func (s *matchService) CreateManual(ctx context.Context, req ManualMatchRequest) (*Match, error) {
	if strings.TrimSpace(req.DonationID) == "" || strings.TrimSpace(req.RequestID) == "" {
		return nil, fmt.Errorf("donationId and requestId are both required: %w", apperr.ErrInvalidInput)
	}
	donationID, err := uuid.Parse(strings.TrimSpace(req.DonationID))
	if err != nil {
		return nil, fmt.Errorf("donationId is not a valid id: %w", apperr.ErrInvalidInput)
	}
	requestID, err := uuid.Parse(strings.TrimSpace(req.RequestID))
	if err != nil {
		return nil, fmt.Errorf("requestId is not a valid id: %w", apperr.ErrInvalidInput)
	}

	var match *Match
	var closed []uuid.UUID
	err = s.repo.InTx(ctx, func(tx TxRepository) error {
		// donations before requests, always, so concurrent matches lock in the same order
		donation, err := tx.LockListing(ctx, TableDonations, donationID)
		if err != nil {
			return err
		}
		request, err := tx.LockListing(ctx, TableRequests, requestID)
		if err != nil {
			return err
		}
		if donation.Status != workflows.StatusApproved {
			return notApproved("donation", donation.Status)
		}
		if request.Status != workflows.StatusApproved {
			return notApproved("request", request.Status)
		}

		now := s.now()
		match = &Match{
			ID:         uuid.New(),
			MatchType:  MatchTypeManual,
			DonationID: &donation.ID,
			RequestID:  request.ID,
			DonorID:    donation.OwnerID,
			ReceiverID: request.OwnerID,
			ItemName:   donation.ItemName,
			Quantity:   donation.Quantity,
			Status:     workflows.StatusApproved,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertMatch(ctx, match); err != nil {
			return err
		}
		if err := tx.SetListingStatus(ctx, TableDonations, donation.ID, workflows.StatusApproved, workflows.StatusMatched, now); err != nil {
			return err
		}
		if err := tx.SetListingStatus(ctx, TableRequests, request.ID, workflows.StatusApproved, workflows.StatusMatched, now); err != nil {
			return err
		}
		closed, err = tx.CloseOpenInterests(ctx, request.ID, nil, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	match = s.reload(ctx, match)
	s.matchCreated(ctx, match)
	s.interestsClosed(ctx, match, closed)
	return match, nil
}

// interestsClosed tells donors whose offers lapsed when the request was matched
func (s *matchService) interestsClosed(ctx context.Context, m *Match, donors []uuid.UUID) {
	if len(donors) == 0 {
		return
	}
	s.logger.Info("Closed open interests on matched request",
		zap.String("request_id", m.RequestID.String()),
		zap.Int("count", len(donors)))
	metrics.StatusTransitionsTotal.WithLabelValues("interest", workflows.StatusRejected).Add(float64(len(donors)))

	for _, donorID := range donors {
		s.notifier.Notify(ctx, notifications.Event{
			Type:       notifications.EventInterestRejected,
			UserID:     donorID,
			Title:      "Request fulfilled elsewhere",
			Message:    fmt.Sprintf("The request for %s was matched with another donor.", m.ItemName),
			EntityType: "request",
			EntityID:   m.RequestID,
			OccurredAt: m.CreatedAt,
		})
	}
}

func (s *matchService) matchCreated(ctx context.Context, m *Match) {
	s.logger.Info("Match created",
		zap.String("match_id", m.ID.String()),
		zap.String("type", string(m.MatchType)),
		zap.String("request_id", m.RequestID.String()))
	metrics.MatchesCreatedTotal.WithLabelValues(string(m.MatchType)).Inc()

	for _, userID := range []uuid.UUID{m.DonorID, m.ReceiverID} {
		s.notifier.Notify(ctx, notifications.Event{
			Type:       notifications.EventMatchCreated,
			UserID:     userID,
			Title:      "New match",
			Message:    fmt.Sprintf("%d x %s has been matched.", m.Quantity, m.ItemName),
			EntityType: "match",
			EntityID:   m.ID,
			OccurredAt: m.CreatedAt,
		})
	}
}

func (s *matchService) ListForDonor(ctx context.Context, donorID uuid.UUID, status string) ([]Match, error) {
	return s.repo.List(ctx, Filter{DonorID: &donorID, Status: status})
}

func (s *matchService) ListForReceiver(ctx context.Context, receiverID uuid.UUID, status string) ([]Match, error) {
	return s.repo.List(ctx, Filter{ReceiverID: &receiverID, Status: status})
}

func (s *matchService) GetForParticipant(ctx context.Context, userID, id uuid.UUID) (*Match, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.DonorID != userID && m.ReceiverID != userID {
		return nil, fmt.Errorf("match %s: %w", id, apperr.ErrNotFound)
	}
	return m, nil
}

func (s *matchService) RequestExecution(ctx context.Context, userID, id uuid.UUID) (*Match, error) {
	var match *Match
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		m, err := tx.LockMatch(ctx, id)
		if err != nil {
			return err
		}
		if m.DonorID != userID && m.ReceiverID != userID {
			return fmt.Errorf("match %s: %w", id, apperr.ErrNotFound)
		}
		if m.Status != workflows.StatusApproved {
			return fmt.Errorf("execution can only be requested for approved matches: %w", apperr.ErrConflict)
		}
		if m.ExecutionRequested {
			return fmt.Errorf("execution was already requested: %w", apperr.ErrConflict)
		}

		now := s.now()
		m.ExecutionRequested = true
		m.ExecutionRequestedBy = &userID
		m.ExecutionRequestedAt = &now
		m.UpdatedAt = now
		if err := tx.UpdateMatch(ctx, m, workflows.StatusApproved); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	match = s.reload(ctx, match)
	counterpart := match.ReceiverID
	if userID == match.ReceiverID {
		counterpart = match.DonorID
	}
	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventExecutionRequested,
		UserID:     counterpart,
		Title:      "Handover requested",
		Message:    fmt.Sprintf("The handover of %s has been requested and awaits an administrator.", match.ItemName),
		EntityType: "match",
		EntityID:   match.ID,
		OccurredAt: match.UpdatedAt,
	})
	return match, nil
}

func (s *matchService) List(ctx context.Context, filter Filter) ([]Match, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *matchService) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("match %s: %w", id, apperr.ErrNotFound)
	}
	return m, nil
}

// Execute records the physical handover. Listings follow the match from
// matched to executed.
func (s *matchService) Execute(ctx context.Context, id uuid.UUID) (*Match, error) {
	m, err := s.advance(ctx, id, workflows.StatusExecuted, func(tx TxRepository, m *Match, now time.Time) error {
		m.ExecutedAt = &now
		if m.DonationID != nil {
			if err := s.moveListing(ctx, tx, TableDonations, *m.DonationID, workflows.StatusExecuted, now); err != nil {
				return err
			}
		}
		return s.moveListing(ctx, tx, TableRequests, m.RequestID, workflows.StatusExecuted, now)
	})
	if err != nil {
		return nil, err
	}

	s.notifyParticipants(ctx, m, notifications.EventMatchExecuted, "Donation handed over",
		fmt.Sprintf("%d x %s has been handed over.", m.Quantity, m.ItemName))
	return m, nil
}

// Complete closes the match and issues the donor certificate. A failed
// issuance is logged and left for the backfill job.
func (s *matchService) Complete(ctx context.Context, id uuid.UUID) (*Match, error) {
	m, err := s.advance(ctx, id, workflows.StatusCompleted, func(tx TxRepository, m *Match, now time.Time) error {
		m.CompletedAt = &now
		if m.DonationID != nil {
			if err := s.moveListing(ctx, tx, TableDonations, *m.DonationID, workflows.StatusCompleted, now); err != nil {
				return err
			}
		}
		if m.InterestID != nil {
			if err := s.interests.Transition(workflows.StatusApproved, workflows.StatusCompleted); err != nil {
				return err
			}
			if err := tx.SetInterestStatus(ctx, *m.InterestID, workflows.StatusApproved, workflows.StatusCompleted, now); err != nil {
				return err
			}
		}
		return s.moveListing(ctx, tx, TableRequests, m.RequestID, workflows.StatusCompleted, now)
	})
	if err != nil {
		return nil, err
	}

	s.notifyParticipants(ctx, m, notifications.EventMatchCompleted, "Donation completed",
		fmt.Sprintf("The donation of %d x %s is complete. Thank you!", m.Quantity, m.ItemName))

	if err := s.certificates.IssueForMatch(ctx, m); err != nil {
		s.logger.Error("Failed to issue certificate",
			zap.String("match_id", m.ID.String()),
			zap.Error(err))
	}
	return m, nil
}

func (s *matchService) advance(ctx context.Context, id uuid.UUID, to string, apply func(tx TxRepository, m *Match, now time.Time) error) (*Match, error) {
	var match *Match
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		m, err := tx.LockMatch(ctx, id)
		if err != nil {
			return err
		}
		from := m.Status
		if err := s.matches.Transition(from, to); err != nil {
			return err
		}

		now := s.now()
		m.Status = to
		m.UpdatedAt = now
		if err := apply(tx, m, now); err != nil {
			return err
		}
		if err := tx.UpdateMatch(ctx, m, from); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Match status changed",
		zap.String("match_id", id.String()),
		zap.String("to", to))
	metrics.StatusTransitionsTotal.WithLabelValues("match", to).Inc()
	return s.reload(ctx, match), nil
}

// reload fetches the match with participant names joined in, falling back to
// the locked row when the read fails
func (s *matchService) reload(ctx context.Context, m *Match) *Match {
	full, err := s.repo.GetByID(ctx, m.ID)
	if err != nil || full == nil {
		return m
	}
	return full
}

// moveListing advances a donation or request along with its match. The
// listing's current status is the one the lifecycle says precedes to.
func (s *matchService) moveListing(ctx context.Context, tx TxRepository, table Table, id uuid.UUID, to string, now time.Time) error {
	var from string
	switch to {
	case workflows.StatusExecuted:
		from = workflows.StatusMatched
	case workflows.StatusCompleted:
		from = workflows.StatusExecuted
	default:
		return errors.New("unsupported listing target status " + to)
	}
	if err := s.listings.Transition(from, to); err != nil {
		return err
	}
	return tx.SetListingStatus(ctx, table, id, from, to, now)
}

func (s *matchService) notifyParticipants(ctx context.Context, m *Match, eventType notifications.EventType, title, message string) {
	for _, userID := range []uuid.UUID{m.DonorID, m.ReceiverID} {
		s.notifier.Notify(ctx, notifications.Event{
			Type:       eventType,
			UserID:     userID,
			Title:      title,
			Message:    message,
			EntityType: "match",
			EntityID:   m.ID,
			OccurredAt: m.UpdatedAt,
		})
	}
}

func (s *matchService) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}
