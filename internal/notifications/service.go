package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications/websocket"
)

// Recipient is the contact information email delivery needs
type Recipient struct {
	Name  string
	Email string
}

// RecipientLookup resolves a user id to an email recipient
type RecipientLookup interface {
	Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error)
}

// Pusher delivers live messages to connected clients
type Pusher interface {
	SendToUser(userID uuid.UUID, message websocket.Message) int
}

// emailEvents are the event types that also go out by email
var emailEvents = map[EventType]bool{
	EventCertificateIssued: true,
}

// Service records lifecycle events and fans them out to every configured channel.
// Delivery failures are logged and counted, never returned.
type Service struct {
	store      Store
	pusher     Pusher
	producer   Producer
	email      EmailSender
	recipients RecipientLookup
	logger     *zap.Logger
	now        func() time.Time

	wg sync.WaitGroup
}

// Option enables an optional delivery channel
type Option func(*Service)

func WithPusher(p Pusher) Option {
	return func(s *Service) { s.pusher = p }
}

func WithProducer(p Producer) Option {
	return func(s *Service) { s.producer = p }
}

func WithEmail(sender EmailSender, recipients RecipientLookup) Option {
	return func(s *Service) {
		s.email = sender
		s.recipients = recipients
	}
}

func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify implements Notifier. The in-app record and websocket push happen inline;
// broker and email delivery run in the background.
func (s *Service) Notify(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	n := &Notification{
		ID:         uuid.New(),
		UserID:     event.UserID,
		Type:       string(event.Type),
		Title:      event.Title,
		Message:    event.Message,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		CreatedAt:  event.OccurredAt,
	}
	if len(event.Data) > 0 {
		if raw, err := json.Marshal(event.Data); err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}

	if err := s.store.Save(ctx, n); err != nil {
		s.failed(ChannelInApp, event, err)
	}

	if s.pusher != nil {
		s.pusher.SendToUser(event.UserID, websocket.Message{
			Type:      WSMessageTypeNotification,
			Data:      n,
			Timestamp: event.OccurredAt,
		})
	}

	// detached so delivery outlives the request that triggered it
	bg := context.WithoutCancel(ctx)

	if s.producer != nil {
		s.async(func() { s.publish(bg, event) })
	}
	if s.email != nil && emailEvents[event.Type] {
		s.async(func() { s.sendEmail(bg, event) })
	}
}

func (s *Service) async(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Service) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.failed(ChannelKafka, event, err)
		return
	}
	if err := s.producer.SendMessage(ctx, []byte(event.EntityID.String()), payload); err != nil {
		s.failed(ChannelKafka, event, err)
	}
}

func (s *Service) sendEmail(ctx context.Context, event Event) {
	recipient, err := s.recipients.Recipient(ctx, event.UserID)
	if err != nil {
		s.failed(ChannelEmail, event, err)
		return
	}
	if recipient == nil || recipient.Email == "" {
		return
	}

	body := "Hello " + recipient.Name + ",\n\n" + event.Message + "\n"
	if err := s.email.Send(ctx, recipient.Email, event.Title, body); err != nil {
		s.failed(ChannelEmail, event, err)
	}
}

func (s *Service) failed(channel string, event Event, err error) {
	metrics.NotificationErrorsTotal.WithLabelValues(channel).Inc()
	s.logger.Error("Failed to deliver notification",
		zap.String("channel", channel),
		zap.String("event", string(event.Type)),
		zap.String("user_id", event.UserID.String()),
		zap.Error(err))
}

// List returns the user's inbox, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Notification, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.store.ListForUser(ctx, userID, filter)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, id, s.now())
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// Close waits for in-flight background deliveries and closes the producer
func (s *Service) Close() error {
	s.wg.Wait()
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
