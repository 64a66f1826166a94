package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications/websocket"
	"givehub/portal-backend/pkg/apperr"
)

type memoryStore struct {
	mu    sync.Mutex
	items []*Notification
	err   error
}

func (m *memoryStore) Save(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, n)
	return nil
}

func (m *memoryStore) ListForUser(_ context.Context, userID uuid.UUID, filter ListFilter) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []Notification{}
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (filter.UnreadOnly && n.ReadAt != nil) {
			continue
		}
		list = append(list, *n)
	}
	return list, nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.ReadAt = &at
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *memoryStore) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && item.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type recordingPusher struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]websocket.Message
}

func (p *recordingPusher) SendToUser(userID uuid.UUID, message websocket.Message) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[uuid.UUID][]websocket.Message)
	}
	p.messages[userID] = append(p.messages[userID], message)
	return 1
}

type recordingProducer struct {
	mu     sync.Mutex
	keys   []string
	values [][]byte
	err    error
	closed bool
}

func (p *recordingProducer) SendMessage(_ context.Context, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	return nil
}

type sentEmail struct {
	to, subject, body string
}

type recordingEmail struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (e *recordingEmail) Send(_ context.Context, to, subject, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentEmail{to, subject, body})
	return nil
}

type staticRecipients map[uuid.UUID]*Recipient

func (s staticRecipients) Recipient(_ context.Context, userID uuid.UUID) (*Recipient, error) {
	r, ok := s[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return r, nil
}

func TestNotifyFansOutToEveryChannel(t *testing.T) {
	store := &memoryStore{}
	pusher := &recordingPusher{}
	producer := &recordingProducer{}
	email := &recordingEmail{}
	donorID := uuid.New()
	recipients := staticRecipients{donorID: {Name: "Ana", Email: "ana@example.org"}}

	svc := NewService(store, zap.NewNop(), WithPusher(pusher), WithProducer(producer), WithEmail(email, recipients))

	certID := uuid.New()
	svc.Notify(context.Background(), Event{
		Type:       EventCertificateIssued,
		UserID:     donorID,
		Title:      "Your donation certificate is ready",
		Message:    "Certificate CERT-1 is available.",
		EntityType: "certificate",
		EntityID:   certID,
		Data:       map[string]interface{}{"certificateNumber": "CERT-1"},
	})
	require.NoError(t, svc.Close())

	require.Len(t, store.items, 1)
	stored := store.items[0]
	assert.Equal(t, string(EventCertificateIssued), stored.Type)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.JSONEq(t, `{"certificateNumber":"CERT-1"}`, string(stored.Data))

	require.Len(t, pusher.messages[donorID], 1)
	assert.Equal(t, WSMessageTypeNotification, pusher.messages[donorID][0].Type)

	require.Len(t, producer.values, 1)
	assert.Equal(t, certID.String(), producer.keys[0])
	var published Event
	require.NoError(t, json.Unmarshal(producer.values[0], &published))
	assert.Equal(t, EventCertificateIssued, published.Type)
	assert.True(t, producer.closed)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "ana@example.org", email.sent[0].to)
	assert.Contains(t, email.sent[0].body, "Hello Ana")
}

func TestNotifyEmailsOnlyCertificateEvents(t *testing.T) {
	email := &recordingEmail{}
	userID := uuid.New()
	svc := NewService(&memoryStore{}, zap.NewNop(),
		WithEmail(email, staticRecipients{userID: {Name: "Sam", Email: "sam@example.org"}}))

	svc.Notify(context.Background(), Event{Type: EventMatchCreated, UserID: userID})
	require.NoError(t, svc.Close())

	assert.Empty(t, email.sent)
}

func TestNotifyFailuresAreCountedNotReturned(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	producer := &recordingProducer{err: errors.New("broker down")}
	svc := NewService(store, zap.NewNop(), WithProducer(producer))

	inApp := testutil.ToFloat64(metrics.NotificationErrorsTotal.WithLabelValues(ChannelInApp))
	kafka := testutil.ToFloat64(metrics.NotificationErrorsTotal.WithLabelValues(ChannelKafka))

	svc.Notify(context.Background(), Event{Type: EventDonationApproved, UserID: uuid.New()})
	require.NoError(t, svc.Close())

	assert.Equal(t, inApp+1, testutil.ToFloat64(metrics.NotificationErrorsTotal.WithLabelValues(ChannelInApp)))
	assert.Equal(t, kafka+1, testutil.ToFloat64(metrics.NotificationErrorsTotal.WithLabelValues(ChannelKafka)))
}

func TestBackgroundDeliveryOutlivesCancelledRequest(t *testing.T) {
	producer := &recordingProducer{}
	svc := NewService(&memoryStore{}, zap.NewNop(), WithProducer(producer))

	ctx, cancel := context.WithCancel(context.Background())
	svc.Notify(ctx, Event{Type: EventMatchExecuted, UserID: uuid.New()})
	cancel()
	require.NoError(t, svc.Close())

	assert.Len(t, producer.values, 1)
}

func TestListClampsLimit(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, zap.NewNop())
	userID := uuid.New()

	svc.Notify(context.Background(), Event{Type: EventDonationApproved, UserID: userID, Title: "a"})
	svc.Notify(context.Background(), Event{Type: EventDonationRejected, UserID: uuid.New(), Title: "b"})

	list, err := svc.List(context.Background(), userID, ListFilter{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Title)

	require.NoError(t, svc.MarkRead(context.Background(), userID, list[0].ID))
	unread, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
