package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDonationApproved   EventType = "donation.approved"
	EventDonationRejected   EventType = "donation.rejected"
	EventRequestApproved    EventType = "request.approved"
	EventRequestRejected    EventType = "request.rejected"
	EventInterestCreated    EventType = "interest.created"
	EventInterestApproved   EventType = "interest.approved"
	EventInterestRejected   EventType = "interest.rejected"
	EventMatchCreated       EventType = "match.created"
	EventExecutionRequested EventType = "match.execution_requested"
	EventMatchExecuted      EventType = "match.executed"
	EventMatchCompleted     EventType = "match.completed"
	EventCertificateIssued  EventType = "certificate.issued"
)

// Event is a lifecycle change addressed to one user
type Event struct {
	Type       EventType              `json:"type"`
	UserID     uuid.UUID              `json:"userId"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	EntityType string                 `json:"entityType"`
	EntityID   uuid.UUID              `json:"entityId"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Notifier delivers lifecycle events. Implementations must not fail the caller;
// delivery problems are handled internally.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier discards events
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
