package requests

import (
	"time"

	"github.com/google/uuid"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// Request is an item a receiver needs
type Request struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ReceiverID      uuid.UUID `json:"receiverId" db:"receiver_id"`
	ItemName        string    `json:"itemName" db:"item_name"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Category        string    `json:"category" db:"category"`
	Description     string    `json:"description" db:"description"`
	Urgency         Urgency   `json:"urgency" db:"urgency"`
	Status          string    `json:"status" db:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`

	ReceiverName  string `json:"receiverName,omitempty" db:"receiver_name"`
	ReceiverEmail string `json:"receiverEmail,omitempty" db:"receiver_email"`
}

type MatchSummary struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	MatchType          string     `json:"matchType" db:"match_type"`
	Status             string     `json:"status" db:"status"`
	DonorName          string     `json:"donorName" db:"donor_name"`
	ExecutionRequested bool       `json:"execution_requested" db:"execution_requested"`
	ExecutedAt         *time.Time `json:"executedAt,omitempty" db:"executed_at"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
}

type RequestDetails struct {
	Request
	InterestCount int           `json:"interestCount"`
	Match         *MatchSummary `json:"match"`
}

type CreateRequestRequest struct {
	ItemName    string  `json:"itemName" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Urgency     Urgency `json:"urgency"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Filter narrows request lists. Search matches item, category, receiver name or email.
type Filter struct {
	ReceiverID *uuid.UUID
	Status     string
	Category   string
	Search     string
}
