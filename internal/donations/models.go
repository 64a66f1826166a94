package donations

import (
	"time"

	"github.com/google/uuid"
)

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Donation is an item a donor offers to give away
type Donation struct {
	ID              uuid.UUID `json:"id" db:"id"`
	DonorID         uuid.UUID `json:"donorId" db:"donor_id"`
	ItemName        string    `json:"itemName" db:"item_name"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Category        string    `json:"category" db:"category"`
	Condition       Condition `json:"condition" db:"condition"`
	Description     string    `json:"description" db:"description"`
	Status          string    `json:"status" db:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`

	// joined from users
	DonorName  string `json:"donorName,omitempty" db:"donor_name"`
	DonorEmail string `json:"donorEmail,omitempty" db:"donor_email"`
}

// MatchSummary is the match a donation currently belongs to
type MatchSummary struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	Status             string     `json:"status" db:"status"`
	RequestID          uuid.UUID  `json:"requestId" db:"request_id"`
	ReceiverName       string     `json:"receiverName" db:"receiver_name"`
	ExecutionRequested bool       `json:"execution_requested" db:"execution_requested"`
	ExecutedAt         *time.Time `json:"executedAt,omitempty" db:"executed_at"`
	CompletedAt        *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
}

type DonationDetails struct {
	Donation
	Match *MatchSummary `json:"match"`
}

type CreateDonationRequest struct {
	ItemName    string    `json:"itemName" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required"`
	Category    string    `json:"category" binding:"required"`
	Condition   Condition `json:"condition" binding:"required"`
	Description string    `json:"description"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Filter narrows donation lists. Search matches item, category, donor name or email.
type Filter struct {
	DonorID *uuid.UUID
	Status  string
	Search  string
}
