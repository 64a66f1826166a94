package matching

import (
	"time"

	"github.com/google/uuid"
)

type MatchType string

const (
	MatchTypeManual   MatchType = "manual"
	MatchTypeInterest MatchType = "interest"
)

// Match pairs one request with either a donation or an approved interest
type Match struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	MatchType            MatchType  `json:"matchType" db:"match_type"`
	DonationID           *uuid.UUID `json:"donationId,omitempty" db:"donation_id"`
	InterestID           *uuid.UUID `json:"interestId,omitempty" db:"interest_id"`
	RequestID            uuid.UUID  `json:"requestId" db:"request_id"`
	DonorID              uuid.UUID  `json:"donorId" db:"donor_id"`
	ReceiverID           uuid.UUID  `json:"receiverId" db:"receiver_id"`
	ItemName             string     `json:"itemName" db:"item_name"`
	Quantity             int        `json:"quantity" db:"quantity"`
	Status               string     `json:"status" db:"status"`
	ExecutionRequested   bool       `json:"execution_requested" db:"execution_requested"`
	ExecutionRequestedBy *uuid.UUID `json:"executionRequestedBy,omitempty" db:"execution_requested_by"`
	ExecutionRequestedAt *time.Time `json:"executionRequestedAt,omitempty" db:"execution_requested_at"`
	ExecutedAt           *time.Time `json:"executedAt,omitempty" db:"executed_at"`
	CompletedAt          *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`

	DonorName     string `json:"donorName,omitempty" db:"donor_name"`
	DonorEmail    string `json:"donorEmail,omitempty" db:"donor_email"`
	ReceiverName  string `json:"receiverName,omitempty" db:"receiver_name"`
	ReceiverEmail string `json:"receiverEmail,omitempty" db:"receiver_email"`
	Category      string `json:"category,omitempty" db:"category"`
}

// ManualMatchRequest ids are strings so that a missing id can be told apart
// from a malformed one
type ManualMatchRequest struct {
	DonationID string `json:"donationId"`
	RequestID  string `json:"requestId"`
}

// Listing is the locked view of a donation or request inside a match transaction
type Listing struct {
	ID       uuid.UUID `db:"id"`
	OwnerID  uuid.UUID `db:"owner_id"`
	ItemName string    `db:"item_name"`
	Quantity int       `db:"quantity"`
	Status   string    `db:"status"`
}

// LockedInterest is the locked view of an interest inside a match transaction
type LockedInterest struct {
	ID        uuid.UUID `db:"id"`
	RequestID uuid.UUID `db:"request_id"`
	DonorID   uuid.UUID `db:"donor_id"`
	Quantity  int       `db:"quantity"`
	Status    string    `db:"status"`
}

type Filter struct {
	DonorID    *uuid.UUID
	ReceiverID *uuid.UUID
	Status     string
	Search     string
}
