package interests

import (
	"time"

	"github.com/google/uuid"
)

// Interest is a donor's offer to fulfil an approved request
type Interest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID uuid.UUID `json:"requestId" db:"request_id"`
	DonorID   uuid.UUID `json:"donorId" db:"donor_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Message   string    `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	DonorName       string    `json:"donorName,omitempty" db:"donor_name"`
	DonorEmail      string    `json:"donorEmail,omitempty" db:"donor_email"`
	ItemName        string    `json:"itemName,omitempty" db:"item_name"`
	Category        string    `json:"category,omitempty" db:"category"`
	RequestStatus   string    `json:"requestStatus,omitempty" db:"request_status"`
	ReceiverID      uuid.UUID `json:"receiverId" db:"receiver_id"`
	ReceiverName    string    `json:"receiverName,omitempty" db:"receiver_name"`
	RequestQuantity int       `json:"requestQuantity,omitempty" db:"request_quantity"`
}

type CreateInterestRequest struct {
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

type Filter struct {
	DonorID   *uuid.UUID
	RequestID *uuid.UUID
	Status    string
	Search    string
}
