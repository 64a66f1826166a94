package certificates

import (
	"time"

	"github.com/google/uuid"
)

// Certificate acknowledges a donor for a completed match
type Certificate struct {
	ID                uuid.UUID `json:"id" db:"id"`
	MatchID           uuid.UUID `json:"matchId" db:"match_id"`
	DonorID           uuid.UUID `json:"donorId" db:"donor_id"`
	CertificateNumber string    `json:"certificateNumber" db:"certificate_number"`
	RecipientName     string    `json:"recipientName" db:"recipient_name"`
	ItemName          string    `json:"itemName" db:"item_name"`
	Quantity          int       `json:"quantity" db:"quantity"`
	IssueDate         time.Time `json:"issueDate" db:"issue_date"`
	VerificationCode  string    `json:"verificationCode" db:"verification_code"`
	StorageKey        string    `json:"-" db:"storage_key"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// Source is what a certificate is rendered from: a match and its participants
type Source struct {
	MatchID      uuid.UUID  `db:"match_id"`
	Status       string     `db:"status"`
	DonorID      uuid.UUID  `db:"donor_id"`
	DonorName    string     `db:"donor_name"`
	DonorOrg     string     `db:"donor_org"`
	ReceiverName string     `db:"receiver_name"`
	ReceiverOrg  string     `db:"receiver_org"`
	ItemName     string     `db:"item_name"`
	Quantity     int        `db:"quantity"`
	CompletedAt  *time.Time `db:"completed_at"`
}

func displayName(name, org string) string {
	if org != "" {
		return org
	}
	return name
}

// PublicCertificate is the subset shown to anyone holding a certificate number
type PublicCertificate struct {
	CertificateNumber string    `json:"certificateNumber"`
	RecipientName     string    `json:"recipientName"`
	ItemName          string    `json:"itemName"`
	Quantity          int       `json:"quantity"`
	IssueDate         time.Time `json:"issueDate"`
}

type VerifyResult struct {
	Valid       bool               `json:"valid"`
	Certificate *PublicCertificate `json:"certificate,omitempty"`
}
