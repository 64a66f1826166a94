package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CertificateFields are the values a verification code is bound to
type CertificateFields struct {
	CertificateNumber string
	RecipientName     string
	ItemName          string
	Quantity          int
	IssueDate         time.Time
}

func (f CertificateFields) canonical() string {
	return strings.Join([]string{
		f.CertificateNumber,
		f.RecipientName,
		f.ItemName,
		fmt.Sprintf("%d", f.Quantity),
		f.IssueDate.UTC().Format("2006-01-02"),
	}, "|")
}

// Signer produces and checks certificate verification codes
type Signer interface {
	Sign(fields CertificateFields) string
	Verify(fields CertificateFields, code string) bool
}

type hmacSigner struct {
	key []byte
}

// NewSigner creates an HMAC-SHA256 signer
func NewSigner(key string) Signer {
	return &hmacSigner{key: []byte(key)}
}

// Sign returns the first 16 bytes of the MAC, upper-case hex
func (s *hmacSigner) Sign(fields CertificateFields) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(fields.canonical()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)[:16]))
}

func (s *hmacSigner) Verify(fields CertificateFields, code string) bool {
	expected := s.Sign(fields)
	return hmac.Equal([]byte(expected), []byte(strings.ToUpper(strings.TrimSpace(code))))
}
