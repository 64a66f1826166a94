package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertificate(t *testing.T) {
	g := NewGenerator(DefaultOptions())

	data, err := g.GenerateCertificate(context.Background(), CertificateDocument{
		CertificateNumber: "CERT-20260101-ABCDEF12",
		RecipientName:     "Ada Lovelace",
		ItemName:          "Winter coats",
		Quantity:          12,
		BeneficiaryName:   "Northside Shelter",
		IssueDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		VerificationCode:  "0123456789ABCDEF0123456789ABCDEF",
		VerifyURL:         "https://givehub.example/certificates/verify/CERT-20260101-ABCDEF12",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}

func TestGenerateCertificateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(DefaultOptions()).GenerateCertificate(ctx, CertificateDocument{})
	assert.ErrorIs(t, err, context.Canceled)
}
