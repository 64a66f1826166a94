package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/matching"
	"givehub/portal-backend/internal/metrics"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/pkg/apperr"
	"givehub/portal-backend/pkg/pdf"
	"givehub/portal-backend/pkg/security"
	"givehub/portal-backend/pkg/storage"
	"givehub/portal-backend/pkg/workflows"
)

type Service interface {
	// IssueForMatch satisfies matching.CertificateIssuer
	IssueForMatch(ctx context.Context, m *matching.Match) error
	Issue(ctx context.Context, matchID uuid.UUID) (*Certificate, error)
	Backfill(ctx context.Context, limit int) (int, error)

	ListForDonor(ctx context.Context, donorID uuid.UUID) ([]Certificate, error)
	GetForDonor(ctx context.Context, donorID, id uuid.UUID) (*Certificate, error)
	Download(ctx context.Context, donorID, id uuid.UUID) (*Certificate, io.ReadCloser, error)
	Verify(ctx context.Context, number string) (*VerifyResult, error)
	Count(ctx context.Context) (int, error)
}

// Options configures where documents go and how they link back
type Options struct {
	Bucket    string
	PublicURL string
}

type certificateService struct {
	repo      Repository
	storage   storage.S3Client
	generator pdf.Generator
	signer    security.Signer
	notifier  notifications.Notifier
	options   Options
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	storage storage.S3Client,
	generator pdf.Generator,
	signer security.Signer,
	notifier notifications.Notifier,
	options Options,
	logger *zap.Logger,
) Service {
	return &certificateService{
		repo:      repo,
		storage:   storage,
		generator: generator,
		signer:    signer,
		notifier:  notifier,
		options:   options,
		logger:    logger,
		now:       time.Now,
	}
}

func newCertificateNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CERT-%s-%s", at.UTC().Format("20060102"), suffix)
}

func (s *certificateService) fields(c *Certificate) security.CertificateFields {
	return security.CertificateFields{
		CertificateNumber: c.CertificateNumber,
		RecipientName:     c.RecipientName,
		ItemName:          c.ItemName,
		Quantity:          c.Quantity,
		IssueDate:         c.IssueDate,
	}
}

func (s *certificateService) document(c *Certificate, beneficiary string) pdf.CertificateDocument {
	return pdf.CertificateDocument{
		CertificateNumber: c.CertificateNumber,
		RecipientName:     c.RecipientName,
		ItemName:          c.ItemName,
		Quantity:          c.Quantity,
		BeneficiaryName:   beneficiary,
		IssueDate:         c.IssueDate,
		VerificationCode:  c.VerificationCode,
		VerifyURL:         strings.TrimRight(s.options.PublicURL, "/") + "/api/v1/certificates/verify/" + c.CertificateNumber,
	}
}

func (s *certificateService) IssueForMatch(ctx context.Context, m *matching.Match) error {
	_, err := s.Issue(ctx, m.ID)
	return err
}

// Issue is idempotent per match: a second call returns the existing certificate.
func (s *certificateService) Issue(ctx context.Context, matchID uuid.UUID) (*Certificate, error) {
	existing, err := s.repo.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	src, err := s.repo.GetSource(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("match %s: %w", matchID, apperr.ErrNotFound)
	}
	if src.Status != workflows.StatusCompleted {
		return nil, fmt.Errorf("certificates are only issued for completed matches: %w", apperr.ErrConflict)
	}

	issueDate := s.now().UTC()
	if src.CompletedAt != nil {
		issueDate = src.CompletedAt.UTC()
	}

	cert := &Certificate{
		ID:                uuid.New(),
		MatchID:           matchID,
		DonorID:           src.DonorID,
		CertificateNumber: newCertificateNumber(issueDate),
		RecipientName:     displayName(src.DonorName, src.DonorOrg),
		ItemName:          src.ItemName,
		Quantity:          src.Quantity,
		IssueDate:         issueDate,
		CreatedAt:         s.now(),
	}
	cert.VerificationCode = s.signer.Sign(s.fields(cert))
	cert.StorageKey = fmt.Sprintf("certificates/%s/%s.pdf", cert.DonorID, cert.CertificateNumber)

	doc, err := s.generator.GenerateCertificate(ctx, s.document(cert, displayName(src.ReceiverName, src.ReceiverOrg)))
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	if err := s.storage.Upload(ctx, s.options.Bucket, cert.StorageKey, "application/pdf", bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		// lost a race with another issuer; keep theirs
		if errors.Is(err, apperr.ErrConflict) {
			if delErr := s.storage.Delete(ctx, s.options.Bucket, cert.StorageKey); delErr != nil {
				s.logger.Warn("Failed to remove orphaned certificate document", zap.Error(delErr))
			}
			return s.repo.GetByMatchID(ctx, matchID)
		}
		return nil, fmt.Errorf("record certificate: %w", err)
	}

	s.logger.Info("Certificate issued",
		zap.String("certificate_number", cert.CertificateNumber),
		zap.String("match_id", matchID.String()))
	metrics.CertificatesIssuedTotal.Inc()

	s.notifier.Notify(ctx, notifications.Event{
		Type:       notifications.EventCertificateIssued,
		UserID:     cert.DonorID,
		Title:      "Your donation certificate is ready",
		Message:    fmt.Sprintf("Certificate %s for %d x %s is available for download.", cert.CertificateNumber, cert.Quantity, cert.ItemName),
		EntityType: "certificate",
		EntityID:   cert.ID,
		Data:       map[string]interface{}{"certificateNumber": cert.CertificateNumber},
		OccurredAt: cert.CreatedAt,
	})

	return cert, nil
}

// Backfill issues certificates for completed matches that do not have one,
// returning how many were issued
func (s *certificateService) Backfill(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListMissing(ctx, limit)
	if err != nil {
		return 0, err
	}

	issued := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return issued, err
		}
		if _, err := s.Issue(ctx, id); err != nil {
			s.logger.Error("Failed to backfill certificate", zap.String("match_id", id.String()), zap.Error(err))
			continue
		}
		issued++
	}
	return issued, nil
}

func (s *certificateService) ListForDonor(ctx context.Context, donorID uuid.UUID) ([]Certificate, error) {
	return s.repo.ListByDonor(ctx, donorID)
}

func (s *certificateService) GetForDonor(ctx context.Context, donorID, id uuid.UUID) (*Certificate, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil || cert.DonorID != donorID {
		return nil, fmt.Errorf("certificate %s: %w", id, apperr.ErrNotFound)
	}
	return cert, nil
}

// Download streams the stored document, re-rendering it when the object is gone
func (s *certificateService) Download(ctx context.Context, donorID, id uuid.UUID) (*Certificate, io.ReadCloser, error) {
	cert, err := s.GetForDonor(ctx, donorID, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.storage.Download(ctx, s.options.Bucket, cert.StorageKey)
	if err == nil {
		return cert, body, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, fmt.Errorf("fetch certificate: %w", err)
	}

	s.logger.Warn("Certificate document missing, regenerating", zap.String("certificate_number", cert.CertificateNumber))
	src, err := s.repo.GetSource(ctx, cert.MatchID)
	if err != nil {
		return nil, nil, fmt.Errorf("load match: %w", err)
	}
	if src == nil {
		return nil, nil, fmt.Errorf("match %s: %w", cert.MatchID, apperr.ErrNotFound)
	}
	doc, err := s.generator.GenerateCertificate(ctx, s.document(cert, displayName(src.ReceiverName, src.ReceiverOrg)))
	if err != nil {
		return nil, nil, fmt.Errorf("render certificate: %w", err)
	}
	if err := s.storage.Upload(ctx, s.options.Bucket, cert.StorageKey, "application/pdf", bytes.NewReader(doc)); err != nil {
		s.logger.Warn("Failed to re-store certificate", zap.Error(err))
	}
	return cert, io.NopCloser(bytes.NewReader(doc)), nil
}

func (s *certificateService) Verify(ctx context.Context, number string) (*VerifyResult, error) {
	cert, err := s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	if cert == nil || !s.signer.Verify(s.fields(cert), cert.VerificationCode) {
		return &VerifyResult{Valid: false}, nil
	}

	return &VerifyResult{
		Valid: true,
		Certificate: &PublicCertificate{
			CertificateNumber: cert.CertificateNumber,
			RecipientName:     cert.RecipientName,
			ItemName:          cert.ItemName,
			Quantity:          cert.Quantity,
			IssueDate:         cert.IssueDate,
		},
	}, nil
}

func (s *certificateService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
