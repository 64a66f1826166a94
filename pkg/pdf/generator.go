package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument is the content printed on a donation certificate
type CertificateDocument struct {
	CertificateNumber string
	RecipientName     string
	ItemName          string
	Quantity          int
	BeneficiaryName   string
	IssueDate         time.Time
	VerificationCode  string
	VerifyURL         string
}

type Generator interface {
	GenerateCertificate(ctx context.Context, doc CertificateDocument) ([]byte, error)
}

// Options controls page styling
type Options struct {
	PlatformName string
	FontFamily   string
	AccentColor  [3]int
	DateFormat   string
}

// DefaultOptions returns default certificate styling
func DefaultOptions() Options {
	return Options{
		PlatformName: "GiveHub",
		FontFamily:   "Arial",
		AccentColor:  [3]int{46, 125, 50},
		DateFormat:   "January 2, 2006",
	}
}

type gofpdfGenerator struct {
	options Options
}

func NewGenerator(options Options) Generator {
	return &gofpdfGenerator{options: options}
}

func (g *gofpdfGenerator) GenerateCertificate(ctx context.Context, doc CertificateDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Certificate %s", doc.CertificateNumber), true)
	pdf.SetAuthor(g.options.PlatformName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	w, h := pdf.GetPageSize()
	r, gr, b := g.options.AccentColor[0], g.options.AccentColor[1], g.options.AccentColor[2]

	// border
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(14, 14, w-28, h-28, "D")

	pdf.SetY(35)
	pdf.SetFont(g.options.FontFamily, "B", 30)
	pdf.SetTextColor(r, gr, b)
	pdf.CellFormat(0, 14, "Certificate of Appreciation", "", 1, "C", false, 0, "")

	pdf.SetFont(g.options.FontFamily, "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 10, "This certificate is proudly presented to", "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont(g.options.FontFamily, "B", 26)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 14, pdf.UnicodeTranslatorFromDescriptor("")(doc.RecipientName), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont(g.options.FontFamily, "", 14)
	pdf.SetTextColor(60, 60, 60)
	line := fmt.Sprintf("in recognition of the generous donation of %d x %s", doc.Quantity, doc.ItemName)
	pdf.CellFormat(0, 9, pdf.UnicodeTranslatorFromDescriptor("")(line), "", 1, "C", false, 0, "")
	if doc.BeneficiaryName != "" {
		pdf.CellFormat(0, 9, pdf.UnicodeTranslatorFromDescriptor("")("to "+doc.BeneficiaryName), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 9, fmt.Sprintf("through the %s community donation platform.", g.options.PlatformName), "", 1, "C", false, 0, "")

	pdf.SetY(h - 55)
	pdf.SetFont(g.options.FontFamily, "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 7, fmt.Sprintf("Certificate No: %s", doc.CertificateNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on %s", doc.IssueDate.Format(g.options.DateFormat)), "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("Verification code: %s", doc.VerificationCode), "", 1, "C", false, 0, "")
	if doc.VerifyURL != "" {
		pdf.SetFont(g.options.FontFamily, "I", 9)
		pdf.CellFormat(0, 6, doc.VerifyURL, "", 1, "C", false, 0, doc.VerifyURL)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
