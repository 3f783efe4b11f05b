package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/helpers"
	"github.com/recivo/recivo-api/internal/types/business"
)

// EmailSender delivers invoice emails. Satisfied by EmailService and mocked
// in tests.
type EmailSender interface {
	SendInvoiceEmail(ctx context.Context, invoice business.Invoice, entity business.Entity, customer business.Customer, pdf []byte) error
}

// EmailService sends transactional email through Resend.
type EmailService struct {
	client    *resend.Client
	logger    *zap.Logger
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string, logger *zap.Logger) *EmailService {
	client := resend.NewClient(apiKey)

	return &EmailService{
		client:    client,
		logger:    logger,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

var invoiceEmailTemplate = template.Must(template.New("invoice").Parse(`
<p>Dear {{.CustomerName}},</p>
<p>Please find attached {{.DocumentKind}} <strong>{{.InvoiceNumber}}</strong> dated {{.InvoiceDate}}
for <strong>&#8377;{{.Amount}}</strong>.</p>
<p>Payment is due by <strong>{{.DueDate}}</strong>.</p>
<p>Regards,<br>{{.EntityName}}</p>
`))

type invoiceEmailData struct {
	CustomerName  string
	DocumentKind  string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Amount        string
	EntityName    string
}

// SendInvoiceEmail emails the rendered invoice PDF to the customer. The
// customer must have an email address on file.
func (s *EmailService) SendInvoiceEmail(ctx context.Context, invoice business.Invoice, entity business.Entity, customer business.Customer, pdf []byte) error {
	if customer.Email == "" {
		return fmt.Errorf("%w: customer %q has no email address", ErrInvalidInput, customer.Name)
	}

	kind := "invoice"
	if invoice.Type == business.TypeProforma {
		kind = "proforma invoice"
	}

	var body bytes.Buffer
	err := invoiceEmailTemplate.Execute(&body, invoiceEmailData{
		CustomerName:  customer.Name,
		DocumentKind:  kind,
		InvoiceNumber: invoice.InvoiceNumber,
		InvoiceDate:   invoice.InvoiceDate,
		DueDate:       invoice.DueDate,
		Amount:        helpers.FormatINR(invoice.Total),
		EntityName:    entity.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to render invoice email: %w", err)
	}

	sendParams := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      []string{customer.Email},
		Subject: fmt.Sprintf("%s %s from %s", titleKind(invoice.Type), invoice.InvoiceNumber, entity.Name),
		Html:    body.String(),
		Headers: map[string]string{
			"X-Entity-Ref-ID": uuid.New().String(),
		},
		Attachments: []*resend.Attachment{
			{
				Filename:    fmt.Sprintf("%s.pdf", invoice.InvoiceNumber),
				Content:     pdf,
				ContentType: "application/pdf",
			},
		},
	}

	sent, err := s.client.Emails.SendWithContext(ctx, sendParams)
	if err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}

	s.logger.Info("Invoice email sent",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("to", customer.Email),
		zap.String("email_id", sent.Id))
	return nil
}

func titleKind(t business.InvoiceType) string {
	if t == business.TypeProforma {
		return "Proforma Invoice"
	}
	return "Invoice"
}
