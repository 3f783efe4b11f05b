package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/helpers"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

// InvoiceService owns the invoice lifecycle: creation with sequential
// numbering, in-place edits while editable, the forward-only status
// transitions, and settlement.
type InvoiceService struct {
	queries db.Querier
	tax     *TaxService
	audit   *AuditService
	pdf     PDFRenderer
	email   EmailSender
	logger  *zap.Logger
}

// NewInvoiceService creates a new invoice service. email may be nil when no
// delivery provider is configured; sending then degrades to a status change.
func NewInvoiceService(queries db.Querier, tax *TaxService, audit *AuditService, pdf PDFRenderer, email EmailSender) *InvoiceService {
	return &InvoiceService{
		queries: queries,
		tax:     tax,
		audit:   audit,
		pdf:     pdf,
		email:   email,
		logger:  logger.Log,
	}
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(business.DateFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be in YYYY-MM-DD format", ErrInvalidInput, value)
	}
	return t, nil
}

func dueDateFor(invoiceDate time.Time, paymentTerms int) string {
	return invoiceDate.AddDate(0, 0, paymentTerms).Format(business.DateFormat)
}

// resolveParties loads and validates the referenced entity, customer and
// partner name.
func (s *InvoiceService) resolveParties(ctx context.Context, entityID, customerID uuid.UUID, partner string) (business.Entity, business.Customer, error) {
	entity, err := s.queries.GetEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return business.Entity{}, business.Customer{}, fmt.Errorf("%w: entity %s does not exist", ErrInvalidInput, entityID)
		}
		return business.Entity{}, business.Customer{}, fmt.Errorf("failed to load entity: %w", err)
	}

	customer, err := s.queries.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return business.Entity{}, business.Customer{}, fmt.Errorf("%w: customer %s does not exist", ErrInvalidInput, customerID)
		}
		return business.Entity{}, business.Customer{}, fmt.Errorf("failed to load customer: %w", err)
	}

	if partner != "" {
		exists, err := s.queries.PartnerNameExists(ctx, partner, uuid.Nil)
		if err != nil {
			return business.Entity{}, business.Customer{}, fmt.Errorf("failed to check partner: %w", err)
		}
		if !exists {
			return business.Entity{}, business.Customer{}, fmt.Errorf("%w: partner %q does not exist", ErrInvalidInput, partner)
		}
	}
	return entity, customer, nil
}

// CreateInvoice validates the payload, derives GST treatment and totals,
// and creates the invoice with the next number from the entity's counter.
func (s *InvoiceService) CreateInvoice(ctx context.Context, actor business.AuditActor, p params.CreateInvoiceParams) (business.Invoice, error) {
	if p.Type != business.TypeInvoice && p.Type != business.TypeProforma {
		return business.Invoice{}, fmt.Errorf("%w: type must be %q or %q", ErrInvalidInput, business.TypeInvoice, business.TypeProforma)
	}
	if err := s.tax.ValidateItems(p.Items); err != nil {
		return business.Invoice{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	invoiceDate, err := parseDate(p.InvoiceDate)
	if err != nil {
		return business.Invoice{}, err
	}
	if p.PaymentTerms < 0 {
		return business.Invoice{}, fmt.Errorf("%w: payment terms cannot be negative", ErrInvalidInput)
	}

	partner := strings.TrimSpace(p.Partner)
	entity, customer, err := s.resolveParties(ctx, p.EntityID, p.CustomerID, partner)
	if err != nil {
		return business.Invoice{}, err
	}

	// Proformas exist so a GST-registered entity can bill before committing
	// a tax invoice number. An unregistered entity has no such stage and
	// always issues a regular invoice.
	if !entity.GstRegistered {
		p.Type = business.TypeInvoice
	}

	terms := p.PaymentTerms
	if terms == 0 {
		terms = business.DefaultPaymentTermsDays
	}

	gstApplicable, gstType := s.tax.ResolveGst(entity, customer)

	invoice := business.Invoice{
		ID:            uuid.New(),
		Type:          p.Type,
		EntityID:      p.EntityID,
		CustomerID:    p.CustomerID,
		Partner:       partner,
		InvoiceDate:   invoiceDate.Format(business.DateFormat),
		PaymentTerms:  terms,
		DueDate:       dueDateFor(invoiceDate, terms),
		GstType:       gstType,
		GstApplicable: gstApplicable,
		Items:         p.Items,
		Narration:     strings.TrimSpace(p.Narration),
	}
	invoice.Totals = s.tax.ComputeTotals(p.Items, gstApplicable, gstType)
	if p.Type == business.TypeProforma {
		invoice.Status = business.StatusProforma
	} else {
		invoice.Status = business.StatusInvoiced
	}

	created, err := s.queries.CreateInvoice(ctx, invoice)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionCreateInvoice, created, entity.Name, customer.Name, nil)
	s.logger.Info("Invoice created",
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("type", string(created.Type)))
	return created, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (business.Invoice, error) {
	return s.queries.GetInvoice(ctx, id)
}

// ListInvoices returns the filtered listing with the derived due state
// stamped onto outstanding invoices.
func (s *InvoiceService) ListInvoices(ctx context.Context, p db.ListInvoicesParams) ([]business.Invoice, error) {
	invoices, err := s.queries.ListInvoices(ctx, p)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format(business.DateFormat)
	for i := range invoices {
		invoices[i].DueStatus = invoices[i].DueStateOn(today)
	}
	return invoices, nil
}

// ListPayments projects the Paid invoices into payment rows with resolved
// entity and customer names.
func (s *InvoiceService) ListPayments(ctx context.Context) ([]business.PaymentRecord, error) {
	invoices, err := s.queries.ListInvoices(ctx, db.ListInvoicesParams{Status: business.StatusPaid})
	if err != nil {
		return nil, err
	}
	entities, err := s.queries.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	customers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	entityNames := make(map[uuid.UUID]string, len(entities))
	for _, e := range entities {
		entityNames[e.ID] = e.Name
	}
	customerNames := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}

	payments := make([]business.PaymentRecord, 0, len(invoices))
	for _, inv := range invoices {
		payments = append(payments, business.PaymentRecord{
			InvoiceID:           inv.ID,
			InvoiceNumber:       inv.InvoiceNumber,
			EntityName:          entityNames[inv.EntityID],
			CustomerName:        customerNames[inv.CustomerID],
			PaymentDate:         inv.PaymentDate,
			PaymentReceivedIn:   inv.PaymentReceivedIn,
			Total:               inv.Total,
			TotalAmountReceived: inv.TotalAmountReceived,
			TDSReceivable:       inv.TDSReceivable,
			GstTDS:              inv.GstTDS,
		})
	}
	return payments, nil
}

// UpdateInvoice edits an invoice in place. Only Proforma and Invoiced
// invoices are editable; the invoice number and entity never change. Totals
// are recomputed and the field-level diff is recorded in the audit trail.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.UpdateInvoiceParams) (business.Invoice, error) {
	existing, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return business.Invoice{}, err
	}
	if !existing.Status.Editable() {
		return business.Invoice{}, fmt.Errorf("%w: a %s invoice cannot be edited", ErrConflict, existing.Status)
	}

	if err := s.tax.ValidateItems(p.Items); err != nil {
		return business.Invoice{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	invoiceDate, err := parseDate(p.InvoiceDate)
	if err != nil {
		return business.Invoice{}, err
	}
	if p.PaymentTerms < 0 {
		return business.Invoice{}, fmt.Errorf("%w: payment terms cannot be negative", ErrInvalidInput)
	}

	partner := strings.TrimSpace(p.Partner)
	entity, customer, err := s.resolveParties(ctx, existing.EntityID, p.CustomerID, partner)
	if err != nil {
		return business.Invoice{}, err
	}

	terms := p.PaymentTerms
	if terms == 0 {
		terms = business.DefaultPaymentTermsDays
	}
	gstApplicable, gstType := s.tax.ResolveGst(entity, customer)

	next := existing
	next.CustomerID = p.CustomerID
	next.Partner = partner
	next.InvoiceDate = invoiceDate.Format(business.DateFormat)
	next.PaymentTerms = terms
	next.DueDate = dueDateFor(invoiceDate, terms)
	next.GstType = gstType
	next.GstApplicable = gstApplicable
	next.Items = p.Items
	next.Narration = strings.TrimSpace(p.Narration)
	next.Totals = s.tax.ComputeTotals(p.Items, gstApplicable, gstType)

	updated, err := s.queries.UpdateInvoice(ctx, next)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	changes, diffErr := helpers.ObjectChanges(existing, updated)
	if diffErr != nil {
		s.logger.Warn("Failed to diff invoice for audit", zap.Error(diffErr))
	}
	s.recordAudit(ctx, actor, business.ActionUpdateInvoice, updated, entity.Name, customer.Name, changes)
	return updated, nil
}

// ConvertToInvoice finalizes a proforma into a regular invoice. The number
// assigned at creation is retained; GST treatment and totals are recomputed
// for the finalized document.
func (s *InvoiceService) ConvertToInvoice(ctx context.Context, actor business.AuditActor, id uuid.UUID) (business.Invoice, error) {
	existing, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return business.Invoice{}, err
	}
	if existing.Type != business.TypeProforma || existing.Status != business.StatusProforma {
		return business.Invoice{}, fmt.Errorf("%w: only a proforma can be converted", ErrConflict)
	}

	entity, customer, err := s.resolveParties(ctx, existing.EntityID, existing.CustomerID, "")
	if err != nil {
		return business.Invoice{}, err
	}

	// A finalized invoice always carries GST unless the customer is an
	// export or SEZ destination, regardless of how the proforma was set up
	// or whether the entity's registration changed in the meantime.
	gstApplicable := !customer.TaxExempt()
	gstType := business.GstType("")
	if gstApplicable {
		if sameState(entity.PlaceOfSupply, customer.PlaceOfSupply) {
			gstType = business.GstTypeCGSTSGST
		} else {
			gstType = business.GstTypeIGST
		}
	}

	next := existing
	next.Type = business.TypeInvoice
	next.Status = business.StatusInvoiced
	next.GstApplicable = gstApplicable
	next.GstType = gstType
	next.Totals = s.tax.ComputeTotals(existing.Items, gstApplicable, gstType)

	updated, err := s.queries.UpdateInvoice(ctx, next)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to convert invoice: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionConvertToInvoice, updated, entity.Name, customer.Name, map[string]helpers.FieldChange{
		"type":   {Old: string(business.TypeProforma), New: string(business.TypeInvoice)},
		"status": {Old: string(business.StatusProforma), New: string(business.StatusInvoiced)},
	})
	return updated, nil
}

// MarkSent advances an Invoiced invoice to Sent and then makes a best
// effort to email the PDF to the customer. Email failure never rolls the
// status back; it is logged and the invoice stays Sent.
func (s *InvoiceService) MarkSent(ctx context.Context, actor business.AuditActor, id uuid.UUID) (business.Invoice, error) {
	existing, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return business.Invoice{}, err
	}
	if !business.CanTransition(existing.Status, business.StatusSent) {
		return business.Invoice{}, fmt.Errorf("%w: cannot move a %s invoice to %s", ErrConflict, existing.Status, business.StatusSent)
	}

	next := existing
	next.Status = business.StatusSent

	updated, err := s.queries.UpdateInvoice(ctx, next)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to mark invoice sent: %w", err)
	}

	entity, entityErr := s.queries.GetEntity(ctx, updated.EntityID)
	customer, customerErr := s.queries.GetCustomer(ctx, updated.CustomerID)
	if entityErr == nil && customerErr == nil {
		s.sendInvoiceEmail(ctx, updated, entity, customer)
	}

	s.recordAudit(ctx, actor, business.ActionUpdateInvoiceStatus, updated, entity.Name, customer.Name, map[string]helpers.FieldChange{
		"status": {Old: string(existing.Status), New: string(updated.Status)},
	})
	return updated, nil
}

func (s *InvoiceService) sendInvoiceEmail(ctx context.Context, invoice business.Invoice, entity business.Entity, customer business.Customer) {
	if s.email == nil {
		return
	}
	if customer.Email == "" {
		s.logger.Warn("Skipping invoice email, customer has no address",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("customer", customer.Name))
		return
	}

	document, err := s.pdf.RenderInvoice(invoice, entity, customer)
	if err != nil {
		s.logger.Error("Failed to render invoice pdf for email",
			zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		return
	}
	if err := s.email.SendInvoiceEmail(ctx, invoice, entity, customer, document); err != nil {
		s.logger.Error("Failed to email invoice",
			zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
	}
}

// MarkPaid settles a Sent invoice. The GST TDS spillover absorbs whatever
// part of the total is not covered by the amount received plus income tax
// TDS, clamped at zero so overpayment never records a negative.
func (s *InvoiceService) MarkPaid(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.MarkInvoicePaidParams) (business.Invoice, error) {
	existing, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return business.Invoice{}, err
	}
	if !business.CanTransition(existing.Status, business.StatusPaid) {
		return business.Invoice{}, fmt.Errorf("%w: cannot move a %s invoice to %s", ErrConflict, existing.Status, business.StatusPaid)
	}

	if _, err := parseDate(p.PaymentDate); err != nil {
		return business.Invoice{}, err
	}
	if p.TotalAmountReceived.IsNegative() || p.TDSReceivable.IsNegative() {
		return business.Invoice{}, fmt.Errorf("%w: payment amounts cannot be negative", ErrInvalidInput)
	}

	gstTds := existing.Total.Sub(p.TotalAmountReceived).Sub(p.TDSReceivable)
	if gstTds.IsNegative() {
		gstTds = decimal.Zero
	}

	next := existing
	next.Status = business.StatusPaid
	next.PaymentDate = strings.TrimSpace(p.PaymentDate)
	next.PaymentReceivedIn = strings.TrimSpace(p.PaymentReceivedIn)
	next.TotalAmountReceived = p.TotalAmountReceived
	next.TDSReceivable = p.TDSReceivable
	next.GstTDS = gstTds

	updated, err := s.queries.UpdateInvoice(ctx, next)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	entityName, customerName := s.partyNames(ctx, updated)
	s.recordAudit(ctx, actor, business.ActionMarkInvoiceAsPaid, updated, entityName, customerName, map[string]helpers.FieldChange{
		"status": {Old: string(existing.Status), New: string(updated.Status)},
	})
	return updated, nil
}

// DeleteInvoice removes an invoice in any state. The entity's number
// counter is never rolled back, so the deleted number is retired for good.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, actor business.AuditActor, id uuid.UUID) error {
	existing, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	entityName, customerName := s.partyNames(ctx, existing)
	s.recordAudit(ctx, actor, business.ActionDeleteInvoice, existing, entityName, customerName, nil)
	return nil
}

// partyNames resolves the entity and customer names for the audit trail.
// Resolution is best effort; a missing party simply leaves its name blank.
func (s *InvoiceService) partyNames(ctx context.Context, invoice business.Invoice) (string, string) {
	var entityName, customerName string
	if entity, err := s.queries.GetEntity(ctx, invoice.EntityID); err == nil {
		entityName = entity.Name
	}
	if customer, err := s.queries.GetCustomer(ctx, invoice.CustomerID); err == nil {
		customerName = customer.Name
	}
	return entityName, customerName
}

// History returns the audit entries for one invoice, newest first.
func (s *InvoiceService) History(ctx context.Context, id uuid.UUID) ([]business.AuditLog, error) {
	return s.audit.InvoiceHistory(ctx, id.String())
}

// RenderPDF produces the printable document for an invoice.
func (s *InvoiceService) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	invoice, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}
	entity, err := s.queries.GetEntity(ctx, invoice.EntityID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load entity: %w", err)
	}
	customer, err := s.queries.GetCustomer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load customer: %w", err)
	}

	document, err := s.pdf.RenderInvoice(invoice, entity, customer)
	if err != nil {
		return nil, "", err
	}
	return document, fmt.Sprintf("%s.pdf", invoice.InvoiceNumber), nil
}

func (s *InvoiceService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, invoice business.Invoice, entityName, customerName string, changes map[string]helpers.FieldChange) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:        action,
		UserID:        actor.UserID,
		UserName:      actor.UserName,
		UserEmail:     actor.Email,
		InvoiceID:     invoice.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        invoice.Total,
		EntityName:    entityName,
		CustomerName:  customerName,
		PartnerName:   invoice.Partner,
		Changes:       changesToMap(changes),
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
