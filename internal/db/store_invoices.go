package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/types/business"
)

const invoiceColumns = `id, type, status, entity_id, customer_id, partner,
	invoice_number, invoice_date, payment_terms, due_date, gst_type, gst_applicable,
	items, gross_total, total_discount, taxable_total, total_gst, total, igst, cgst, sgst,
	narration, payment_date, payment_received_in, total_amount_received, tds_receivable, gst_tds,
	created_at, updated_at`

func scanInvoice(row rowScanner) (business.Invoice, error) {
	var inv business.Invoice
	var itemsRaw []byte
	err := row.Scan(&inv.ID, &inv.Type, &inv.Status, &inv.EntityID, &inv.CustomerID, &inv.Partner,
		&inv.InvoiceNumber, &inv.InvoiceDate, &inv.PaymentTerms, &inv.DueDate, &inv.GstType, &inv.GstApplicable,
		&itemsRaw, &inv.GrossTotal, &inv.TotalDiscount, &inv.TaxableTotal, &inv.TotalGst, &inv.Total,
		&inv.IGST, &inv.CGST, &inv.SGST,
		&inv.Narration, &inv.PaymentDate, &inv.PaymentReceivedIn, &inv.TotalAmountReceived,
		&inv.TDSReceivable, &inv.GstTDS,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return business.Invoice{}, translateErr(err)
	}
	if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
		return business.Invoice{}, fmt.Errorf("failed to decode invoice items: %w", err)
	}
	return inv, nil
}

// CreateInvoice inserts the invoice and assigns its number inside one
// transaction. The entity counter row is locked by the UPDATE, so two
// concurrent creations against the same entity serialize and can never be
// issued the same number, and a failed insert rolls the counter back.
func (s *Store) CreateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error) {
	itemsRaw, err := marshalJSONB(invoice.Items)
	if err != nil {
		return business.Invoice{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return business.Invoice{}, fmt.Errorf("failed to begin invoice creation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prefix string
	var seq int64
	err = tx.QueryRow(ctx, `UPDATE entities
		SET next_invoice_number = next_invoice_number + 1, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING invoice_prefix, next_invoice_number - 1`,
		invoice.EntityID, s.appID).Scan(&prefix, &seq)
	if err != nil {
		return business.Invoice{}, translateErr(err)
	}
	if prefix == "" {
		prefix = business.DefaultInvoicePrefix
	}
	invoice.InvoiceNumber = business.FormatInvoiceNumber(prefix, seq)

	row := tx.QueryRow(ctx, `INSERT INTO invoices
		(id, app_id, type, status, entity_id, customer_id, partner,
		 invoice_number, invoice_date, payment_terms, due_date, gst_type, gst_applicable,
		 items, gross_total, total_discount, taxable_total, total_gst, total, igst, cgst, sgst,
		 narration, payment_date, payment_received_in, total_amount_received, tds_receivable, gst_tds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING `+invoiceColumns,
		invoice.ID, s.appID, invoice.Type, invoice.Status, invoice.EntityID, invoice.CustomerID,
		invoice.Partner, invoice.InvoiceNumber, invoice.InvoiceDate, invoice.PaymentTerms,
		invoice.DueDate, invoice.GstType, invoice.GstApplicable, itemsRaw,
		invoice.GrossTotal, invoice.TotalDiscount, invoice.TaxableTotal, invoice.TotalGst,
		invoice.Total, invoice.IGST, invoice.CGST, invoice.SGST,
		invoice.Narration, invoice.PaymentDate, invoice.PaymentReceivedIn,
		invoice.TotalAmountReceived, invoice.TDSReceivable, invoice.GstTDS)

	created, err := scanInvoice(row)
	if err != nil {
		return business.Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return business.Invoice{}, fmt.Errorf("failed to commit invoice creation: %w", err)
	}
	s.publish(constants.CollectionInvoices, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (business.Invoice, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanInvoice(row)
}

func (s *Store) ListInvoices(ctx context.Context, params ListInvoicesParams) ([]business.Invoice, error) {
	conditions := []string{"app_id = $1"}
	args := []any{s.appID}

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, clause+" = $"+strconv.Itoa(len(args)))
	}
	if params.Status != "" {
		addCondition("status", params.Status)
	}
	if params.Type != "" {
		addCondition("type", params.Type)
	}
	if params.EntityID != uuid.Nil {
		addCondition("entity_id", params.EntityID)
	}
	if params.CustomerID != uuid.Nil {
		addCondition("customer_id", params.CustomerID)
	}
	if params.Partner != "" {
		addCondition("partner", params.Partner)
	}
	if params.FromDate != "" {
		args = append(args, params.FromDate)
		conditions = append(conditions, "invoice_date >= $"+strconv.Itoa(len(args)))
	}
	if params.ToDate != "" {
		args = append(args, params.ToDate)
		conditions = append(conditions, "invoice_date <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY invoice_date DESC, created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []business.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateInvoice rewrites every mutable column. The invoice number, entity
// and creation time never change after creation.
func (s *Store) UpdateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error) {
	itemsRaw, err := marshalJSONB(invoice.Items)
	if err != nil {
		return business.Invoice{}, err
	}

	row := s.pool.QueryRow(ctx, `UPDATE invoices SET
		type = $3, status = $4, customer_id = $5, partner = $6,
		invoice_date = $7, payment_terms = $8, due_date = $9, gst_type = $10, gst_applicable = $11,
		items = $12, gross_total = $13, total_discount = $14, taxable_total = $15,
		total_gst = $16, total = $17, igst = $18, cgst = $19, sgst = $20,
		narration = $21, payment_date = $22, payment_received_in = $23,
		total_amount_received = $24, tds_receivable = $25, gst_tds = $26, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING `+invoiceColumns,
		invoice.ID, s.appID, invoice.Type, invoice.Status, invoice.CustomerID, invoice.Partner,
		invoice.InvoiceDate, invoice.PaymentTerms, invoice.DueDate, invoice.GstType,
		invoice.GstApplicable, itemsRaw,
		invoice.GrossTotal, invoice.TotalDiscount, invoice.TaxableTotal, invoice.TotalGst,
		invoice.Total, invoice.IGST, invoice.CGST, invoice.SGST,
		invoice.Narration, invoice.PaymentDate, invoice.PaymentReceivedIn,
		invoice.TotalAmountReceived, invoice.TDSReceivable, invoice.GstTDS)

	updated, err := scanInvoice(row)
	if err != nil {
		return business.Invoice{}, err
	}
	s.publish(constants.CollectionInvoices, OpUpdate, updated.ID.String())
	return updated, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionInvoices, OpDelete, id.String())
	return nil
}

func (s *Store) CountInvoicesForEntity(ctx context.Context, entityID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE app_id = $1 AND entity_id = $2`,
		s.appID, entityID).Scan(&count)
	return count, err
}

func (s *Store) CountInvoicesForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE app_id = $1 AND customer_id = $2`,
		s.appID, customerID).Scan(&count)
	return count, err
}

func (s *Store) CountInvoicesForPartner(ctx context.Context, partnerName string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE app_id = $1 AND lower(partner) = lower($2)`,
		s.appID, partnerName).Scan(&count)
	return count, err
}
