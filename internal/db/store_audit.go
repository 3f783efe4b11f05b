package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/types/business"
)

const auditColumns = `id, action, user_id, user_name, user_email, ts, changes,
	invoice_id, invoice_number, amount, customer_name, entity_name, product_name, partner_name`

func scanAuditLog(row rowScanner) (business.AuditLog, error) {
	var e business.AuditLog
	var changesRaw []byte
	err := row.Scan(&e.ID, &e.Action, &e.UserID, &e.UserName, &e.UserEmail, &e.Timestamp,
		&changesRaw, &e.InvoiceID, &e.InvoiceNumber, &e.Amount,
		&e.CustomerName, &e.EntityName, &e.ProductName, &e.PartnerName)
	if err != nil {
		return business.AuditLog{}, translateErr(err)
	}
	if err := json.Unmarshal(changesRaw, &e.Changes); err != nil {
		return business.AuditLog{}, fmt.Errorf("failed to decode audit changes: %w", err)
	}
	if len(e.Changes) == 0 {
		e.Changes = nil
	}
	return e, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry business.AuditLog) (business.AuditLog, error) {
	changes := entry.Changes
	if changes == nil {
		changes = map[string]interface{}{}
	}
	changesRaw, err := marshalJSONB(changes)
	if err != nil {
		return business.AuditLog{}, err
	}

	row := s.pool.QueryRow(ctx, `INSERT INTO audit_logs
		(id, app_id, action, user_id, user_name, user_email, ts, changes,
		 invoice_id, invoice_number, amount, customer_name, entity_name, product_name, partner_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+auditColumns,
		entry.ID, s.appID, entry.Action, entry.UserID, entry.UserName, entry.UserEmail,
		entry.Timestamp, changesRaw, entry.InvoiceID, entry.InvoiceNumber, entry.Amount,
		entry.CustomerName, entry.EntityName, entry.ProductName, entry.PartnerName)

	created, err := scanAuditLog(row)
	if err != nil {
		return business.AuditLog{}, err
	}
	s.publish(constants.CollectionAuditLogs, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) ListAuditLogs(ctx context.Context, params ListAuditLogsParams) ([]business.AuditLog, error) {
	conditions := []string{"app_id = $1"}
	args := []any{s.appID}

	if params.Action != "" {
		args = append(args, params.Action)
		conditions = append(conditions, "action = $"+strconv.Itoa(len(args)))
	}
	if params.UserID != "" {
		args = append(args, params.UserID)
		conditions = append(conditions, "user_id = $"+strconv.Itoa(len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY ts DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []business.AuditLog{}
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ListInvoiceAuditLogs(ctx context.Context, invoiceID string) ([]business.AuditLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_logs
		 WHERE app_id = $1 AND invoice_id = $2 ORDER BY ts DESC`,
		s.appID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []business.AuditLog{}
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
