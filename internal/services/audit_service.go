package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/business"
)

// AuditService appends to and reads the immutable audit trail.
type AuditService struct {
	queries db.Querier
	logger  *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(queries db.Querier) *AuditService {
	return &AuditService{
		queries: queries,
		logger:  logger.Log,
	}
}

// Record appends one audit entry. Update-type entries with an empty change
// set are suppressed entirely, so a no-op save leaves no trace. The actor
// falls back to the anonymous identity when the request carried none.
// Returns whether an entry was written.
func (s *AuditService) Record(ctx context.Context, entry business.AuditLog) (bool, error) {
	if entry.Action.IsUpdateAction() && len(entry.Changes) == 0 {
		return false, nil
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.UserID == "" {
		entry.UserID = constants.AnonymousUserID
	}
	if entry.UserName == "" {
		entry.UserName = constants.AnonymousUserName
	}

	if _, err := s.queries.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit entry",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
		return false, fmt.Errorf("failed to write audit entry: %w", err)
	}
	return true, nil
}

// List returns audit entries newest first, filtered and paged.
func (s *AuditService) List(ctx context.Context, params db.ListAuditLogsParams) ([]business.AuditLog, error) {
	entries, err := s.queries.ListAuditLogs(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

// InvoiceHistory returns every audit entry for one invoice, newest first.
func (s *AuditService) InvoiceHistory(ctx context.Context, invoiceID string) ([]business.AuditLog, error) {
	entries, err := s.queries.ListInvoiceAuditLogs(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice history: %w", err)
	}
	return entries, nil
}
