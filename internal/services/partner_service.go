package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/helpers"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

// PartnerService manages partner tags. Invoices reference partners by name,
// so a partner with invoices cannot be removed.
type PartnerService struct {
	queries db.Querier
	audit   *AuditService
	logger  *zap.Logger
}

// NewPartnerService creates a new partner service
func NewPartnerService(queries db.Querier, audit *AuditService) *PartnerService {
	return &PartnerService{
		queries: queries,
		audit:   audit,
		logger:  logger.Log,
	}
}

func (s *PartnerService) CreatePartner(ctx context.Context, actor business.AuditActor, p params.PartnerParams) (business.Partner, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Partner{}, fmt.Errorf("%w: partner name is required", ErrInvalidInput)
	}

	exists, err := s.queries.PartnerNameExists(ctx, name, uuid.Nil)
	if err != nil {
		return business.Partner{}, fmt.Errorf("failed to check partner name: %w", err)
	}
	if exists {
		return business.Partner{}, db.ErrDuplicateName
	}

	created, err := s.queries.CreatePartner(ctx, business.Partner{ID: uuid.New(), Name: name})
	if err != nil {
		return business.Partner{}, fmt.Errorf("failed to create partner: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionCreatePartner, created.Name, nil)
	return created, nil
}

func (s *PartnerService) GetPartner(ctx context.Context, id uuid.UUID) (business.Partner, error) {
	return s.queries.GetPartner(ctx, id)
}

func (s *PartnerService) ListPartners(ctx context.Context) ([]business.Partner, error) {
	return s.queries.ListPartners(ctx)
}

func (s *PartnerService) UpdatePartner(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.PartnerParams) (business.Partner, error) {
	existing, err := s.queries.GetPartner(ctx, id)
	if err != nil {
		return business.Partner{}, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Partner{}, fmt.Errorf("%w: partner name is required", ErrInvalidInput)
	}

	exists, err := s.queries.PartnerNameExists(ctx, name, id)
	if err != nil {
		return business.Partner{}, fmt.Errorf("failed to check partner name: %w", err)
	}
	if exists {
		return business.Partner{}, db.ErrDuplicateName
	}

	// Renaming a partner with invoices would orphan the name reference on
	// those invoices.
	if name != existing.Name {
		count, err := s.queries.CountInvoicesForPartner(ctx, existing.Name)
		if err != nil {
			return business.Partner{}, fmt.Errorf("failed to count partner invoices: %w", err)
		}
		if count > 0 {
			return business.Partner{}, fmt.Errorf("%w: partner %q is referenced by %d invoice(s)", ErrConflict, existing.Name, count)
		}
	}

	updated, err := s.queries.UpdatePartner(ctx, business.Partner{
		ID:        id,
		Name:      name,
		CreatedAt: existing.CreatedAt,
	})
	if err != nil {
		return business.Partner{}, fmt.Errorf("failed to update partner: %w", err)
	}

	changes, diffErr := helpers.ObjectChanges(existing, updated)
	if diffErr != nil {
		s.logger.Warn("Failed to diff partner for audit", zap.Error(diffErr))
	}
	s.recordAudit(ctx, actor, business.ActionUpdatePartner, updated.Name, changes)
	return updated, nil
}

func (s *PartnerService) DeletePartner(ctx context.Context, actor business.AuditActor, id uuid.UUID) error {
	partner, err := s.queries.GetPartner(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.queries.CountInvoicesForPartner(ctx, partner.Name)
	if err != nil {
		return fmt.Errorf("failed to count partner invoices: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: partner %q is referenced by %d invoice(s)", ErrConflict, partner.Name, count)
	}

	if err := s.queries.DeletePartner(ctx, id); err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionDeletePartner, partner.Name, nil)
	return nil
}

func (s *PartnerService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, partnerName string, changes map[string]helpers.FieldChange) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:      action,
		UserID:      actor.UserID,
		UserName:    actor.UserName,
		UserEmail:   actor.Email,
		PartnerName: partnerName,
		Changes:     changesToMap(changes),
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
